package agents

import (
	"context"
	"fmt"
	"strings"

	"consult-listener/internal/consultation"
	"consult-listener/internal/llm"
)

// FallbackAnswer is the fixed grounding disclosure returned whenever the
// requested information is not clearly present in the structured record.
const FallbackAnswer = "I'm not sure, this wasn't clearly discussed in this visit — please confirm with your doctor."

const qaSystemPrompt = `You are the Q&A Agent for a past consultation.

You get:
- A structured consultation JSON
- A history of previous Q&A (optional)
- A patient's question

Answer ONLY using information from the JSON.
If the answer is not clearly in the JSON, say:
"I'm not sure, this wasn't clearly discussed in this visit — please confirm with your doctor."

Be brief and patient-friendly.`

// QA answers follow-up questions about a visit using only the structured
// record and the prior exchanges. A single attempt, no retry: the
// conversational flow degrades rather than blocks.
type QA struct {
	client llm.Client
}

func NewQA(client llm.Client) *QA {
	return &QA{client: client}
}

// Answer returns the grounded answer for question. When nothing has been
// extracted yet there is nothing to ground an answer in, so the fixed
// disclosure is returned without a model call.
func (q *QA) Answer(ctx context.Context, c consultation.Consultation, question string) (string, error) {
	if c.Record.Empty() {
		return FallbackAnswer, nil
	}

	payload, err := qaPayload(c, question)
	if err != nil {
		return "", err
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: qaSystemPrompt},
		{Role: llm.RoleUser, Content: payload},
	}

	answer, err := q.client.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("qa: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// qaPayload assembles the user message: record JSON (transcript and history
// excluded to bound payload size and avoid self-reference), rendered prior
// exchanges, then the new question.
func qaPayload(c consultation.Consultation, question string) (string, error) {
	record, err := c.ClinicalRecordJSON()
	if err != nil {
		return "", fmt.Errorf("qa: %w", err)
	}

	var b strings.Builder
	b.WriteString("CONSULTATION JSON:\n")
	b.WriteString(record)
	b.WriteString("\n\n")

	if len(c.QAHistory) > 0 {
		b.WriteString("PREVIOUS Q&A:\n")
		for _, item := range c.QAHistory {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", item.Question, item.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString("QUESTION:\n")
	b.WriteString(question)
	return b.String(), nil
}
