package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"consult-listener/internal/consultation"
	"consult-listener/internal/llm"
)

const extractionSystemPrompt = `You are the Extraction Agent in a multi-agent medical consultation system.

You receive the FULL transcript of a doctor-patient visit.
Your job is to extract a clean, structured JSON object with:
- diagnoses (list of strings)
- symptoms (list of strings)
- medications (list of objects with name, dose, frequency, duration, notes)
- tests (list of strings)
- follow_up (string, may be empty)
- lifestyle_advice (list of strings)
- red_flags (list of strings describing "call doctor / ER if..." cases)

Return ONLY valid JSON. Do NOT hallucinate new diagnoses or medications.
If something is unclear, leave the field empty or omit it.`

// Extractor derives the structured clinical record from a full transcript.
// The returned record carries no transcript: callers re-attach the original
// text themselves so model output can never rewrite it.
type Extractor struct {
	client llm.Client
	sleep  func(time.Duration)
}

func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{client: client, sleep: time.Sleep}
}

func (e *Extractor) Extract(ctx context.Context, transcript string) (consultation.Record, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: extractionSystemPrompt},
		{Role: llm.RoleUser, Content: "Transcript:\n" + transcript},
	}

	raw, err := completeWithRetry(ctx, e.client, messages, e.sleep)
	if err != nil {
		return consultation.Record{}, fmt.Errorf("extraction: %w", err)
	}

	var record consultation.Record
	if err := json.Unmarshal([]byte(stripFences(raw)), &record); err != nil {
		return consultation.Record{}, fmt.Errorf("extraction: parse model output: %w", err)
	}
	if err := record.Validate(); err != nil {
		return consultation.Record{}, fmt.Errorf("extraction: invalid record: %w", err)
	}

	return record, nil
}
