package agents

import (
	"context"
	"fmt"
	"time"

	"consult-listener/internal/consultation"
	"consult-listener/internal/llm"
)

const patientSystemPrompt = `You are the Patient Summary Agent.

Input: a structured JSON describing a medical consultation.
Output: a short, plain-language summary for the patient at about 8th-grade level.

Format:
- One short paragraph explaining the main problem and diagnosis.
- A bullet list "How to take your medicines".
- A bullet list "Things to watch out for".
- A sentence about the next follow-up or tests.

Do NOT add new medications, diagnoses or advice that are not in the JSON.
If something is missing, say "This part was not clearly discussed, please confirm with your doctor."`

const doctorSystemPrompt = `You are the Doctor Summary Agent.

Input: structured JSON of a consultation.
Output: a concise clinical note suitable to copy into an EHR.

Use a SOAP-style structure:
- Subjective:
- Assessment:
- Plan:

Include medications (name, dose, frequency, duration) and follow-up.
Do NOT invent data that is not in the JSON.`

// Summarizer renders the two audience notes from the structured record.
// Both notes read the same serialized payload, which excludes the raw
// transcript so extraction-time filtering is respected.
type Summarizer struct {
	client llm.Client
	sleep  func(time.Duration)
}

func NewSummarizer(client llm.Client) *Summarizer {
	return &Summarizer{client: client, sleep: time.Sleep}
}

func (s *Summarizer) PatientNote(ctx context.Context, c consultation.Consultation) (string, error) {
	return s.note(ctx, c, patientSystemPrompt, "patient summary")
}

func (s *Summarizer) DoctorNote(ctx context.Context, c consultation.Consultation) (string, error) {
	return s.note(ctx, c, doctorSystemPrompt, "doctor summary")
}

func (s *Summarizer) note(ctx context.Context, c consultation.Consultation, systemPrompt, kind string) (string, error) {
	payload, err := c.ClinicalRecordJSON()
	if err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: payload},
	}

	result, err := completeWithRetry(ctx, s.client, messages, s.sleep)
	if err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}
	return result, nil
}
