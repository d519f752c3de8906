package consultation

import (
	"encoding/json"
	"fmt"
)

// Medication is one prescribed or discussed medicine. Only the name is
// mandatory; dosing details stay empty when the visit did not cover them.
type Medication struct {
	Name      string `json:"name"`
	Dose      string `json:"dose,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// QAItem is one follow-up exchange. Items are immutable once appended.
type QAItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Record holds the structured clinical fields derived from the transcript.
// Every successful extraction replaces the whole Record, never parts of it,
// so the fields always reflect a single transcript snapshot.
type Record struct {
	Diagnoses       []string     `json:"diagnoses"`
	Symptoms        []string     `json:"symptoms"`
	Medications     []Medication `json:"medications"`
	Tests           []string     `json:"tests"`
	FollowUp        string       `json:"follow_up,omitempty"`
	LifestyleAdvice []string     `json:"lifestyle_advice"`
	RedFlags        []string     `json:"red_flags"`
}

// Empty reports whether no structured fact has been extracted yet.
func (r Record) Empty() bool {
	return len(r.Diagnoses) == 0 &&
		len(r.Symptoms) == 0 &&
		len(r.Medications) == 0 &&
		len(r.Tests) == 0 &&
		r.FollowUp == "" &&
		len(r.LifestyleAdvice) == 0 &&
		len(r.RedFlags) == 0
}

// Validate rejects records that do not satisfy the schema. A medication
// without a name is the one hard constraint.
func (r Record) Validate() error {
	for i, m := range r.Medications {
		if m.Name == "" {
			return fmt.Errorf("medication %d has no name", i)
		}
	}
	return nil
}

func (r Record) clone() Record {
	out := r
	out.Diagnoses = append([]string(nil), r.Diagnoses...)
	out.Symptoms = append([]string(nil), r.Symptoms...)
	out.Medications = append([]Medication(nil), r.Medications...)
	out.Tests = append([]string(nil), r.Tests...)
	out.LifestyleAdvice = append([]string(nil), r.LifestyleAdvice...)
	out.RedFlags = append([]string(nil), r.RedFlags...)
	return out
}

// Consultation is the full per-session state: the raw transcript, the
// structured record derived from it, both audience notes, and the follow-up
// Q&A history.
type Consultation struct {
	PatientName string `json:"patient_name,omitempty"`
	VisitDate   string `json:"visit_date,omitempty"`
	Record
	NotesForDoctor  string   `json:"notes_for_doctor,omitempty"`
	NotesForPatient string   `json:"notes_for_patient,omitempty"`
	RawTranscript   string   `json:"raw_transcript,omitempty"`
	QAHistory       []QAItem `json:"qa_history"`
}

// Clone returns a deep copy so callers can hand state across goroutines
// without aliasing the registry's slices.
func (c Consultation) Clone() Consultation {
	out := c
	out.Record = c.Record.clone()
	out.QAHistory = append([]QAItem(nil), c.QAHistory...)
	return out
}

// clinicalPayload is the agent-facing serialization of a consultation: the
// structured record plus identity fields, with the raw transcript, the notes
// and the Q&A history deliberately left out. Summaries and answers are
// grounded in extracted facts only.
type clinicalPayload struct {
	PatientName string `json:"patient_name,omitempty"`
	VisitDate   string `json:"visit_date,omitempty"`
	Record
}

// ClinicalRecordJSON serializes the structured record for agent prompts.
func (c Consultation) ClinicalRecordJSON() (string, error) {
	payload := clinicalPayload{
		PatientName: c.PatientName,
		VisitDate:   c.VisitDate,
		Record:      c.Record,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal clinical record: %w", err)
	}
	return string(data), nil
}
