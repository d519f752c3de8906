package server

import "time"

const EventVersion = 1

type Event struct {
	Type      string `json:"type"`
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
}

type SessionStartedEvent struct {
	Event
	ConsultationID string `json:"consultation_id"`
}

type TranscriptAppendedEvent struct {
	Event
	ConsultationID string `json:"consultation_id"`
	Text           string `json:"text"`
}

type SummaryReadyEvent struct {
	Event
	ConsultationID string `json:"consultation_id"`
	DoctorReady    bool   `json:"doctor_ready"`
	PatientReady   bool   `json:"patient_ready"`
}

type QAAnsweredEvent struct {
	Event
	ConsultationID string `json:"consultation_id"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
}

type ConnectionEvent struct {
	Event
	Connected bool `json:"connected"`
}

func newEvent(eventType string, now time.Time) Event {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return Event{
		Type:      eventType,
		Version:   EventVersion,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
