package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Hub fans pipeline events out to connected websocket clients. Slow
// clients drop messages instead of blocking the pipeline.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *Hub) BroadcastSessionStarted(consultationID string) {
	h.broadcastEvent(SessionStartedEvent{
		Event:          newEvent("session_started", time.Now().UTC()),
		ConsultationID: consultationID,
	})
}

func (h *Hub) BroadcastTranscriptAppended(consultationID, text string) {
	h.broadcastEvent(TranscriptAppendedEvent{
		Event:          newEvent("transcript_appended", time.Now().UTC()),
		ConsultationID: consultationID,
		Text:           text,
	})
}

func (h *Hub) BroadcastSummaryReady(consultationID string, doctorReady, patientReady bool) {
	h.broadcastEvent(SummaryReadyEvent{
		Event:          newEvent("summary_ready", time.Now().UTC()),
		ConsultationID: consultationID,
		DoctorReady:    doctorReady,
		PatientReady:   patientReady,
	})
}

func (h *Hub) BroadcastQAAnswered(consultationID, question, answer string) {
	h.broadcastEvent(QAAnsweredEvent{
		Event:          newEvent("qa_answered", time.Now().UTC()),
		ConsultationID: consultationID,
		Question:       question,
		Answer:         answer,
	})
}

func (h *Hub) broadcastEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}
	h.Broadcast(payload)
}
