// Package listener orchestrates the consultation pipeline: speech in,
// transcript accumulation, trigger policy, the agent cascade, speech out.
// Agent failures degrade (prior state stands, fallback text is spoken);
// only identifier resolution and transcription fail the whole request.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"consult-listener/internal/consultation"
)

// Fixed spoken replies from the listening flow.
const (
	summarizedReply = "Okay, I've summarized your visit. You can see the doctor and patient views on the screen. You can also ask me questions about your visit."
	listeningReply  = "I'm listening. You can continue, or say 'we are done, please summarize' when ready."
	apologyReply    = "I'm sorry, I couldn't process that question. Please try again."
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Extractor interface {
	Extract(ctx context.Context, transcript string) (consultation.Record, error)
}

type NoteWriter interface {
	PatientNote(ctx context.Context, c consultation.Consultation) (string, error)
	DoctorNote(ctx context.Context, c consultation.Consultation) (string, error)
}

type Answerer interface {
	Answer(ctx context.Context, c consultation.Consultation, question string) (string, error)
}

type EventBroadcaster interface {
	BroadcastSessionStarted(consultationID string)
	BroadcastTranscriptAppended(consultationID, text string)
	BroadcastSummaryReady(consultationID string, doctorReady, patientReady bool)
	BroadcastQAAnswered(consultationID, question, answer string)
}

// Archiver receives the finished visit record after a summarization pass.
// Delivery is best effort and never blocks the reply.
type Archiver interface {
	Archive(consultationID string, c consultation.Consultation) error
}

type Listener struct {
	registry  *consultation.Registry
	stt       Transcriber
	tts       Synthesizer
	extractor Extractor
	notes     NoteWriter
	qa        Answerer
	hub       EventBroadcaster
	archiver  Archiver
}

// New builds the pipeline. hub and archiver may be nil.
func New(registry *consultation.Registry, stt Transcriber, tts Synthesizer, extractor Extractor, notes NoteWriter, qa Answerer, hub EventBroadcaster, archiver Archiver) *Listener {
	return &Listener{
		registry:  registry,
		stt:       stt,
		tts:       tts,
		extractor: extractor,
		notes:     notes,
		qa:        qa,
		hub:       hub,
		archiver:  archiver,
	}
}

type UtteranceResult struct {
	ConsultationID string
	Transcript     string
	Reply          string
	Audio          []byte
	Summarized     bool
}

// HandleUtterance runs the listening flow for one uploaded utterance.
// Transcription failures are hard errors; everything downstream degrades.
func (l *Listener) HandleUtterance(ctx context.Context, sessionID string, audio []byte, contentType string, forceSummary bool) (UtteranceResult, error) {
	consultationID, created := l.registry.Resolve(sessionID)
	if created && l.hub != nil {
		l.hub.BroadcastSessionStarted(consultationID)
	}

	text, err := l.stt.Transcribe(ctx, audio, contentType)
	if err != nil {
		return UtteranceResult{}, fmt.Errorf("transcribe utterance: %w", err)
	}

	if _, err := l.registry.Append(consultationID, text); err != nil {
		return UtteranceResult{}, err
	}
	if l.hub != nil {
		l.hub.BroadcastTranscriptAppended(consultationID, text)
	}

	result := UtteranceResult{
		ConsultationID: consultationID,
		Transcript:     text,
		Reply:          listeningReply,
	}

	if consultation.ShouldSummarize(text, forceSummary) {
		l.summarize(ctx, consultationID)
		result.Reply = summarizedReply
		result.Summarized = true
	}

	result.Audio = l.synthesize(ctx, result.Reply)
	return result, nil
}

// summarize runs extraction and then both summary agents. Extraction
// commits before either note agent reads the record; the two notes run
// concurrently and commit independently.
func (l *Listener) summarize(ctx context.Context, consultationID string) {
	snapshot, err := l.registry.WithSession(consultationID, func(c *consultation.Consultation) error {
		if strings.TrimSpace(c.RawTranscript) == "" {
			return nil
		}
		record, err := l.extractor.Extract(ctx, c.RawTranscript)
		if err != nil {
			return err
		}
		c.Record = record
		return nil
	})
	if err != nil {
		// Stale-but-valid record beats no reply: the note agents still
		// run against whatever was extracted last.
		slog.Warn("extraction failed, keeping previous record", "consultation_id", consultationID, "error", err)
	}

	var wg sync.WaitGroup
	var doctorReady, patientReady bool

	wg.Add(2)
	go func() {
		defer wg.Done()
		doctorReady = l.commitNote(ctx, consultationID, snapshot, "doctor", l.notes.DoctorNote, func(c *consultation.Consultation, note string) {
			c.NotesForDoctor = note
		})
	}()
	go func() {
		defer wg.Done()
		patientReady = l.commitNote(ctx, consultationID, snapshot, "patient", l.notes.PatientNote, func(c *consultation.Consultation, note string) {
			c.NotesForPatient = note
		})
	}()
	wg.Wait()

	if l.hub != nil {
		l.hub.BroadcastSummaryReady(consultationID, doctorReady, patientReady)
	}

	if l.archiver != nil {
		if final, err := l.registry.Get(consultationID); err == nil {
			if err := l.archiver.Archive(consultationID, final); err != nil {
				slog.Warn("archive visit note failed", "consultation_id", consultationID, "error", err)
			}
		}
	}
}

func (l *Listener) commitNote(
	ctx context.Context,
	consultationID string,
	snapshot consultation.Consultation,
	side string,
	generate func(context.Context, consultation.Consultation) (string, error),
	assign func(*consultation.Consultation, string),
) bool {
	note, err := generate(ctx, snapshot)
	if err != nil {
		slog.Warn("summary agent failed, keeping previous note", "side", side, "consultation_id", consultationID, "error", err)
		return false
	}

	if _, err := l.registry.WithSession(consultationID, func(c *consultation.Consultation) error {
		assign(c, note)
		return nil
	}); err != nil {
		slog.Warn("commit note failed", "side", side, "consultation_id", consultationID, "error", err)
		return false
	}
	return true
}

// AnswerQuestion answers one follow-up question and appends the exchange to
// the Q&A history. An unknown consultation is a hard error; an agent
// failure degrades to an apology that is NOT recorded in history.
func (l *Listener) AnswerQuestion(ctx context.Context, consultationID, question string) (string, error) {
	var answer string
	_, err := l.registry.WithSession(consultationID, func(c *consultation.Consultation) error {
		a, err := l.qa.Answer(ctx, c.Clone(), question)
		if err != nil {
			return err
		}
		answer = a
		c.QAHistory = append(c.QAHistory, consultation.QAItem{Question: question, Answer: a})
		return nil
	})
	if err != nil {
		if errors.Is(err, consultation.ErrNotFound) {
			return "", err
		}
		slog.Warn("qa agent failed", "consultation_id", consultationID, "error", err)
		return apologyReply, nil
	}

	if l.hub != nil {
		l.hub.BroadcastQAAnswered(consultationID, question, answer)
	}
	return answer, nil
}

type QAResult struct {
	Question string
	Answer   string
	Audio    []byte
}

// AnswerVoice is the spoken variant: transcribe the question, answer it,
// synthesize the reply.
func (l *Listener) AnswerVoice(ctx context.Context, consultationID string, audio []byte, contentType string) (QAResult, error) {
	if _, err := l.registry.Get(consultationID); err != nil {
		return QAResult{}, err
	}

	question, err := l.stt.Transcribe(ctx, audio, contentType)
	if err != nil {
		return QAResult{}, fmt.Errorf("transcribe question: %w", err)
	}

	answer, err := l.AnswerQuestion(ctx, consultationID, question)
	if err != nil {
		return QAResult{}, err
	}

	return QAResult{
		Question: question,
		Answer:   answer,
		Audio:    l.synthesize(ctx, answer),
	}, nil
}

type SummaryViews struct {
	ConsultationID string `json:"consultation_id"`
	DoctorView     string `json:"doctor_view"`
	PatientView    string `json:"patient_view"`
	RawTranscript  string `json:"raw_transcript"`
}

// Views returns the current doctor and patient notes plus the raw
// transcript for display.
func (l *Listener) Views(consultationID string) (SummaryViews, error) {
	c, err := l.registry.Get(consultationID)
	if err != nil {
		return SummaryViews{}, err
	}
	return SummaryViews{
		ConsultationID: consultationID,
		DoctorView:     c.NotesForDoctor,
		PatientView:    c.NotesForPatient,
		RawTranscript:  c.RawTranscript,
	}, nil
}

// synthesize converts reply text to audio, degrading to no audio on any
// failure. The textual reply is still useful on its own.
func (l *Listener) synthesize(ctx context.Context, text string) []byte {
	if l.tts == nil {
		return nil
	}
	audio, err := l.tts.Synthesize(ctx, text)
	if err != nil {
		slog.Warn("speech synthesis failed, returning text only", "error", err)
		return nil
	}
	return audio
}
