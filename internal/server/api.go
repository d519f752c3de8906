package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"consult-listener/internal/consultation"
	"consult-listener/internal/listener"
)

// maxUploadBytes bounds one uploaded utterance. Voice clips are short.
const maxUploadBytes = 10 << 20

var consultationIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type ConsultationService interface {
	HandleUtterance(ctx context.Context, sessionID string, audio []byte, contentType string, forceSummary bool) (listener.UtteranceResult, error)
	AnswerQuestion(ctx context.Context, consultationID, question string) (string, error)
	AnswerVoice(ctx context.Context, consultationID string, audio []byte, contentType string) (listener.QAResult, error)
	Views(consultationID string) (listener.SummaryViews, error)
}

func registerAPIRoutes(mux *http.ServeMux, svc ConsultationService) {
	mux.HandleFunc("POST /api/consultation/voice", func(w http.ResponseWriter, r *http.Request) {
		audio, contentType, ok := readAudioUpload(w, r)
		if !ok {
			return
		}

		sessionID := r.FormValue("session_id")
		forceSummary, _ := strconv.ParseBool(r.FormValue("trigger_summary"))

		result, err := svc.HandleUtterance(r.Context(), sessionID, audio, contentType, forceSummary)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("STT error: %v", err))
			return
		}

		w.Header().Set("X-Session-Id", result.ConsultationID)
		w.Header().Set("X-Consultation-Id", result.ConsultationID)
		w.Header().Set("X-Reply", url.QueryEscape(result.Reply))
		w.Header().Set("Access-Control-Expose-Headers", "X-Session-Id, X-Consultation-Id, X-Reply")
		writeAudio(w, result.Audio)
	})

	mux.HandleFunc("GET /api/consultation/{id}/summary", func(w http.ResponseWriter, r *http.Request) {
		consultationID := r.PathValue("id")
		if !validConsultationID(consultationID) {
			writeJSONError(w, http.StatusForbidden, "invalid consultation id")
			return
		}

		views, err := svc.Views(consultationID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, consultation.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("get summary: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, views)
	})

	mux.HandleFunc("POST /api/consultation/{id}/qa", func(w http.ResponseWriter, r *http.Request) {
		consultationID := r.PathValue("id")
		if !validConsultationID(consultationID) {
			writeJSONError(w, http.StatusForbidden, "invalid consultation id")
			return
		}

		question := r.FormValue("question")
		if question == "" {
			writeJSONError(w, http.StatusBadRequest, "question is required")
			return
		}

		answer, err := svc.AnswerQuestion(r.Context(), consultationID, question)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, consultation.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("answer question: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
	})

	mux.HandleFunc("POST /api/consultation/{id}/qa/voice", func(w http.ResponseWriter, r *http.Request) {
		consultationID := r.PathValue("id")
		if !validConsultationID(consultationID) {
			writeJSONError(w, http.StatusForbidden, "invalid consultation id")
			return
		}

		audio, contentType, ok := readAudioUpload(w, r)
		if !ok {
			return
		}

		result, err := svc.AnswerVoice(r.Context(), consultationID, audio, contentType)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, consultation.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("answer voice question: %v", err))
			return
		}

		w.Header().Set("X-Question", url.QueryEscape(result.Question))
		w.Header().Set("X-Answer", url.QueryEscape(result.Answer))
		w.Header().Set("Access-Control-Expose-Headers", "X-Question, X-Answer")
		writeAudio(w, result.Audio)
	})
}

// readAudioUpload pulls the "audio" part out of a multipart upload. On
// failure it writes the error response itself and reports ok=false.
func readAudioUpload(w http.ResponseWriter, r *http.Request) (audio []byte, contentType string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("parse upload: %v", err))
		return nil, "", false
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "audio file is required")
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("read audio: %v", err))
		return nil, "", false
	}

	contentType = header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}
	return data, contentType, true
}

// writeAudio streams synthesized speech. A nil payload still answers 200:
// synthesis failure is not a request failure, the textual reply travels in
// the headers.
func writeAudio(w http.ResponseWriter, audio []byte) {
	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	if len(audio) > 0 {
		_, _ = w.Write(audio)
	}
}

func validConsultationID(id string) bool {
	return consultationIDPattern.MatchString(id)
}
