package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"nuance/internal/correction"
	"nuance/internal/dialogue"
	"nuance/pkg/nuancetypes"
)

const maxBodyBytes = 1 << 20

type startRequest struct {
	SessionID string  `json:"session_id"`
	Mood      *string `json:"mood"`
}

type replyRequest struct {
	SessionID string `json:"session_id"`
	UserInput string `json:"user_input"`
}

type articleRequest struct {
	SessionID string `json:"session_id"`
	Mood      string `json:"mood"`
}

type analyzeRequest struct {
	ConversationData *[]nuancetypes.TranscriptEntry `json:"conversation_data"`
	SessionID        string                         `json:"session_id"`
}

type errorResponse struct {
	Error       string               `json:"error"`
	RawResponse string               `json:"raw_response,omitempty"`
	Details     *nuancetypes.Article `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) timestamp() string {
	return s.Now().Format(time.RFC3339)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "conversation-api"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Mood == nil {
		writeError(w, http.StatusBadRequest, "Missing mood")
		return
	}
	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = s.NewID()
	}

	result := s.deps.Orchestrator.StartSession(r.Context(), id, *req.Mood)
	if result.Code == nuancetypes.CodeSessionExists {
		writeJSON(w, http.StatusConflict, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.UserInput == "" {
		writeError(w, http.StatusBadRequest, "Missing session_id or user_input")
		return
	}

	result := s.deps.Orchestrator.UserReply(r.Context(), req.SessionID, req.UserInput)
	if result.Code == nuancetypes.CodeSessionInvalid {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	writeJSON(w, http.StatusOK, historyPayload(id, s.deps.Orchestrator))
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.deps.Orchestrator.CleanupSession(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "session_id": id})
}

func (s *Server) handleGenerateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: session_id, mood")
		return
	}

	transcript := correction.TranscriptFromHistory(s.deps.Orchestrator.GetHistory(req.SessionID))
	if len(transcript) == 0 {
		writeError(w, http.StatusNotFound, "No conversation history found")
		return
	}
	mood := req.Mood
	if strings.TrimSpace(mood) == "" {
		mood = s.deps.Orchestrator.Mood(req.SessionID)
	}

	result := s.deps.Polisher.Polish(r.Context(), transcript, mood)
	if result.Status != nuancetypes.ArticleSuccess {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: result.Error, Details: &result})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":   req.SessionID,
		"article":      result.Article,
		"word_count":   result.WordCount,
		"generated_at": s.timestamp(),
	})
}

func (s *Server) handleAnalyzeWriting(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		result nuancetypes.CorrectionResult
		err    error
	)
	switch {
	case req.ConversationData != nil:
		result, err = s.deps.Analyzer.AnalyzeTranscript(r.Context(), *req.ConversationData)
	case req.SessionID != "":
		result, err = s.deps.Analyzer.AnalyzeSession(r.Context(), s.deps.Orchestrator.GetHistory(req.SessionID))
	default:
		writeError(w, http.StatusBadRequest, "Must provide either conversation_data or session_id")
		return
	}

	if err != nil {
		var unparseable *correction.UnparseableError
		switch {
		case errors.Is(err, correction.ErrNoHistory):
			writeError(w, http.StatusNotFound, "No conversation history found")
		case errors.As(err, &unparseable):
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:       correction.ErrResponseUnparseable.Error(),
				RawResponse: unparseable.Raw,
			})
		default:
			s.log.Error("Writing analysis failed", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"analysis":    result,
		"analyzed_at": s.timestamp(),
	})
}

type historyResponse struct {
	SessionID string                     `json:"session_id"`
	History   []nuancetypes.HistoryEntry `json:"history"`
	EndedBy   nuancetypes.EndReason      `json:"ended_by,omitempty"`
}

func historyPayload(id string, o *dialogue.Orchestrator) historyResponse {
	return historyResponse{
		SessionID: id,
		History:   o.GetHistory(id),
		EndedBy:   o.EndedBy(id),
	}
}
