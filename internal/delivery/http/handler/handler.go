package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/user/listing-risk-service/internal/delivery/http/request"
	"github.com/user/listing-risk-service/internal/delivery/http/response"
	"github.com/user/listing-risk-service/internal/repository"
	"github.com/user/listing-risk-service/internal/usecase"
)

type Handler struct {
	analyzer usecase.Analyzer
	sessions *usecase.SessionManager
}

func NewHandler(analyzer usecase.Analyzer, sessions *usecase.SessionManager) *Handler {
	return &Handler{
		analyzer: analyzer,
		sessions: sessions,
	}
}

func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req request.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := url.ParseRequestURI(req.URL); err != nil {
		h.writeJSONError(w, "Invalid URL format", http.StatusBadRequest)
		return
	}

	verdict, err := h.analyzer.AnalyzeURL(r.Context(), req.URL, req.Force)
	if err != nil {
		h.writeAnalysisError(w, req.URL, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewVerdictResponse(verdict))
}

func (h *Handler) HandleGetVerdict(w http.ResponseWriter, r *http.Request) {
	subjectID := r.URL.Query().Get("subject")
	if subjectID == "" {
		h.writeJSONError(w, "subject query parameter is required", http.StatusBadRequest)
		return
	}

	verdict, err := h.analyzer.LookupVerdict(r.Context(), subjectID)
	if err != nil {
		if errors.Is(err, usecase.ErrVerdictNotFound) {
			h.writeJSONError(w, "No verdict recorded for subject", http.StatusNotFound)
			return
		}
		slog.Error("Failed to look up verdict", "subject", subjectID, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewVerdictResponse(verdict))
}

func (h *Handler) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req request.OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := url.ParseRequestURI(req.URL); err != nil {
		h.writeJSONError(w, "Invalid URL format", http.StatusBadRequest)
		return
	}

	info, err := h.sessions.Open(r.Context(), req.URL)
	if err != nil {
		slog.Error("Failed to open watch session", "url", req.URL, "error", err)
		h.writeJSONError(w, "Failed to open watch session", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusCreated, response.NewSessionResponse(info))
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	infos := h.sessions.List()
	resp := make([]response.SessionResponse, 0, len(infos))
	for _, info := range infos {
		resp = append(resp, response.NewSessionResponse(info))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, err := h.sessions.Get(id)
	if err != nil {
		h.writeJSONError(w, "Session not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, response.NewSessionResponse(info))
}

func (h *Handler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Close(id); err != nil {
		h.writeJSONError(w, "Session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeAnalysisError(w http.ResponseWriter, rawURL string, err error) {
	switch {
	case errors.Is(err, repository.ErrNoSubject):
		h.writeJSONError(w, "Page holds no recognizable listing", http.StatusUnprocessableEntity)
	case errors.Is(err, repository.ErrRequestRejected):
		h.writeJSONError(w, "Scoring service rejected the request", http.StatusBadGateway)
	case errors.Is(err, repository.ErrScoringExhausted):
		h.writeJSONError(w, "Scoring service unavailable", http.StatusGatewayTimeout)
	default:
		slog.Error("Failed to analyze listing", "url", rawURL, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
