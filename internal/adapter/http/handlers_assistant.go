package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Strob0t/Karuna/internal/domain"
	"github.com/Strob0t/Karuna/internal/domain/chat"
	"github.com/Strob0t/Karuna/internal/domain/diagnosis"
	"github.com/Strob0t/Karuna/internal/service"
)

// Diagnose handles POST /api/diagnosis
func (h *Handlers) Diagnose(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[diagnosis.Request](w, r)
	symptoms, ok := req.Symptoms.(string)
	if err != nil || !ok || strings.TrimSpace(symptoms) == "" {
		writeError(w, http.StatusBadRequest, "Invalid symptoms input")
		return
	}

	res, err := h.Diagnosis.Diagnose(r.Context(), symptoms)
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "Invalid symptoms input")
	case errors.Is(err, service.ErrUnparseableResponse):
		writeInternalError(w, r, err, "Failed to parse AI response")
	case err != nil:
		writeInternalError(w, r, err, "Failed to generate diagnosis")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// StartChat handles POST /api/chat/start
func (h *Handlers) StartChat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chat.StartResponse{SessionID: h.Chat.Start(r.Context())})
}

// SendChat handles POST /api/chat/send
func (h *Handlers) SendChat(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON[chat.SendRequest](w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	reply, err := h.Chat.Send(r.Context(), req.SessionID, req.Message)
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "Missing fields")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	case err != nil:
		writeInternalError(w, r, err, "Error processing request")
	default:
		writeJSON(w, http.StatusOK, chat.SendResponse{Reply: reply})
	}
}
