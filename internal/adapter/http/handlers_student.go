package http

import (
	"log/slog"
	"net/http"
)

// ListStudents handles GET /api/student
func (h *Handlers) ListStudents(w http.ResponseWriter, r *http.Request) {
	listing, err := h.Students.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "student listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Message: "Server Error", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, listing)
}
