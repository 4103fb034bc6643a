package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/Karuna/internal/domain"
	"github.com/Strob0t/Karuna/internal/domain/medicine"
)

type medicineResponse struct {
	Success bool               `json:"success"`
	Data    *medicine.Medicine `json:"data"`
}

// ListMedicines handles GET /api/medicine
func (h *Handlers) ListMedicines(w http.ResponseWriter, r *http.Request) {
	meds, err := h.Medicines.List(r.Context())
	if errors.Is(err, domain.ErrNotFound) {
		writeStatus(w, http.StatusNotFound, false, "No medicines found in the database")
		return
	}
	if err != nil {
		writeMedicineFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[medicine.Medicine]{Success: true, Count: len(meds), Data: meds})
}

// MatchPrescription handles POST /api/medicine
func (h *Handlers) MatchPrescription(w http.ResponseWriter, r *http.Request) {
	q, err := readJSON[medicine.PrescriptionQuery](w, r)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, false, "Valid prescription array is required")
		return
	}
	meds, err := h.Medicines.MatchPrescription(r.Context(), q.Prescription)
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeStatus(w, http.StatusBadRequest, false, "Valid prescription array is required")
	case errors.Is(err, domain.ErrNotFound):
		writeStatus(w, http.StatusNotFound, false, "No medicines found for the given prescription")
	case err != nil:
		writeMedicineFailure(w, r, err)
	default:
		writeJSON(w, http.StatusOK, listResponse[medicine.Medicine]{Success: true, Count: len(meds), Data: meds})
	}
}

// GetMedicine handles GET /api/medicine/{id}
func (h *Handlers) GetMedicine(w http.ResponseWriter, r *http.Request) {
	m, err := h.Medicines.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeStatus(w, http.StatusBadRequest, false, "Invalid medicine id")
	case errors.Is(err, domain.ErrNotFound):
		writeStatus(w, http.StatusNotFound, false, "Medicine not found")
	case err != nil:
		writeMedicineFailure(w, r, err)
	default:
		writeJSON(w, http.StatusOK, medicineResponse{Success: true, Data: m})
	}
}

func writeMedicineFailure(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "medicine request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, statusResponse{
		Message: "Internal server error",
		Error:   err.Error(),
	})
}
