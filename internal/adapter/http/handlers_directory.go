package http

import (
	"errors"
	"net/http"

	"github.com/Strob0t/Karuna/internal/domain"
	"github.com/Strob0t/Karuna/internal/domain/directory"
)

// ListDoctors handles GET /api/data/docs
func (h *Handlers) ListDoctors(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Directory.ListDoctors(r.Context())
	if err != nil {
		writeInternalError(w, r, err, "Failed to fetch doctors")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(docs))
}

// ListHospitals handles GET /api/data/hospitals
func (h *Handlers) ListHospitals(w http.ResponseWriter, r *http.Request) {
	hospitals, err := h.Directory.ListHospitals(r.Context())
	if err != nil {
		writeInternalError(w, r, err, "Failed to fetch hospitals")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(hospitals))
}

// SearchDoctors handles POST /api/data/docs
func (h *Handlers) SearchDoctors(w http.ResponseWriter, r *http.Request) {
	q, err := readJSON[directory.NameQuery](w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	docs, err := h.Directory.SearchDoctors(r.Context(), q.Name)
	if err != nil {
		writeInternalError(w, r, err, "Failed to search doctors")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(docs))
}

// SearchHospitals handles POST /api/data/hospitals
func (h *Handlers) SearchHospitals(w http.ResponseWriter, r *http.Request) {
	q, err := readJSON[directory.NameQuery](w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	hospitals, err := h.Directory.SearchHospitals(r.Context(), q.Name)
	if err != nil {
		writeInternalError(w, r, err, "Failed to search hospitals")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(hospitals))
}

// DoctorsBySpecialization handles POST /api/data/search
func (h *Handlers) DoctorsBySpecialization(w http.ResponseWriter, r *http.Request) {
	q, err := readJSON[directory.SpecializationQuery](w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	docs, err := h.Directory.DoctorsBySpecialization(r.Context(), q.Specialization)
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, "Specialization is required")
		return
	}
	if err != nil {
		writeInternalError(w, r, err, "Failed to fetch doctors by specialization")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(docs))
}

// nonNil makes an empty result encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
