package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Strob0t/Karuna/internal/domain"
	"github.com/Strob0t/Karuna/internal/service"
)

// maxReportSize caps an uploaded report.
const maxReportSize = 10 << 20

// AnalyzeReport handles POST /api/report with a multipart "file" field.
func (h *Handlers) AnalyzeReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReportSize)

	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeInternalError(w, r, err, "Failed to process PDF report")
		return
	}
	slog.InfoContext(r.Context(), "report received", "file", hdr.Filename, "size", hdr.Size)

	res, err := h.Reports.Analyze(r.Context(), data)
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "No file uploaded")
	case errors.Is(err, service.ErrNoText):
		writeInternalError(w, r, err, "Failed to extract text from PDF")
	case errors.Is(err, service.ErrAnalysisFailed):
		writeInternalError(w, r, err, "AI analysis failed")
	case errors.Is(err, service.ErrUnparseableResponse):
		writeInternalError(w, r, err, "Failed to parse AI response")
	case err != nil:
		writeInternalError(w, r, err, "Failed to process PDF report")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}
