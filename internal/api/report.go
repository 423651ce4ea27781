package api

import (
	"net/http"
	"strconv"

	"github.com/ashureev/symcheck/internal/identity"
	"github.com/ashureev/symcheck/internal/report"
)

// Report downloads the last diagnosis of the caller's tab as text or PDF.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())

	d, ok := h.sessions.LastDiagnosis(userID, sessionID)
	if !ok {
		Error(w, http.StatusNotFound, "no diagnosis available")
		return
	}

	var (
		body        []byte
		contentType string
		filename    string
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "txt":
		text, err := report.Format(d)
		if err != nil {
			Error(w, http.StatusNotFound, err.Error())
			return
		}
		body, contentType, filename = []byte(text), "text/plain; charset=utf-8", report.Filename
	case "pdf":
		pdf, err := report.PDF(d, h.fontPaths)
		if err != nil {
			h.logger.Error("Failed to render PDF report", "error", err, "user_id", userID)
			Error(w, http.StatusInternalServerError, "failed to render report")
			return
		}
		body, contentType, filename = pdf, "application/pdf", report.PDFFilename
	default:
		Error(w, http.StatusBadRequest, "format must be txt or pdf")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Debug("Failed to write report", "error", err)
	}
}
