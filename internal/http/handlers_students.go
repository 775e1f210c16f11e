package http

import (
	"bytes"
	"mime"
	"net/http"

	"tutorbook/internal/report"
)

func (s *Server) handleStudentPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.books.StudentHistory(r.Context(), userIDFrom(r.Context()), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	doc, err := s.books.Invoice(r.Context(), userIDFrom(r.Context()), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		report.InvoiceDocument
		Layout   []report.PositionedText `json:"layout"`
		FileName string                  `json:"fileName"`
	}{doc, doc.Layout(), report.InvoiceFileName(doc.StudentName, "pdf")})
}

// handleInvoiceXLSX renders into memory first so a render failure can still
// produce a JSON error.
func (s *Server) handleInvoiceXLSX(w http.ResponseWriter, r *http.Request) {
	doc, err := s.books.Invoice(r.Context(), userIDFrom(r.Context()), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := report.RenderInvoiceXLSX(doc, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", report.XLSXContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": report.InvoiceFileName(doc.StudentName, "xlsx"),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	link, err := s.books.InvoiceLink(r.Context(), userIDFrom(r.Context()), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}
