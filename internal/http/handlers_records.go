package http

import "net/http"

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := req.record()
	if err != nil {
		writeError(w, r, err)
		return
	}
	stored, err := s.books.RecordPayment(r.Context(), userIDFrom(r.Context()), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := req.record()
	if err != nil {
		writeError(w, r, err)
		return
	}
	stored, err := s.books.RecordExpense(r.Context(), userIDFrom(r.Context()), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}
