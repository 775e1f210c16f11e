package http

import "net/http"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.dashboard.Snapshot(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleChart renders Chart.js configs; ?width= selects line or bar.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	charts, err := s.dashboard.Charts(r.Context(), userIDFrom(r.Context()), parseWidth(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, charts)
}
