package http

import "net/http"

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := s.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "User signed up", "user_id", session.User.ID)
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleSignOut revokes the presented token and clears the current user.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token, _ := bearerToken(r)
	if err := s.auth.RevokeToken(token); err != nil {
		writeError(w, r, err)
		return
	}
	s.auth.SignOut()
	s.logger.InfoContext(r.Context(), "User signed out", "user_id", userIDFrom(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
