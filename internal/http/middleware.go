package http

import (
	"context"
	"net/http"
	"strings"

	"tutorbook/internal/auth"
	applog "tutorbook/internal/log"
)

type userKey struct{}

// requireUser authenticates with a bearer token, or with a token query
// parameter for websocket upgrades that cannot set headers.
func (s *Server) requireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorBody{Error: "missing bearer token", Code: CodeUnauthorized})
			return
		}
		user, err := s.auth.VerifyToken(token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, user)
		r = applog.Enrich(r.WithContext(ctx), applog.FieldUserID, user.ID)
		next(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if r.URL.Path == "/ws" {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

func userFrom(ctx context.Context) (auth.User, bool) {
	u, ok := ctx.Value(userKey{}).(auth.User)
	return u, ok
}

func userIDFrom(ctx context.Context) string {
	u, _ := userFrom(ctx)
	return u.ID
}
