package rest

import (
	"context"
	"net/http"
	"strings"
)

type ownerKey struct{}

// withOwner stores the authenticated owner in the context
func withOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner set by the auth middleware
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

// authMiddleware resolves "Authorization: Bearer <token>" against the token table.
// Every holding, target and report is scoped to the resolved owner.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			s.writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			token = header
		}
		token = strings.TrimSpace(token)

		owner, ok := s.tokens[token]
		if !ok || token == "" {
			s.log.Warn().Str("path", r.URL.Path).Msg("Rejected request with invalid token")
			s.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), owner)))
	})
}

// ownerOf returns the authenticated owner; routes behind authMiddleware always have one
func ownerOf(r *http.Request) string {
	o, _ := OwnerFromContext(r.Context())
	return o
}
