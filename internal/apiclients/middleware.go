package apiclients

import (
	"net/http"
	"strings"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Authenticate resolves the X-API-Key header ("keyID:secret") into granted
// scopes on the request context. Requests without the header pass through
// untouched so session users are unaffected.
func (s *Service) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		keyID, secret, ok := strings.Cut(raw, ":")
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		client, err := s.Verify(r.Context(), keyID, secret)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		ctx := shared.ContextWithAPIScopes(r.Context(), client.Scopes)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
