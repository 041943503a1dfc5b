package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/brianhealey/phonebook/internal/models"
)

const (
	// HeaderAPIKey is the request header carrying an API key.
	HeaderAPIKey     = "X-API-Key"
	apiKeyQueryParam = "api-key"
)

type ownerKey struct{}

// OwnerFromContext returns the owner of the key that authenticated the
// request, or "" in open mode.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// Middleware rejects requests without an accepted key, unless the service is
// in open mode. The key is read from the X-API-Key header, then from the
// api-key query parameter (EventSource cannot set headers).
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.IsOpenMode() {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(HeaderAPIKey)
		if key == "" {
			key = r.URL.Query().Get(apiKeyQueryParam)
		}
		if owner, ok := s.Authenticate(key); ok {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
			return
		}

		slog.Debug("auth: request rejected", "remote", r.RemoteAddr, "path", r.URL.Path, "key_present", key != "")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(models.ErrUnauthorized.Status)
		_ = json.NewEncoder(w).Encode(models.ErrUnauthorized)
	})
}
