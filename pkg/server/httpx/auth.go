package httpx

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vulntor/stackscan/pkg/config"
	"github.com/vulntor/stackscan/pkg/server/api"
)

// publicPaths are served without a token whatever the auth mode: the usage
// page, the legacy detect endpoint and the probes.
var publicPaths = map[string]bool{
	"/":        true,
	"/status":  true,
	"/detect":  true,
	"/healthz": true,
	"/readyz":  true,
}

// Auth returns a middleware guarding the /api/v1 surface.
//
// With server.auth.mode=token a request outside publicPaths must carry
// "Authorization: Bearer <server.auth.token>". Mode none lets everything
// through. Any other mode rejects protected paths.
func Auth(cfg config.ServerConfig) func(http.Handler) http.Handler {
	mode, want := cfg.Auth.Mode, []byte(cfg.Auth.Token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mode == "none" || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if reason := checkToken(mode, want, r); reason != "" {
				log.Warn().
					Str("component", "auth").
					Str("mode", mode).
					Str("path", r.URL.Path).
					Msg(reason)
				api.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized", reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkToken returns why r is rejected, or "" when it may proceed.
func checkToken(mode string, want []byte, r *http.Request) string {
	if mode != "token" {
		return "Authentication configuration error"
	}
	got := bearerToken(r.Header.Get("Authorization"))
	switch {
	case got == "":
		return "Missing authorization header"
	case subtle.ConstantTimeCompare([]byte(got), want) != 1:
		return "Invalid token"
	}
	return ""
}

// bearerToken extracts the credential of an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
