package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// publicPaths bypass authentication so probes and scrapers need no key.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware requires "Authorization: Bearer <key>" on every
// non-public route. No configured keys disables authentication.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if msg := checkBearer(keys, r.Header.Get("Authorization")); msg != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="sigdex"`)
				writeError(w, http.StatusUnauthorized, ErrorResponseCodeUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkBearer returns the rejection message, or "" when the header carries a known key.
// The scheme name is case-insensitive.
func checkBearer(keys [][]byte, header string) string {
	if header == "" {
		return "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "authorization header must use Bearer scheme"
	}
	if !keyMatches(keys, []byte(strings.TrimSpace(token))) {
		return "invalid api key"
	}
	return ""
}

// keyMatches compares in constant time against every configured key.
func keyMatches(keys [][]byte, token []byte) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(k, token)
	}
	return match == 1
}
