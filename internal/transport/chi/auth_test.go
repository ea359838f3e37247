package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuth_Disabled(t *testing.T) {
	for _, keys := range [][]string{nil, {"", "  "}} {
		handler := BearerAuthMiddleware(keys)(okHandler())

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/collect", http.NoBody))

		if rr.Code != http.StatusOK {
			t.Errorf("keys %q: got %d, want 200", keys, rr.Code)
		}
	}
}

func TestBearerAuth(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"key-ops", "key-ci"})(okHandler())

	tests := []struct {
		name    string
		path    string
		header  string
		want    int
		wantMsg string
	}{
		{"first key", "/api/v1/search", "Bearer key-ops", http.StatusOK, ""},
		{"second key", "/api/v1/collect", "Bearer key-ci", http.StatusOK, ""},
		{"lowercase scheme", "/api/v1/stats", "bearer key-ops", http.StatusOK, ""},
		{"missing header", "/api/v1/search", "", http.StatusUnauthorized, "missing authorization header"},
		{"basic scheme", "/api/v1/search", "Basic dXNlcjpwYXNz", http.StatusUnauthorized,
			"authorization header must use Bearer scheme"},
		{"no token", "/api/v1/search", "Bearer", http.StatusUnauthorized,
			"authorization header must use Bearer scheme"},
		{"unknown key", "/api/v1/queue", "Bearer key-opsX", http.StatusUnauthorized, "invalid api key"},
		{"key prefix", "/api/v1/queue", "Bearer key-", http.StatusUnauthorized, "invalid api key"},
		{"health is public", "/health", "", http.StatusOK, ""},
		{"metrics is public", "/metrics", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("got %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				return
			}

			if rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != ErrorResponseCodeUnauthorized || resp.Message != tt.wantMsg {
				t.Errorf("got %+v, want code=unauthorized message=%q", resp, tt.wantMsg)
			}
		})
	}
}

func TestKeyMatches(t *testing.T) {
	keys := [][]byte{[]byte("alpha"), []byte("beta")}
	for token, want := range map[string]bool{"alpha": true, "beta": true, "gamma": false, "": false, "alph": false} {
		if got := keyMatches(keys, []byte(token)); got != want {
			t.Errorf("keyMatches(%q) = %v, want %v", token, got, want)
		}
	}
}
