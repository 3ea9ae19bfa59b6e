package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		prefix string
		path   string
		header string
		want   int
	}{
		{"no keys", nil, "", "/cone_search/any", "", http.StatusOK},
		{"only empty keys", []string{"", ""}, "", "/cone_search/any", "", http.StatusOK},
		{"missing header", []string{"secret"}, "", "/cone_search/any", "", http.StatusUnauthorized},
		{"basic scheme", []string{"secret"}, "", "/catalogs", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"wrong key", []string{"secret"}, "", "/catalogs", "Bearer wrong-key", http.StatusUnauthorized},
		{"valid key", []string{"secret"}, "", "/catalogs", "Bearer secret", http.StatusOK},
		{"second key", []string{"key1", "key2"}, "", "/catalogs", "Bearer key2", http.StatusOK},
		{"health exempt", []string{"secret"}, "", "/health", "", http.StatusOK},
		{"metrics exempt", []string{"secret"}, "", "/metrics", "", http.StatusOK},
		{"health under prefix", []string{"secret"}, "/api/v1", "/api/v1/health", "", http.StatusOK},
		{"metrics under prefix", []string{"secret"}, "/api/v1", "/api/v1/metrics", "", http.StatusOK},
		{"bare health with prefix", []string{"secret"}, "/api/v1", "/health", "", http.StatusUnauthorized},
		{"catalogs under prefix", []string{"secret"}, "/api/v1", "/api/v1/catalogs", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := BearerAuthMiddleware(tt.keys, tt.prefix)(okHandler())

			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("got %d, want %d", rr.Code, tt.want)
			}
			if rr.Code != http.StatusUnauthorized {
				return
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != CodeUnauthorized || errResp.Message == "" {
				t.Errorf("error body = %+v", errResp)
			}
		})
	}
}
