package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"visualexpr/internal/domain"
	"visualexpr/internal/domain/models"
	"visualexpr/internal/httputil"

	"github.com/golang-jwt/jwt/v5"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeVerifier accepts the tokens "good" for owner "user-1" and "good-2" for
// owner "user-2".
type fakeVerifier struct{}

func (fakeVerifier) VerifyToken(token string) (*models.Claims, error) {
	owners := map[string]string{"good": "user-1", "good-2": "user-2"}
	owner, ok := owners[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return &models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: owner}}, nil
}

func (fakeVerifier) Close() error { return nil }

// echoOwner writes the owner resolved by the auth middleware.
var echoOwner = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, httputil.GetOwnerID(r))
})

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		verifier  bool
		path      string
		header    http.Header
		wantCode  int
		wantOwner string
	}{
		{name: "default owner", path: "/api/workspaces", wantCode: http.StatusOK, wantOwner: "local"},
		{name: "owner header", path: "/api/workspaces", header: http.Header{OwnerHeader: {"alice"}}, wantCode: http.StatusOK, wantOwner: "alice"},
		{name: "health is public", verifier: true, path: "/health", wantCode: http.StatusOK},
		{name: "missing token", verifier: true, path: "/api/workspaces", wantCode: http.StatusUnauthorized},
		{name: "bad token", verifier: true, path: "/api/workspaces", header: http.Header{"Authorization": {"Bearer bad"}}, wantCode: http.StatusUnauthorized},
		{name: "bearer token", verifier: true, path: "/api/workspaces", header: http.Header{"Authorization": {"bearer good"}}, wantCode: http.StatusOK, wantOwner: "user-1"},
		{name: "header ignored with verifier", verifier: true, path: "/api/workspaces", header: http.Header{OwnerHeader: {"alice"}}, wantCode: http.StatusUnauthorized},
		{name: "query token on events", verifier: true, path: "/api/workspaces/1/events?access_token=good", wantCode: http.StatusOK, wantOwner: "user-1"},
		{name: "query token elsewhere", verifier: true, path: "/api/workspaces?access_token=good", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verifier fakeVerifier
			h := AuthMiddleware(nil, "local", discardLogger())(echoOwner)
			if tt.verifier {
				h = AuthMiddleware(verifier, "local", discardLogger())(echoOwner)
			}

			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.header {
				r.Header.Set(k, v[0])
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK && rec.Body.String() != tt.wantOwner {
				t.Errorf("owner = %q, want %q", rec.Body.String(), tt.wantOwner)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workspaces", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Errorf("panic value leaked: %s", rec.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, time.Minute, discardLogger())
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := AuthMiddleware(nil, "local", discardLogger())(rl.Middleware(ok))

	do := func(path, owner, addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		r.RemoteAddr = addr
		r.Header.Set(OwnerHeader, owner)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do("/api/workspaces", "alice", "10.0.0.1:1000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := do("/api/workspaces", "alice", "10.0.0.1:1000")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("third request status = %d, Retry-After %q", rec.Code, rec.Header().Get("Retry-After"))
	}
	// An unverified owner header does not open a new bucket.
	if rec := do("/api/workspaces", "bob", "10.0.0.1:2000"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("same address, other owner header status = %d, want 429", rec.Code)
	}
	if rec := do("/api/workspaces", "alice", "10.0.0.2:1000"); rec.Code != http.StatusOK {
		t.Errorf("other address status = %d, want 200", rec.Code)
	}
	if rec := do("/api/workspaces/1/events", "alice", "10.0.0.1:1000"); rec.Code != http.StatusOK {
		t.Errorf("event stream status = %d, want 200", rec.Code)
	}

	rl.cleanup(time.Now().Add(2 * time.Minute))
	if rec := do("/api/workspaces", "alice", "10.0.0.1:1000"); rec.Code != http.StatusOK {
		t.Errorf("status after cleanup = %d, want 200", rec.Code)
	}
}

func TestRateLimiterVerifiedOwners(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, time.Minute, discardLogger())
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := AuthMiddleware(fakeVerifier{}, "local", discardLogger())(rl.Middleware(ok))

	do := func(token string) int {
		r := httptest.NewRequest(http.MethodGet, "/api/workspaces", nil)
		r.RemoteAddr = "10.0.0.1:1000"
		r.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	if code := do("good"); code != http.StatusOK {
		t.Fatalf("first request status = %d", code)
	}
	if code := do("good"); code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", code)
	}
	if code := do("good-2"); code != http.StatusOK {
		t.Errorf("other verified owner status = %d, want 200", code)
	}
}

func TestCompressionSkipsEventStreams(t *testing.T) {
	body := strings.Repeat("event: expression-changed\ndata: {}\n\n", 200)
	handler := func(contentType string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			io.WriteString(w, body)
		})
	}

	tests := []struct {
		contentType string
		wantGzip    bool
	}{
		{contentType: "application/json", wantGzip: true},
		{contentType: "text/event-stream", wantGzip: false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			h := Compression(5, discardLogger())(handler(tt.contentType))
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Accept-Encoding", "gzip")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			if got := rec.Header().Get("Content-Encoding") == "gzip"; got != tt.wantGzip {
				t.Errorf("gzip = %v, want %v", got, tt.wantGzip)
			}
		})
	}

	if h := Compression(0, discardLogger())(handler("application/json")); h == nil {
		t.Error("Compression(0) returned nil")
	}
}
