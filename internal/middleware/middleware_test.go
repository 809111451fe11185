package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nuvoor/careadmin/internal/ctxkeys"
	"github.com/nuvoor/careadmin/internal/model"
	"github.com/nuvoor/careadmin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	tokens map[string]*model.User
	err    error
	got    string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	s.got = token
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.tokens[token]
	if !ok {
		return nil, service.ErrUnauthorized
	}
	return user, nil
}

func decodeMsg(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["msg"]
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user != nil {
		_, _ = w.Write([]byte(user.ID))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
}

func TestRequireAuth(t *testing.T) {
	auth := &stubAuthenticator{tokens: map[string]*model.User{"good": {ID: "user-1"}}}
	h := RequireAuth(auth)(http.HandlerFunc(okHandler))

	tests := []struct {
		name    string
		headers map[string]string
		status  int
		body    string
		msg     string
	}{
		{name: "missing token", status: http.StatusUnauthorized, msg: "No token, authorization denied"},
		{name: "x-auth-token", headers: map[string]string{"x-auth-token": "good"}, status: http.StatusOK, body: "user-1"},
		{name: "bearer fallback", headers: map[string]string{"Authorization": "Bearer good"}, status: http.StatusOK, body: "user-1"},
		{name: "basic auth ignored", headers: map[string]string{"Authorization": "Basic good"}, status: http.StatusUnauthorized, msg: "No token, authorization denied"},
		{name: "invalid token", headers: map[string]string{"x-auth-token": "bad"}, status: http.StatusUnauthorized, msg: "Token is not valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, decodeMsg(t, rec))
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			} else {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRequireAuth_LookupFailure(t *testing.T) {
	auth := &stubAuthenticator{err: errors.New("db down")}
	h := RequireAuth(auth)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("x-auth-token", "whatever")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is not valid", decodeMsg(t, rec))
	assert.Equal(t, "whatever", auth.got)
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, nil)
	t.Cleanup(rl.Stop)

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))

	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.Allow("1.1.1.1"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, nil)
	t.Cleanup(rl.Stop)

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("1.1.1.1")

	now = now.Add(2 * time.Minute)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.requests)
}

func TestRateLimiter_Limit(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, nil)
	t.Cleanup(rl.Stop)
	h := rl.Limit(http.HandlerFunc(okHandler))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests. Please try again later.", decodeMsg(t, rec))
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, nil)
	rl.Stop()
	rl.Stop()
}

func TestRateLimiter_IgnoresForwardedHeadersFromUntrustedPeer(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, nil)
	t.Cleanup(rl.Stop)
	h := rl.Limit(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 4)
	for i := range 4 {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.50:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_TrustedProxyKeysOnForwardedClient(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, []string{"10.0.0.0/8"})
	t.Cleanup(rl.Stop)
	h := rl.Limit(http.HandlerFunc(okHandler))

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:4000"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.7"))
	assert.Equal(t, http.StatusOK, send("198.51.100.8"))
	// A spoofed leftmost entry does not change the rightmost untrusted hop
	assert.Equal(t, http.StatusTooManyRequests, send("1.2.3.4, 198.51.100.7"))
}

func TestTrustedProxies_ClientIP(t *testing.T) {
	none := parseTrustedProxies(nil)
	proxies := parseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.10", "not-an-ip", ""})
	require.Len(t, proxies, 2)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:5555"
	assert.Equal(t, "::1", none.clientIP(req))

	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	req.Header.Set("X-Real-IP", "198.51.100.8")
	assert.Equal(t, "203.0.113.9", none.clientIP(req))
	assert.Equal(t, "203.0.113.9", proxies.clientIP(req), "peer is not a trusted proxy")

	req.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", none.clientIP(req))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 198.51.100.7, 192.0.2.10")
	assert.Equal(t, "198.51.100.7", proxies.clientIP(req), "trusted hops are skipped from the right")

	req.Header.Set("X-Forwarded-For", "192.0.2.10, 10.9.9.9")
	assert.Equal(t, "10.1.2.3", proxies.clientIP(req), "all hops trusted falls back to the peer")

	req.Header.Set("X-Forwarded-For", "198.51.100.7, garbage")
	assert.Equal(t, "10.1.2.3", proxies.clientIP(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "198.51.100.8", proxies.clientIP(req))
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type,x-auth-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(okHandler), mark("first"), mark("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())
}
