package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type upstream struct {
	server *httptest.Server
	hits   atomic.Int64

	lastMethod string
	lastPath   string
	lastBody   string
	lastHeader http.Header
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()

	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.lastMethod = r.Method
		u.lastPath = r.URL.Path
		u.lastHeader = r.Header.Clone()

		body, _ := io.ReadAll(r.Body)
		u.lastBody = string(body)

		w.Header().Set("Access-Control-Allow-Origin", "https://upstream.example")
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(u.server.Close)

	return u
}

func newTestServer(t *testing.T, u *upstream, origins []string) *Server {
	t.Helper()

	s, err := New(u.server.URL, origins, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestRelay_ForwardsUnderPrefix(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u, nil)

	req := httptest.NewRequest(http.MethodPost, "/relay/token/salt?x=1", strings.NewReader(`{"creator":"0xabc"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Referer", "https://app.example/page")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if got := u.hits.Load(); got != 1 {
		t.Fatalf("upstream hits = %d, want 1", got)
	}
	if u.lastMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", u.lastMethod)
	}
	if u.lastPath != "/token/salt" {
		t.Errorf("path = %s, want /token/salt (prefix stripped)", u.lastPath)
	}
	if u.lastBody != `{"creator":"0xabc"}` {
		t.Errorf("body = %q, not forwarded verbatim", u.lastBody)
	}

	// Hop-sensitive headers must not reach the upstream.
	for _, h := range []string{"Origin", "Referer"} {
		if v := u.lastHeader.Get(h); v != "" {
			t.Errorf("%s header leaked to upstream: %q", h, v)
		}
	}
	if v := u.lastHeader.Get("Content-Type"); v != "application/json" {
		t.Errorf("Content-Type = %q, should be forwarded", v)
	}

	resp := rec.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want upstream's 201", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %q, not relayed verbatim", body)
	}

	// Upstream CORS replaced with the relay's own.
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q, want request origin echoed", got)
	}
	if got := resp.Header.Get("X-Upstream"); got != "yes" {
		t.Errorf("X-Upstream = %q, other upstream headers should pass through", got)
	}
}

func TestRelay_UnknownPathNotFound(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if got := u.hits.Load(); got != 0 {
		t.Errorf("upstream hits = %d, upstream must not be contacted", got)
	}
}

func TestRelay_PreflightAnsweredLocally(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u, nil)

	req := httptest.NewRequest(http.MethodOptions, "/relay/metadata/image", nil)
	req.Header.Set("Origin", "https://app.example")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("preflight body = %q, want empty", rec.Body.String())
	}
	if got := u.hits.Load(); got != 0 {
		t.Errorf("upstream hits = %d, preflight must never reach upstream", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("preflight response missing Access-Control-Allow-Methods")
	}
}

func TestRelay_GetBodyOmitted(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u, nil)

	req := httptest.NewRequest(http.MethodGet, "/relay/metadata/image", strings.NewReader("should be dropped"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if u.lastBody != "" {
		t.Errorf("GET body forwarded: %q", u.lastBody)
	}
}

func TestRelay_CORSAllowList(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{"exact match echoed", []string{"https://app.example"}, "https://app.example", "https://app.example"},
		{"host-only match echoed", []string{"app.example"}, "https://app.example", "https://app.example"},
		{"mismatch not echoed", []string{"https://app.example"}, "https://evil.example", ""},
		{"no list echoes any origin", nil, "https://anything.example", "https://anything.example"},
		{"no list no origin wildcards", nil, "", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUpstream(t)
			s := newTestServer(t, u, tt.origins)

			req := httptest.NewRequest(http.MethodOptions, "/relay/x", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRelay_UpstreamFailureMapsTo500(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u, nil)
	u.server.Close() // make the upstream unreachable

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/relay/metadata/image", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("error body missing the error message")
	}
}

func TestRelay_StripsResponseFraming(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/relay/x", nil))

	for _, h := range []string{"Content-Encoding", "Transfer-Encoding"} {
		if got := rec.Header().Get(h); got != "" {
			t.Errorf("%s = %q, should be stripped", h, got)
		}
	}
}
