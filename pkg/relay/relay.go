// Package relay implements a minimal forwarding proxy: requests under /relay
// are replayed against a fixed upstream host with hop-sensitive headers
// stripped, and CORS is answered locally against an origin allow-list. The
// relay holds no state.
package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	pathPrefix      = "/relay"
	upstreamTimeout = 60 * time.Second
)

// Headers never forwarded to the upstream.
var strippedRequestHeaders = []string{"Host", "Origin", "Referer"}

// Headers never relayed back: the body is re-framed by the relay, and the
// relay sets its own CORS headers.
var strippedResponseHeaders = []string{
	"Content-Encoding",
	"Content-Length",
	"Transfer-Encoding",
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Headers",
	"Access-Control-Allow-Credentials",
	"Access-Control-Expose-Headers",
	"Access-Control-Max-Age",
}

// Server forwards /relay requests to the configured upstream.
type Server struct {
	upstream       *url.URL
	allowedOrigins []string
	client         *http.Client
	logger         *zap.Logger
}

// New validates the upstream URL and builds the server. allowedOrigins is the
// CORS allow-list; empty means any origin is permitted.
func New(upstreamBase string, allowedOrigins []string, logger *zap.Logger) (*Server, error) {
	upstream, err := url.Parse(strings.TrimSuffix(upstreamBase, "/"))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Server{
		upstream:       upstream,
		allowedOrigins: origins,
		client:         &http.Client{Timeout: upstreamTimeout},
		logger:         logger,
	}, nil
}

// ServeHTTP handles preflight locally, 404s anything outside /relay, and
// forwards the rest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.setCORSHeaders(w, r)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if !strings.HasPrefix(r.URL.Path, pathPrefix) {
		http.NotFound(w, r)
		return
	}

	s.forward(w, r)
}

func (s *Server) forward(w http.ResponseWriter, r *http.Request) {
	target := *s.upstream
	target.Path = s.upstream.Path + strings.TrimPrefix(r.URL.Path, pathPrefix)
	target.RawQuery = r.URL.RawQuery

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, r.Method, target.String(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	req.Header = r.Header.Clone()
	for _, h := range strippedRequestHeaders {
		req.Header.Del(h)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer resp.Body.Close()

	header := w.Header()
	for name, values := range resp.Header {
		if isStrippedResponseHeader(name) {
			continue
		}
		for _, v := range values {
			header.Add(name, v)
		}
	}

	w.WriteHeader(resp.StatusCode)
	written, _ := io.Copy(w, resp.Body)

	s.logger.Info("relayed request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("target", target.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int64("bytes", written),
	)
}

// fail maps any upstream contact error to a 500 with a JSON error body.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("relay failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// setCORSHeaders answers CORS per the configured allow-list: only a matching
// origin is echoed back; with no allow-list any origin is permitted.
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	allowed := ""
	switch {
	case len(s.allowedOrigins) == 0:
		if origin != "" {
			allowed = origin
		} else {
			allowed = "*"
		}
	case origin != "" && s.originAllowed(origin):
		allowed = origin
	}

	header := w.Header()
	if allowed != "" {
		header.Set("Access-Control-Allow-Origin", allowed)
	}
	header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// originAllowed matches the request origin against the allow-list by exact
// string or by host only.
func (s *Server) originAllowed(origin string) bool {
	originURL, err := url.Parse(origin)
	for _, entry := range s.allowedOrigins {
		if entry == origin {
			return true
		}
		if err == nil && (entry == originURL.Host || entry == originURL.Hostname()) {
			return true
		}
	}
	return false
}

func isStrippedResponseHeader(name string) bool {
	for _, h := range strippedResponseHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}

// ListenAndServe runs the relay on addr until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("relay listening", zap.String("addr", addr), zap.String("upstream", s.upstream.String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
