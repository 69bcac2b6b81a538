// Package bridge exposes a CosyVoice adapter to a host over HTTP and
// WebSocket: settings, voices, readiness, synthesis and notifications.
package bridge

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/telemetry"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/tts"
)

const (
	// defaultReadHeaderTimeout prevents Slowloris attacks.
	defaultReadHeaderTimeout = 10 * time.Second

	// defaultIdleTimeout is the maximum amount of time to wait for the
	// next request when keep-alives are enabled.
	defaultIdleTimeout = 120 * time.Second

	// defaultMaxBodySize is the maximum allowed size of a request body (1 MB).
	defaultMaxBodySize int64 = 1 << 20
)

// Adapter is the subset of the CosyVoice service the bridge drives.
type Adapter interface {
	tts.StreamingService
	CheckReady(ctx context.Context) tts.ReadinessReport
	Ready() (tts.ReadinessReport, bool)
	OnSettingsChange(ctx context.Context, field string, value any) error
	Settings() *tts.SettingsStore
	Catalog() *tts.VoiceCatalog
}

// Option configures a [Server].
type Option func(*Server)

// WithNotificationLog serves log at /notifications.
func WithNotificationLog(log *NotificationLog) Option {
	return func(s *Server) { s.notifications = log }
}

// WithReadHeaderTimeout overrides the header read timeout. Default: 10s.
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(s *Server) { s.readHeaderTimeout = d }
}

// WithMaxBodySize sets the maximum allowed request body size in bytes.
// Default: 1 MB.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) { s.maxBodySize = n }
}

// WithHandler mounts an extra handler, e.g. the metrics exporter at /metrics.
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) { s.extra[pattern] = h }
}

// Server is the host-facing HTTP server.
type Server struct {
	adapter       Adapter
	notifications *NotificationLog

	readHeaderTimeout time.Duration
	maxBodySize       int64
	extra             map[string]http.Handler

	httpSrv   *http.Server
	httpSrvMu sync.Mutex
}

// NewServer creates a bridge server for adapter.
func NewServer(adapter Adapter, opts ...Option) *Server {
	s := &Server{
		adapter:           adapter,
		readHeaderTimeout: defaultReadHeaderTimeout,
		maxBodySize:       defaultMaxBodySize,
		extra:             make(map[string]http.Handler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the bridge routes wrapped with tracing and request IDs.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("GET /settings/schema", s.handleSettingsSchema)
	mux.HandleFunc("PUT /settings/{field}", s.handlePutSetting)
	mux.HandleFunc("GET /voices", s.handleVoices)
	mux.HandleFunc("POST /voices/refresh", s.handleRefreshVoices)
	mux.HandleFunc("POST /tts", s.handleSynthesize)
	mux.HandleFunc("GET /tts/stream", s.handleStream)
	mux.HandleFunc("GET /notifications", s.handleNotifications)
	for pattern, h := range s.extra {
		mux.Handle(pattern, h)
	}
	return telemetry.Handler(telemetry.LoggingMiddleware(mux), "cosyvoice-bridge")
}

func (s *Server) newHTTPServer() *http.Server {
	// No WriteTimeout: synthesis responses are streamed for as long as the
	// upstream produces audio.
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.readHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	s.httpSrvMu.Lock()
	s.httpSrv = srv
	s.httpSrvMu.Unlock()
	return srv
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := s.newHTTPServer()
	srv.Addr = addr
	return srv.ListenAndServe()
}

// Serve starts the HTTP server on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.newHTTPServer().Serve(ln)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.httpSrvMu.Lock()
	srv := s.httpSrv
	s.httpSrvMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
