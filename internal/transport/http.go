// Package transport serves the MCP server over HTTP.
package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/taskdesk/internal/metrics"
)

// Options configures the HTTP router.
type Options struct {
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// AuthToken guards /mcp when non-empty.
	AuthToken      string
	SessionTimeout time.Duration
}

// NewServer creates the HTTP router: /mcp (streamable MCP), /health and
// /metrics.
func NewServer(server *sdkmcp.Server, opts Options) *chi.Mux {
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: opts.SessionTimeout},
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(opts.Logger))

	r.Group(func(r chi.Router) {
		if opts.AuthToken != "" {
			r.Use(AuthMiddleware(opts.AuthToken))
		}
		r.Handle("/mcp", opts.Metrics.InstrumentHandler("/mcp", mcpHandler))
	})
	r.Get("/health", opts.Metrics.InstrumentHandler("/health", http.HandlerFunc(handleHealth)).ServeHTTP)
	r.Get("/metrics", opts.Metrics.Handler().ServeHTTP)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
		})
	}
}
