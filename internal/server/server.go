package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lumahq/luma/internal/config"
	"github.com/lumahq/luma/internal/handler"
	"github.com/lumahq/luma/internal/handler/assistant"
	"github.com/lumahq/luma/internal/middleware"
	"github.com/lumahq/luma/internal/svc"
)

// ServerOptions holds optional dependencies for the server
type ServerOptions struct {
	SvcCtx *svc.ServiceContext // Pre-initialized service context
	Quiet  bool                // Suppress startup messages for clean CLI output
}

// Run starts the Luma server with the given configuration.
// It blocks until the context is cancelled or an error occurs.
func Run(ctx context.Context, c config.Config, opts ...ServerOptions) error {
	var o ServerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return run(ctx, c, o)
}

func run(ctx context.Context, c config.Config, opts ServerOptions) error {
	serverPort := c.Port

	if err := checkPortAvailable(serverPort); err != nil {
		return fmt.Errorf("port %d is already in use - only one Luma instance allowed per computer", serverPort)
	}

	if !opts.Quiet {
		fmt.Printf("Starting server on http://localhost:%d\n", serverPort)
	}

	// Use pre-initialized service context if provided, otherwise create one
	svcCtx := opts.SvcCtx
	if svcCtx == nil {
		var err error
		svcCtx, err = svc.NewServiceContext(c, "")
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		defer svcCtx.Close()
	}

	r := chi.NewRouter()

	if !opts.Quiet {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(corsMiddleware())

	// Health check at root
	r.Get("/health", handler.HealthCheckHandler(svcCtx))

	r.Route("/api/v1/assistant", func(r chi.Router) {
		r.Use(middleware.JWTMiddleware(c.Auth.AccessSecret, c.Auth.TrustedIssuer))
		registerAssistantRoutes(r, svcCtx)
	})

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", serverPort),
		Handler:     r,
		IdleTimeout: 120 * time.Second,
	}

	if !opts.Quiet {
		fmt.Printf("Server ready at http://localhost:%d\n", serverPort)
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	<-ctx.Done()

	if !opts.Quiet {
		fmt.Println("\nShutting down server gracefully...")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	httpServer.Shutdown(shutdownCtx)
	return nil
}

// registerAssistantRoutes registers the JWT-protected assistant API.
func registerAssistantRoutes(r chi.Router, svcCtx *svc.ServiceContext) {
	r.Post("/chat", assistant.ChatHandler(svcCtx))
	r.Post("/voice", assistant.VoiceHandler(svcCtx))
	r.Post("/analyze", assistant.AnalyzeHandler(svcCtx))
	r.Post("/limits", assistant.UpdateLimitsHandler(svcCtx))

	r.Get("/usage", assistant.UsageHandler(svcCtx))
	r.Get("/summary", assistant.SummaryHandler(svcCtx))
	r.Get("/summary/{context}", assistant.SummaryContextHandler(svcCtx))
	r.Get("/contexts", assistant.ContextsHandler(svcCtx))
	r.Get("/models", assistant.ListModelsHandler(svcCtx))

	r.Get("/sessions", assistant.ListSessionsHandler(svcCtx))
	r.Get("/sessions/{id}/messages", assistant.SessionMessagesHandler(svcCtx))
}

// corsMiddleware handles CORS. Luma is a local app, so only localhost
// origins are allowed; non-localhost origins get no CORS headers and the
// browser blocks the request.
func corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin == "" || isLocalhostOrigin(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isLocalhostOrigin reports whether origin points at localhost on any port.
func isLocalhostOrigin(origin string) bool {
	for _, prefix := range []string{"http://localhost", "https://localhost", "http://127.0.0.1", "https://127.0.0.1"} {
		if origin == prefix || strings.HasPrefix(origin, prefix+":") {
			return true
		}
	}
	return false
}

// checkPortAvailable checks if a port is available for binding
func checkPortAvailable(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}
