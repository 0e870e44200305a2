package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brightmarket/identity-api/config"
	"github.com/brightmarket/identity-api/internal/adapters/postgres"
	httpx "github.com/brightmarket/identity-api/internal/http"
	"github.com/brightmarket/identity-api/internal/service"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config    *config.AppConfig
	Auth      *service.AuthOrchestrator
	Connector *postgres.Connector
	Logger    *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	router := httpx.NewRouter(httpx.RouterServices{
		Auth:         cfg.Auth,
		Guard:        httpx.NewRedirectGuard(appCfg.HTTP.BaseURL),
		Prober:       cfg.Connector,
		ProbeTimeout: appCfg.Postgres.ProbeTimeout,
		CookieDomain: appCfg.HTTP.CookieDomain,
		Production:   appCfg.IsProduction(),
		Logger:       logger,
	})

	// Order: Recover -> Logging -> Router
	var handler http.Handler = router
	handler = httpx.Logging(logger)(handler)
	handler = httpx.Recover(logger)(handler)

	server := &http.Server{
		Addr:         appCfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// WaitForShutdown blocks until SIGINT/SIGTERM, then drains the server.
func WaitForShutdown(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.InfoContext(ctx, "shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
