package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library-client/internal/config"
	"library-client/internal/devapi"
	"library-client/internal/handler"
	"library-client/internal/middleware"
	"library-client/internal/observability"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	apiRateLimit = 20
	apiRateBurst = 50
)

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting library dev server",
		slog.String("version", version),
		slog.String("environment", cfg.Environment))

	lib := devapi.NewLibrary()
	if err := devapi.Seed(lib); err != nil {
		slog.Error("failed to seed library", slog.String("error", err.Error()))
		os.Exit(1)
	}
	d := lib.Dashboard()
	slog.Info("library seeded",
		slog.Int("books", d.BookCount),
		slog.Int("categories", d.CategoryCount),
		slog.Int("users", d.UserCount))
	for _, acct := range devapi.DefaultAccounts {
		slog.Info("seed account", slog.String("username", acct.Username), slog.Bool("admin", acct.Admin))
	}

	validator := middleware.DefaultValidatorConfig(cfg.Environment)
	validator.DocumentPath = cfg.OpenAPISpecPath

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := handler.NewRouter(ctx, lib, handler.RouterConfig{
		Version:        version,
		AllowedOrigins: middleware.ParseOrigins(cfg.AllowedOrigins),
		Validator:      validator,
		RateLimit:      apiRateLimit,
		RateBurst:      apiRateBurst,
		LogRequests:    !cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.DevServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("library dev server listening", slog.String("port", cfg.DevServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()

	slog.Info("server stopped gracefully")
}
