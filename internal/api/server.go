package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"go-research-pipeline/internal/api/handler"
	"go-research-pipeline/pkg/router"
)

type ServerOptions struct {
	Addr            string
	ShutdownTimeout time.Duration
	Color           bool // ANSI colors in access log fields
}

// Serve runs the research API until ctx is cancelled, then drains in-flight
// requests for at most opts.ShutdownTimeout.
func Serve(ctx context.Context, svc handler.Service, opts ServerOptions, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	r := router.New(logger.With("component", "http"), opts.Color)
	RegisterRoutes(r, handler.New(svc, logger))

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("🚀 Server started", "addr", addr, "docs", "http://localhost"+addr+"/swagger/index.html")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
