package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/FACorreiaa/echo-import/pkg/interceptors"
)

// newRouter mounts the import RPCs behind auth and rate limiting, plus the
// health and metrics endpoints.
func newRouter(d *Dependencies) http.Handler {
	mux := http.NewServeMux()

	path, handler := d.ImportHandler.Routes(
		connect.WithInterceptors(
			interceptors.NewAuthInterceptor([]byte(d.Config.Auth.JWTSecret), d.Logger),
			d.RateLimiter.Interceptor(),
		),
		connect.WithReadMaxBytes(int(readLimit(d.Config.Import.MaxFileBytes))),
	)
	mux.Handle(path, handler)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if d.Config.Observability.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	return withCORS(mux)
}

// readLimit leaves room for base64 expansion and the JSON envelope so
// oversize files reach the validator and get a precise error.
func readLimit(maxFileBytes int64) int64 {
	return maxFileBytes*2 + 64<<10
}

func withCORS(h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: connectcors.AllowedMethods(),
		AllowedHeaders: append(connectcors.AllowedHeaders(), "Authorization"),
		ExposedHeaders: connectcors.ExposedHeaders(),
		MaxAge:         7200,
	}).Handler(h)
}

// serve runs the HTTP server and the scheduler until ctx is cancelled, then
// shuts both down.
func serve(ctx context.Context, d *Dependencies) error {
	srv := &http.Server{
		Addr:    d.Config.Server.Addr(),
		Handler: newRouter(d),
	}

	if err := d.Scheduler.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		d.Logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		<-d.Scheduler.Stop().Done()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	d.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	select {
	case <-d.Scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		d.Logger.Warn("scheduler jobs still running at shutdown")
	}
	return nil
}
