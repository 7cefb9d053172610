package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/reelforge/reelforge/pkg/metrics"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency of the service is usable.
type ReadinessCheck func(ctx context.Context) error

// MetricServer serves the prometheus registry and the readiness probe on a
// port separate from the public API.
type MetricServer struct {
	bindAddress string
	httpServer  *http.Server
	listener    net.Listener
	checks      map[string]ReadinessCheck
}

func NewMetricServer(bindAddress string, listener net.Listener, checks map[string]ReadinessCheck) *MetricServer {
	s := &MetricServer{
		bindAddress: bindAddress,
		listener:    listener,
		checks:      checks,
	}

	router := chi.NewRouter()
	router.Handle("/metrics", metrics.Handler())
	router.Get("/readyz", s.readyz)

	s.httpServer = &http.Server{
		Addr:              bindAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (m *MetricServer) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failures := map[string]string{}
	for name, check := range m.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		zap.S().Named("metrics_server").Warnw("not ready", "failures", failures)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]any{"ready": false, "failures": failures})
		return
	}
	render.JSON(w, r, map[string]any{"ready": true})
}

func (m *MetricServer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		m.httpServer.SetKeepAlivesEnabled(false)
		_ = m.httpServer.Shutdown(ctxTimeout)
		zap.S().Named("metrics_server").Info("metrics server terminated")
	}()

	zap.S().Named("metrics_server").Infof("serving metrics and readiness: %s", m.bindAddress)
	if err := m.httpServer.Serve(m.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
