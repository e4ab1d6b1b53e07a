package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"codeberg.org/mutker/hoststate/internal/errors"
	"codeberg.org/mutker/hoststate/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsPath            = "/metrics"
	metricsReadTimeout     = 5 * time.Second
	metricsShutdownTimeout = 5 * time.Second
)

func metricsHandler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// startMetricsServer binds addr before returning so a bad address fails
// the caller. Serve errors after that are passed to onError.
func startMetricsServer(addr string, g prometheus.Gatherer, onError func(error)) (*http.Server, net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, errors.New().WithData(errors.ErrMainLoop, struct {
			Phase string
			Addr  string
			Error string
		}{
			Phase: "listen_metrics",
			Addr:  addr,
			Error: err.Error(),
		})
	}

	srv := &http.Server{
		Handler:           metricsHandler(g),
		ReadHeaderTimeout: metricsReadTimeout,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			onError(err)
		}
	}()

	return srv, ln.Addr(), nil
}

func shutdownMetricsServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to stop metrics server")
	}
}
