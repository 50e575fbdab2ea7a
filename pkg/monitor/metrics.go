// Package monitor exposes the supervised node pair to external watchdogs: a
// Prometheus endpoint and a gRPC health service. Both are supervisor observers.
package monitor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/salahayoub/ethup/pkg/types"
)

const namespace = "ethup"

// Metrics tracks node liveness in its own registry.
type Metrics struct {
	registry *prometheus.Registry

	up        *prometheus.GaugeVec
	pid       *prometheus.GaugeVec
	exits     *prometheus.CounterVec
	exitCode  *prometheus.GaugeVec
	shutdowns prometheus.Counter

	log zerolog.Logger
}

// NewMetrics creates and registers the node metrics.
func NewMetrics(log zerolog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_up",
			Help:      "1 while the node process is running.",
		}, []string{"role"}),
		pid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_pid",
			Help:      "Process ID of the running node.",
		}, []string{"role"}),
		exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_exits_total",
			Help:      "Node process exits, requested or not.",
		}, []string{"role"}),
		exitCode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_last_exit_code",
			Help:      "Exit code of the last node exit, -1 when ended by a signal.",
		}, []string{"role"}),
		shutdowns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shutdowns_total",
			Help:      "Coordinated shutdowns started.",
		}),
		log: log.With().Str("component", "metrics").Logger(),
	}

	registry.MustRegister(m.up, m.pid, m.exits, m.exitCode, m.shutdowns)
	return m
}

// NodeStarted implements supervisor.Observer.
func (m *Metrics) NodeStarted(role types.Role, pid int) {
	m.up.WithLabelValues(string(role)).Set(1)
	m.pid.WithLabelValues(string(role)).Set(float64(pid))
}

// NodeExited implements supervisor.Observer.
func (m *Metrics) NodeExited(role types.Role, exitCode int) {
	m.up.WithLabelValues(string(role)).Set(0)
	m.exits.WithLabelValues(string(role)).Inc()
	m.exitCode.WithLabelValues(string(role)).Set(float64(exitCode))
}

// ShutdownStarted implements supervisor.Observer.
func (m *Metrics) ShutdownStarted() {
	m.shutdowns.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ServeMetrics serves /metrics on lis until ctx is done.
func (m *Metrics) ServeMetrics(ctx context.Context, lis net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	m.log.Info().Str("addr", lis.Addr().String()).Msg("serving metrics")
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
