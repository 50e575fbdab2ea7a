package monitor

import (
	"context"
	"net"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/salahayoub/ethup/pkg/types"
)

// OverallService is the empty service name, SERVING only while both nodes run.
const OverallService = ""

// ServiceName is the health service name for one node, e.g. "ethup.execution".
func ServiceName(role types.Role) string {
	return "ethup." + string(role)
}

// Health publishes node liveness over the standard gRPC health protocol.
type Health struct {
	srv *health.Server
	log zerolog.Logger

	mu       sync.Mutex
	running  map[types.Role]bool
	stopping bool
}

// NewHealth creates a health service with every service NOT_SERVING.
func NewHealth(log zerolog.Logger) *Health {
	h := &Health{
		srv:     health.NewServer(),
		log:     log.With().Str("component", "health").Logger(),
		running: make(map[types.Role]bool),
	}
	for _, name := range []string{OverallService, ServiceName(types.Execution), ServiceName(types.Consensus)} {
		h.srv.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return h
}

// NodeStarted implements supervisor.Observer.
func (h *Health) NodeStarted(role types.Role, pid int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.running[role] = true
	h.srv.SetServingStatus(ServiceName(role), healthpb.HealthCheckResponse_SERVING)
	h.updateOverall()
}

// NodeExited implements supervisor.Observer.
func (h *Health) NodeExited(role types.Role, exitCode int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.running[role] = false
	h.srv.SetServingStatus(ServiceName(role), healthpb.HealthCheckResponse_NOT_SERVING)
	h.updateOverall()
}

// ShutdownStarted implements supervisor.Observer.
func (h *Health) ShutdownStarted() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopping = true
	h.updateOverall()
}

func (h *Health) updateOverall() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if !h.stopping && h.running[types.Execution] && h.running[types.Consensus] {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.srv.SetServingStatus(OverallService, status)
}

// ServeHealth serves the health service on lis until ctx is done.
func (h *Health) ServeHealth(ctx context.Context, lis net.Listener) error {
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, h.srv)

	go func() {
		<-ctx.Done()
		h.srv.Shutdown()
		server.GracefulStop()
	}()

	h.log.Info().Str("addr", lis.Addr().String()).Msg("serving grpc health")
	return server.Serve(lis)
}
