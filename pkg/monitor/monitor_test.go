package monitor

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/salahayoub/ethup/pkg/types"
)

func TestMetricsTrackLifecycle(t *testing.T) {
	m := NewMetrics(zerolog.Nop())

	m.NodeStarted(types.Execution, 100)
	m.NodeStarted(types.Consensus, 200)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.up.WithLabelValues("execution")))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.pid.WithLabelValues("consensus")))

	m.NodeExited(types.Execution, 1)
	m.ShutdownStarted()
	m.NodeExited(types.Consensus, -1)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.up.WithLabelValues("execution")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.up.WithLabelValues("consensus")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exits.WithLabelValues("execution")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exitCode.WithLabelValues("execution")))
	assert.Equal(t, -1.0, testutil.ToFloat64(m.exitCode.WithLabelValues("consensus")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shutdowns))
}

func TestServeMetrics(t *testing.T) {
	m := NewMetrics(zerolog.Nop())
	m.NodeStarted(types.Execution, 42)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.ServeMetrics(ctx, lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `ethup_node_up{role="execution"} 1`))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}

func TestHealthStatusTransitions(t *testing.T) {
	h := NewHealth(zerolog.Nop())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.ServeHealth(ctx, lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		return resp.GetStatus()
	}

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(OverallService))

	h.NodeStarted(types.Execution, 1)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(ServiceName(types.Execution)))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(OverallService))

	h.NodeStarted(types.Consensus, 2)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(OverallService))

	h.NodeExited(types.Consensus, 1)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(ServiceName(types.Consensus)))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(OverallService))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(ServiceName(types.Execution)))
}

func TestHealthShutdownIsNotServing(t *testing.T) {
	h := NewHealth(zerolog.Nop())
	h.NodeStarted(types.Execution, 1)
	h.NodeStarted(types.Consensus, 2)

	h.ShutdownStarted()

	resp, err := h.srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: OverallService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
