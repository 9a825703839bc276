// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func startServer(t *testing.T, isReady ReadinessChecker, opts ...ServerOption) *Server {
	t.Helper()
	server := NewServer("127.0.0.1:0", isReady, opts...)
	_, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return server
}

func TestServer_MetricsEndpoint(t *testing.T) {
	external := prometheus.NewRegistry()
	evaluations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pwstrength_test_evaluations_total",
		Help: "test counter",
	})
	foreign := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "other_service_total",
		Help: "not ours",
	})
	external.MustRegister(evaluations, foreign)
	evaluations.Add(3)
	foreign.Inc()

	server := NewServer("127.0.0.1:0", nil, WithGatherer(external))
	server.Metrics().RequestsTotal.WithLabelValues("/v1/evaluate", "200").Inc()

	code, body := get(t, server.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "# HELP")
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "process_")
	assert.Contains(t, body, `pwstrength_http_requests_total{route="/v1/evaluate",status="200"} 1`)
	assert.Contains(t, body, "pwstrength_test_evaluations_total 3")
	assert.NotContains(t, body, "other_service_total")
}

func TestServer_DefaultGathererHasNoDuplicates(t *testing.T) {
	// The default registry carries its own go_ and process_ collectors.
	code, body := get(t, NewServer("127.0.0.1:0", nil).Handler(), "/metrics")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, 1, strings.Count(body, "# TYPE go_goroutines "))
}

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RequestsTotal.WithLabelValues("/v1/similar", "400").Inc()
	m.RequestDuration.WithLabelValues("/v1/similar").Observe(0.01)

	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/similar", "400")), 0)
	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestServer_Probes(t *testing.T) {
	ready := true
	server := NewServer("127.0.0.1:0", func() bool { return ready })
	h := server.Handler()

	code, body := get(t, h, "/healthz/liveness")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)

	code, body = get(t, h, "/healthz/readiness")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)

	ready = false
	code, body = get(t, h, "/healthz/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready\n", body)
}

func TestServer_NilReadinessIsReady(t *testing.T) {
	code, _ := get(t, NewServer("127.0.0.1:0", nil).Handler(), "/healthz/readiness")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_StartServesOverTCP(t *testing.T) {
	server := startServer(t, nil)
	require.NotEmpty(t, server.Addr())

	resp, err := http.Get("http://" + server.Addr() + "/healthz/liveness")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_DoubleStartFails(t *testing.T) {
	server := startServer(t, nil)

	_, err := server.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestServer_StartListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	server := NewServer(l.Addr().String(), nil)
	_, err = server.Start()
	require.Error(t, err)

	// A failed start leaves the server stopped, so Stop is a no-op.
	require.NoError(t, server.Stop(context.Background()))
	assert.Empty(t, server.Addr())
}

func TestServer_StopIdempotent(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	require.NoError(t, server.Stop(context.Background()))
	require.NoError(t, server.Stop(context.Background()))
}

func TestServer_ErrorChannelClosesOnShutdown(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	errCh, err := server.Start()
	require.NoError(t, err)

	require.NoError(t, server.Stop(context.Background()))

	select {
	case err, ok := <-errCh:
		assert.False(t, ok, "expected closed channel, got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("error channel not closed after shutdown")
	}
}

func TestServer_ErrorChannelReportsServeErrors(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	errCh, err := server.Start()
	require.NoError(t, err)

	// Closing the listener under the server makes Serve fail.
	require.NoError(t, server.listener.Close())

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported")
	}
	_ = server.Stop(context.Background())
}
