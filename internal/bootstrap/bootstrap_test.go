package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"bus-tracking-services/internal/common/config"
)

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	sleep = func(d time.Duration) { delays = append(delays, d) }
	t.Cleanup(func() { sleep = time.Sleep })
	return &delays
}

func TestRetryWithBackoff_EventuallySucceeds(t *testing.T) {
	delays := noSleep(t)
	core, logs := observer.New(zap.WarnLevel)

	calls := 0
	err := RetryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, 5, time.Second, zap.New(core), "PostgreSQL connection")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
	assert.Equal(t, 2, logs.FilterMessage("PostgreSQL connection failed, retrying...").Len())
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	delays := noSleep(t)

	calls := 0
	err := RetryWithBackoff(func() error {
		calls++
		return errors.New("no route to host")
	}, 3, 10*time.Millisecond, zap.NewNop(), "Redis connection")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *delays, 2)
	assert.Contains(t, err.Error(), "Redis connection failed after 3 attempts")
	assert.Contains(t, err.Error(), "no route to host")
}

func TestConnectElasticsearch_Disabled(t *testing.T) {
	es, err := ConnectElasticsearch(context.Background(), config.ElasticsearchConfig{}, 1, zap.NewNop())
	assert.NoError(t, err)
	assert.Nil(t, es)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := &http.Server{Addr: addr, Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, zap.NewNop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := &http.Server{Addr: ln.Addr().String()}
	err = Serve(context.Background(), srv, zap.NewNop())
	assert.Error(t, err)
}

func TestNewServer(t *testing.T) {
	srv := NewServer(8002, http.NotFoundHandler())
	assert.Equal(t, ":8002", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
}
