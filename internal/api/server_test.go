package api

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swingscan/pkg/config"
	"github.com/wonny/swingscan/pkg/logger"
)

func TestServer_ShutdownCancelsRunningScan(t *testing.T) {
	entered := make(chan struct{})
	cancelled := make(chan struct{})

	slowScan := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-r.Context().Done()
		close(cancelled)
		w.WriteHeader(http.StatusInternalServerError)
	})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(&config.Config{Env: "test"}, logger.Nop(), slowScan)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(l) }()

	status := make(chan int, 1)
	go func() {
		resp, err := http.Post("http://"+l.Addr().String()+"/api/scan", "application/json", nil)
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the handler")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case <-cancelled:
	default:
		t.Fatal("running request was not cancelled")
	}
	assert.Equal(t, http.StatusInternalServerError, <-status)
	assert.NoError(t, <-serveErr)
}
