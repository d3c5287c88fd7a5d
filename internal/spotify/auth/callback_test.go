package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func startCallbackServer(t *testing.T) *CallbackServer {
	t.Helper()
	server, err := NewCallbackServer("127.0.0.1:0", "/callback")
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}
	server.Start()
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })
	return server
}

func hitCallback(t *testing.T, server *CallbackServer, query string) {
	t.Helper()
	go func() {
		resp, err := http.Get("http://" + server.Addr() + "/callback?" + query)
		if err != nil {
			t.Errorf("callback request failed: %v", err)
			return
		}
		_ = resp.Body.Close()
	}()
}

func TestCallbackServer(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  CallbackResult
	}{
		{"success", "code=test_code&state=test_state", CallbackResult{Code: "test_code", State: "test_state"}},
		{"denied", "error=access_denied&state=test_state", CallbackResult{State: "test_state", Error: "access_denied"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := startCallbackServer(t)
			hitCallback(t, server, tt.query)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			result, err := server.Wait(ctx)
			if err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
			if result != tt.want {
				t.Errorf("result = %+v, want %+v", result, tt.want)
			}
		})
	}
}

func TestCallbackServerTimeout(t *testing.T) {
	server := startCallbackServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// No callback made, should timeout
	if _, err := server.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want %v", err, context.DeadlineExceeded)
	}
}
