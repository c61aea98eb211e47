package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/hioload-ai/coderuntime/api"
	"github.com/hioload-ai/coderuntime/core/listener"
	"github.com/hioload-ai/coderuntime/core/protocol"
)

// dialWithRetry tolerates the short window between Serve's goroutine
// starting and its internal listener.Bind call actually completing.
func dialWithRetry(ctx context.Context, name string) (*listener.Connection, error) {
	var lastErr error
	for i := 0; i < 50; i++ {
		conn, err := listener.Dial(ctx, name)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(10 * time.Millisecond)
	}
	return nil, lastErr
}

func TestCoordinator_ServeAssemblesRendezvousToRouterDataFlow(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.ControlRing = "serve-test-" + t.Name()
	c, err := New(cfg, fakeParser{}, fakeEmbedder{dim: 4}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- c.Serve(ctx) }()

	conn, err := dialWithRetry(ctx, cfg.ControlRing)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := conn.Send(protocol.Encode(&api.Frame{Version: protocol.Version, Type: api.MsgHeartbeat, MessageID: 7})); err != nil {
		t.Fatalf("Send: %v", err)
	}
	recvCtx, recvCancel := context.WithTimeout(ctx, 3*time.Second)
	defer recvCancel()
	raw, err := conn.Recv(recvCtx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	resp, err := protocol.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if resp.Type != api.MsgHeartbeat || resp.MessageID != 7 {
		t.Fatalf("got %+v, want an echoed heartbeat with MessageID 7", resp)
	}

	cancel()
	select {
	case <-serveDone:
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after ctx cancellation")
	}
	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
