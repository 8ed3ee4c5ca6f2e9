package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Protocol-Lattice/deskmate"
	"github.com/Protocol-Lattice/deskmate/pkg/mcp"
)

// fakeServer is an in-memory mcp.Transport. It answers the initialise
// handshake itself and replays scripted results for tools/call.
type fakeServer struct {
	mu      sync.Mutex
	replies []string
	rpcErr  string
	queue   [][]byte
	closed  int
}

func (f *fakeServer) Send(_ context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var req struct {
		ID     string `json:"id"`
		Method string `json:"method"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}

	switch req.Method {
	case "initialize":
		f.push(req.ID, `{"protocolVersion":"2025-03-26","serverInfo":{"name":"fake","version":"1"}}`)
	case "tools/call":
		if f.rpcErr != "" {
			f.queue = append(f.queue, []byte(fmt.Sprintf(
				`{"jsonrpc":"2.0","id":%q,"error":{"code":-32000,"message":%q}}`, req.ID, f.rpcErr)))
			return nil
		}
		if len(f.replies) == 0 {
			return errors.New("fake server: no scripted reply")
		}
		next := f.replies[0]
		f.replies = f.replies[1:]
		f.push(req.ID, next)
	default:
		f.push(req.ID, `{}`)
	}
	return nil
}

func (f *fakeServer) push(id, result string) {
	f.queue = append(f.queue, []byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":%q,"result":%s}`, id, result)))
}

func (f *fakeServer) Receive(_ context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, errors.New("fake server: no pending message")
	}
	msg := f.queue[0]
	f.queue = f.queue[1:]
	return msg, nil
}

func (f *fakeServer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// textResult wraps a payload string into a tools/call result envelope.
func textResult(payload string) string {
	content, _ := json.Marshal(payload)
	return fmt.Sprintf(`{"content":[{"type":"text","text":%s}]}`, content)
}

func newFakeInvoker(server *fakeServer) (*Invoker, *int) {
	connects := new(int)
	inv := NewInvoker("fake", func(ctx context.Context) (*mcp.Client, error) {
		*connects++
		return mcp.NewClient(ctx, server, mcp.Options{})
	})
	return inv, connects
}

func TestInvokerConnectsLazilyExactlyOnce(t *testing.T) {
	server := &fakeServer{replies: []string{
		textResult(`{"ok":true}`),
		textResult(`{"ok":true}`),
	}}
	inv, connects := newFakeInvoker(server)

	if *connects != 0 {
		t.Fatalf("connected before first call: %d", *connects)
	}
	for i := 0; i < 2; i++ {
		if _, terr := inv.Invoke(context.Background(), "ping", nil); terr != nil {
			t.Fatalf("Invoke %d: %v", i, terr)
		}
	}
	if *connects != 1 {
		t.Fatalf("connects = %d, want 1", *connects)
	}
}

func TestInvokerReturnsRawPayload(t *testing.T) {
	payload := `{"messages":[{"id":"m1"}]}`
	server := &fakeServer{replies: []string{textResult(payload)}}
	inv, _ := newFakeInvoker(server)

	raw, terr := inv.Invoke(context.Background(), "list_messages", map[string]any{"query": ""})
	if terr != nil {
		t.Fatalf("Invoke: %v", terr)
	}
	if raw != payload {
		t.Fatalf("raw = %q, want %q", raw, payload)
	}
}

func TestInvokerEmptyResult(t *testing.T) {
	server := &fakeServer{replies: []string{`{"content":[]}`}}
	inv, _ := newFakeInvoker(server)

	_, terr := inv.Invoke(context.Background(), "list_messages", nil)
	if terr == nil || terr.Kind != deskmate.ToolErrEmptyResult {
		t.Fatalf("terr = %+v, want empty result", terr)
	}
}

func TestInvokerMalformedResult(t *testing.T) {
	for _, payload := range []string{"not json at all", `[1,2,3]`, `"just a string"`} {
		server := &fakeServer{replies: []string{textResult(payload)}}
		inv, _ := newFakeInvoker(server)

		_, terr := inv.Invoke(context.Background(), "list_messages", nil)
		if terr == nil || terr.Kind != deskmate.ToolErrMalformedResult {
			t.Fatalf("payload %q: terr = %+v, want malformed result", payload, terr)
		}
	}
}

func TestInvokerRemoteErrorField(t *testing.T) {
	server := &fakeServer{replies: []string{textResult(`{"error":"Authentication failed"}`)}}
	inv, _ := newFakeInvoker(server)

	_, terr := inv.Invoke(context.Background(), "list_messages", nil)
	if terr == nil || terr.Kind != deskmate.ToolErrRemote {
		t.Fatalf("terr = %+v, want remote", terr)
	}
	if terr.Message != "Authentication failed" {
		t.Fatalf("message = %q", terr.Message)
	}
}

func TestInvokerRemoteIsErrorFlag(t *testing.T) {
	server := &fakeServer{replies: []string{
		`{"isError":true,"content":[{"type":"text","text":"tool execution failed"}]}`,
	}}
	inv, _ := newFakeInvoker(server)

	_, terr := inv.Invoke(context.Background(), "send_message", nil)
	if terr == nil || terr.Kind != deskmate.ToolErrRemote {
		t.Fatalf("terr = %+v, want remote", terr)
	}
	if terr.Message != "tool execution failed" {
		t.Fatalf("message = %q", terr.Message)
	}
}

func TestInvokerConnectFailureIsTransport(t *testing.T) {
	attempts := 0
	inv := NewInvoker("down", func(ctx context.Context) (*mcp.Client, error) {
		attempts++
		return nil, errors.New("connection refused")
	})

	_, terr := inv.Invoke(context.Background(), "list_messages", nil)
	if terr == nil || terr.Kind != deskmate.ToolErrTransport {
		t.Fatalf("terr = %+v, want transport", terr)
	}

	// The next call retries the connection instead of reusing a dead one.
	_, _ = inv.Invoke(context.Background(), "list_messages", nil)
	if attempts != 2 {
		t.Fatalf("connect attempts = %d, want 2", attempts)
	}
}

func TestInvokerRPCFailureDropsSession(t *testing.T) {
	server := &fakeServer{rpcErr: "internal error"}
	inv, connects := newFakeInvoker(server)

	_, terr := inv.Invoke(context.Background(), "list_messages", nil)
	if terr == nil || terr.Kind != deskmate.ToolErrTransport {
		t.Fatalf("terr = %+v, want transport", terr)
	}

	server.rpcErr = ""
	server.replies = []string{textResult(`{"ok":true}`)}
	if _, terr := inv.Invoke(context.Background(), "list_messages", nil); terr != nil {
		t.Fatalf("retry failed: %v", terr)
	}
	if *connects != 2 {
		t.Fatalf("connects = %d, want 2", *connects)
	}
}

func TestInvokerCloseIsIdempotent(t *testing.T) {
	server := &fakeServer{replies: []string{textResult(`{"ok":true}`)}}
	inv, _ := newFakeInvoker(server)

	// Close before any connection is a no-op.
	if err := inv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, terr := inv.Invoke(context.Background(), "ping", nil); terr != nil {
		t.Fatalf("Invoke: %v", terr)
	}
	if err := inv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := inv.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if server.closed != 1 {
		t.Fatalf("transport closed %d times, want 1", server.closed)
	}
}
