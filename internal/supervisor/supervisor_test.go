package supervisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supervisor/internal/jsonx"
	"supervisor/internal/llm"
	"supervisor/internal/pending"
	"supervisor/internal/transport"
)

type bridgeStub struct {
	srv   *httptest.Server
	mu    sync.Mutex
	sent  []map[string]any
	conns chan *websocket.Conn
}

func newBridgeStub(t *testing.T) *bridgeStub {
	t.Helper()
	b := &bridgeStub{conns: make(chan *websocket.Conn, 2)}
	upgrader := websocket.Upgrader{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.conns <- conn
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg map[string]any
			if jsonx.Unmarshal(raw, &msg) == nil {
				b.mu.Lock()
				b.sent = append(b.sent, msg)
				b.mu.Unlock()
			}
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *bridgeStub) url() string {
	return "ws" + strings.TrimPrefix(b.srv.URL, "http")
}

func (b *bridgeStub) ofType(mtype string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	for _, m := range b.sent {
		if m["type"] == mtype {
			out = append(out, m)
		}
	}
	return out
}

func (b *bridgeStub) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-b.conns:
		return conn
	case <-time.After(3 * time.Second):
		t.Fatal("supervisor never connected to the bridge")
		return nil
	}
}

func sendInbound(t *testing.T, conn *websocket.Conn, mtype, text string) {
	t.Helper()
	payload, err := jsonx.Marshal(map[string]string{"type": mtype, "text": text})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
}

func startSupervisor(t *testing.T, script ...string) (*Supervisor, *llm.MockClient, *bridgeStub, <-chan error) {
	t.Helper()
	stub := newBridgeStub(t)
	mock := llm.NewMockClient(script...)

	sup, err := New(Config{
		ExecutorAddr: "127.0.0.1:0",
		BridgeURL:    stub.url(),
	}, mock)
	require.NoError(t, err)

	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { done <- sup.Run(ctx) }()

	return sup, mock, stub, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor loop never returned")
		return nil
	}
}

func TestConversationResetAndExit(t *testing.T) {
	_, mock, stub, done := startSupervisor(t, "conversation", "Doing fine.")
	conn := stub.waitConn(t)

	sendInbound(t, conn, "chat", "how are you?")
	require.Eventually(t, func() bool {
		return len(stub.ofType("main_input")) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Doing fine.", stub.ofType("main_input")[0]["text"])

	sendInbound(t, conn, "reset", "")
	require.Eventually(t, func() bool {
		return len(stub.ofType("system")) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "LLM memory reset", stub.ofType("system")[0]["text"])
	assert.Equal(t, 1, mock.Resets())

	sendInbound(t, conn, "chat", "exit")
	assert.NoError(t, waitDone(t, done))
}

func TestPendingServedBeforeNewInputInFIFOOrder(t *testing.T) {
	sup, _, stub, done := startSupervisor(t, "positive", "negative")
	conn := stub.waitConn(t)

	tabA := sup.tabs.Open()
	tabB := sup.tabs.Open()
	sup.pending.Add(pending.TypeReadPyFiles, &transport.Reply{Response: "Is this correct?"}, tabA.ID)
	sup.pending.Add(pending.TypeReadPyFiles, &transport.Reply{Response: "Is this correct?"}, tabB.ID)

	// The first prompt is for tab A; exactly one outstanding at a time.
	require.Eventually(t, func() bool {
		return len(stub.ofType("pending_request")) == 1
	}, 3*time.Second, 10*time.Millisecond)
	first := stub.ofType("pending_request")[0]
	assert.Equal(t, float64(tabA.ID), first["tabId"])

	// Answering A surfaces the prompt for B.
	sendInbound(t, conn, "pending_response", "yes")
	require.Eventually(t, func() bool {
		return len(stub.ofType("pending_request")) == 2
	}, 3*time.Second, 10*time.Millisecond)
	second := stub.ofType("pending_request")[1]
	assert.Equal(t, float64(tabB.ID), second["tabId"])

	// Declining B cancels its workflow.
	sendInbound(t, conn, "pending_response", "no")
	require.Eventually(t, func() bool {
		msgs := stub.ofType("info")
		return len(msgs) > 0 && msgs[len(msgs)-1]["text"] == "It has been canceled."
	}, 3*time.Second, 10*time.Millisecond)
	assert.Nil(t, sup.tabs.Get(tabB.ID))

	sendInbound(t, conn, "chat", "exit")
	assert.NoError(t, waitDone(t, done))
}

func TestUnknownBridgeTypeIsEchoed(t *testing.T) {
	_, _, stub, done := startSupervisor(t)
	conn := stub.waitConn(t)

	sendInbound(t, conn, "telemetry", "whatever")
	require.Eventually(t, func() bool {
		return len(stub.ofType("supervisor_log")) >= 1
	}, 3*time.Second, 10*time.Millisecond)
	text, _ := stub.ofType("supervisor_log")[0]["text"].(string)
	assert.Contains(t, text, "ignored message")

	sendInbound(t, conn, "chat", "exit")
	assert.NoError(t, waitDone(t, done))
}
