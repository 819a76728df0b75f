package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/userdeck/userdeck/internal/daemon"
	"github.com/userdeck/userdeck/internal/storage"
	"github.com/userdeck/userdeck/internal/store"
	"github.com/userdeck/userdeck/internal/types"
)

type memPersister struct{}

func (memPersister) Load() (types.Snapshot, bool) { return types.NewSnapshot(), false }
func (memPersister) Save(types.Snapshot) error    { return nil }

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testServer(t *testing.T, st *store.Store) *Server {
	t.Helper()
	server := NewServer(&Config{
		Port:     0, // random available port
		Snapshot: st.Snapshot,
		Logger:   testLogger(),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })
	time.Sleep(100 * time.Millisecond)
	return server
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(&Config{Port: 0, Logger: testLogger()})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if server.GetAddr() == "" {
		t.Fatal("Server address is empty")
	}

	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWebSocketConnection_HelloCarriesState(t *testing.T) {
	st := store.New(memPersister{}, testLogger())
	st.SetUsers([]types.User{{ID: 1, Name: "a"}, {ID: 9, Name: "b"}})

	server := testServer(t, st)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.GetAddr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if count := server.ClientCount(); count != 1 {
		t.Errorf("ClientCount() = %d, want 1", count)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read hello message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeHello {
		t.Errorf("message type = %s, want %s", msg.Type, MessageTypeHello)
	}

	var state StateData
	if err := json.Unmarshal(msg.Data, &state); err != nil {
		t.Fatalf("Failed to unmarshal state data: %v", err)
	}
	if state.UserCount != 2 || state.MaxUserID != 9 {
		t.Errorf("state = %+v, want 2 users with max id 9", state)
	}
}

func TestHandler_BroadcastsStoreMutations(t *testing.T) {
	st := store.New(memPersister{}, testLogger())
	server := testServer(t, st)

	handler := NewHandler(server, st, testLogger())
	handler.Start()
	defer handler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.GetAddr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Drain hello
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("Failed to read hello message: %v", err)
	}

	st.SetUsers([]types.User{{ID: 1, Name: "a"}})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read state message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeState {
		t.Errorf("message type = %s, want %s", msg.Type, MessageTypeState)
	}

	var state StateData
	if err := json.Unmarshal(msg.Data, &state); err != nil {
		t.Fatalf("Failed to unmarshal state data: %v", err)
	}
	if state.UserCount != 1 {
		t.Errorf("UserCount = %d, want 1", state.UserCount)
	}
}

// TestHandler_BroadcastsExternalWrites wires the full observer stack
// the dashboard command runs: server, handler and cache-file watcher
// over one store. A write by another storage handle must reach a
// connected client as a state message.
func TestHandler_BroadcastsExternalWrites(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	reader, err := storage.Open(dbPath, testLogger())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer reader.Close()

	st := store.New(reader, testLogger())
	server := testServer(t, st)

	handler := NewHandler(server, st, testLogger())
	handler.Start()
	defer handler.Stop()

	d, err := daemon.NewWithConfig(st, dbPath, &daemon.Config{
		DebounceInterval: 50 * time.Millisecond,
		Logger:           testLogger(),
	})
	if err != nil {
		t.Fatalf("NewWithConfig() failed: %v", err)
	}

	dctx, dcancel := context.WithCancel(context.Background())
	defer dcancel()
	daemonDone := make(chan error, 1)
	go func() { daemonDone <- d.Start(dctx) }()

	// Give the watcher time to establish
	time.Sleep(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.GetAddr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Drain hello
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("Failed to read hello message: %v", err)
	}

	// Simulate a concurrent CLI invocation writing the shared cache
	writer, err := storage.Open(dbPath, testLogger())
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	snap := types.NewSnapshot()
	snap.Users = []types.User{{ID: 3, Name: "external"}}
	if err := writer.Save(snap); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read state message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeState {
		t.Errorf("message type = %s, want %s", msg.Type, MessageTypeState)
	}

	var state StateData
	if err := json.Unmarshal(msg.Data, &state); err != nil {
		t.Fatalf("Failed to unmarshal state data: %v", err)
	}
	if state.UserCount != 1 {
		t.Errorf("UserCount = %d, want 1", state.UserCount)
	}

	dcancel()
	select {
	case err := <-daemonDone:
		if err != nil {
			t.Errorf("daemon Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not shut down within 5s")
	}
}

func TestMultipleClients(t *testing.T) {
	st := store.New(memPersister{}, testLogger())
	server := testServer(t, st)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	numClients := 3
	for i := 0; i < numClients; i++ {
		conn, _, err := websocket.Dial(ctx, "ws://"+server.GetAddr()+"/ws", nil)
		if err != nil {
			t.Fatalf("Failed to connect client %d: %v", i, err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		if _, _, err := conn.Read(ctx); err != nil {
			t.Fatalf("Failed to read hello for client %d: %v", i, err)
		}
	}

	if count := server.ClientCount(); count != numClients {
		t.Errorf("ClientCount() = %d, want %d", count, numClients)
	}
}
