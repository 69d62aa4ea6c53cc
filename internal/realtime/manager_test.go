package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const testTimeout = 3 * time.Second

// fastReconnect keeps tests snappy.
func fastReconnect() ReconnectConfig {
	return ReconnectConfig{
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
		BackoffFactor:  2.0,
		MaxAttempts:    5,
	}
}

// roomServer is an in-process push-feed endpoint. It answers join-room
// intents with room-joined and records every intent it receives.
type roomServer struct {
	upgrader websocket.Upgrader
	authFail bool

	mu     sync.Mutex
	conns  []*websocket.Conn
	joins  [][]string // join-room product ids, indexed by connection
	leaves []string
}

func newRoomServer() *roomServer {
	return &roomServer{}
}

func (s *roomServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.joins = append(s.joins, nil)
	idx := len(s.conns) - 1
	s.mu.Unlock()

	go s.serve(conn, idx)
}

func (s *roomServer) serve(conn *websocket.Conn, idx int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var intent intentMessage
		if err := json.Unmarshal(data, &intent); err != nil {
			continue
		}

		switch intent.Type {
		case TypeJoinRoom:
			s.mu.Lock()
			s.joins[idx] = append(s.joins[idx], intent.ProductID)
			s.mu.Unlock()

			if s.authFail {
				s.send(conn, Message{Type: TypeError, Message: "login required", RequiresLogin: true})
			} else {
				s.send(conn, Message{Type: TypeRoomJoined, ProductID: intent.ProductID})
			}
		case TypeLeaveRoom:
			s.mu.Lock()
			s.leaves = append(s.leaves, intent.ProductID)
			s.mu.Unlock()
		}
	}
}

func (s *roomServer) send(conn *websocket.Conn, msg Message) {
	data, _ := json.Marshal(msg)
	conn.WriteMessage(websocket.TextMessage, data)
}

func (s *roomServer) conn(i int) *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.conns) {
		return nil
	}
	return s.conns[i]
}

func (s *roomServer) connCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *roomServer) joinCounts() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make([]int, len(s.joins))
	for i, j := range s.joins {
		counts[i] = len(j)
	}
	return counts
}

func (s *roomServer) leaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leaves)
}

func startRoomServer(t *testing.T) (*roomServer, *Manager, chan Event) {
	t.Helper()

	srv := newRoomServer()
	httpSrv := httptest.NewServer(srv)
	t.Cleanup(httpSrv.Close)

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	m := NewManager(wsURL).WithReconnectConfig(fastReconnect())

	events := make(chan Event, 64)
	m.SetHandler(func(ev Event) { events <- ev })
	t.Cleanup(func() { m.Close() })

	return srv, m, events
}

func waitForState(t *testing.T, events chan Event, want State) {
	t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case ev := <-events:
			if sc, ok := ev.(StateChange); ok && sc.State == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %q", want)
		}
	}
}

func waitForEvent[T Event](t *testing.T, events chan Event) T {
	t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case ev := <-events:
			if typed, ok := ev.(T); ok {
				return typed
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestManager_JoinAndReceive(t *testing.T) {
	srv, m, events := startRoomServer(t)

	if err := m.Open(context.Background(), "p1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	waitForState(t, events, StateRoomJoined)

	price := int64(1_050_000)
	srv.send(srv.conn(0), Message{Type: TypePriceUpdate, ProductID: "p1", CurrentPrice: &price})

	update := waitForEvent[PriceUpdate](t, events)
	if update.CurrentPrice != 1_050_000 {
		t.Errorf("CurrentPrice = %d, want 1050000", update.CurrentPrice)
	}

	if got := srv.joinCounts(); len(got) != 1 || got[0] != 1 {
		t.Errorf("join counts = %v, want [1]", got)
	}
}

func TestManager_RejoinsAfterReconnect(t *testing.T) {
	srv, m, events := startRoomServer(t)

	if err := m.Open(context.Background(), "p1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	waitForState(t, events, StateRoomJoined)

	// Drop the transport out from under the client.
	srv.conn(0).Close()

	waitForState(t, events, StateReconnecting)
	waitForState(t, events, StateRoomJoined)

	// Exactly one join-room per connection: one on connect, one on reconnect.
	counts := srv.joinCounts()
	if len(counts) != 2 {
		t.Fatalf("connection count = %d, want 2", len(counts))
	}
	for i, c := range counts {
		if c != 1 {
			t.Errorf("join count on connection %d = %d, want 1", i, c)
		}
	}

	// The re-joined feed delivers events again.
	price := int64(1_100_000)
	srv.send(srv.conn(1), Message{Type: TypePriceUpdate, ProductID: "p1", CurrentPrice: &price})
	update := waitForEvent[PriceUpdate](t, events)
	if update.CurrentPrice != 1_100_000 {
		t.Errorf("CurrentPrice after rejoin = %d, want 1100000", update.CurrentPrice)
	}
}

func TestManager_AuthErrorStopsReconnect(t *testing.T) {
	srv, m, events := startRoomServer(t)
	srv.authFail = true

	if err := m.Open(context.Background(), "p1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ev := waitForEvent[ErrorEvent](t, events)
	if ev.Recoverable {
		t.Error("auth error reported as recoverable")
	}
	waitForState(t, events, StateFailed)

	// No automatic retry with the same credential.
	time.Sleep(100 * time.Millisecond)
	if got := srv.connCount(); got != 1 {
		t.Errorf("connection count = %d, want 1 (no reconnect)", got)
	}
}

func TestManager_BoundedReconnectFailure(t *testing.T) {
	// A server that is already gone: every dial fails.
	httpSrv := httptest.NewServer(http.NotFoundHandler())
	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	httpSrv.Close()

	m := NewManager(wsURL).WithReconnectConfig(ReconnectConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
		MaxAttempts:    3,
	})
	events := make(chan Event, 64)
	m.SetHandler(func(ev Event) { events <- ev })
	defer m.Close()

	if err := m.Open(context.Background(), "p1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ev := waitForEvent[ErrorEvent](t, events)
	if ev.Recoverable {
		t.Error("exhausted reconnect reported as recoverable")
	}
	waitForState(t, events, StateFailed)
}

func TestManager_CloseLeavesRoomAndIsIdempotent(t *testing.T) {
	srv, m, events := startRoomServer(t)

	if err := m.Open(context.Background(), "p1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	waitForState(t, events, StateRoomJoined)

	if err := m.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	deadline := time.After(testTimeout)
	for srv.leaveCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("leave-room intent never received")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestManager_OpenTwice(t *testing.T) {
	_, m, events := startRoomServer(t)

	if err := m.Open(context.Background(), "p1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	waitForState(t, events, StateRoomJoined)

	if err := m.Open(context.Background(), "p2"); err != ErrAlreadyOpen {
		t.Errorf("second Open error = %v, want ErrAlreadyOpen", err)
	}
}

func TestManager_HandlerSwapKeepsConnection(t *testing.T) {
	srv, m, events := startRoomServer(t)

	if err := m.Open(context.Background(), "p1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	waitForState(t, events, StateRoomJoined)

	swapped := make(chan Event, 64)
	m.SetHandler(func(ev Event) { swapped <- ev })

	price := int64(999)
	srv.send(srv.conn(0), Message{Type: TypePriceUpdate, ProductID: "p1", CurrentPrice: &price})

	update := waitForEvent[PriceUpdate](t, swapped)
	if update.CurrentPrice != 999 {
		t.Errorf("CurrentPrice = %d, want 999", update.CurrentPrice)
	}
	if got := srv.connCount(); got != 1 {
		t.Errorf("connection count after handler swap = %d, want 1", got)
	}
}
