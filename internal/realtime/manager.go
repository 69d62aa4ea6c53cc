package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Default reconnection parameters. Reconnection is bounded: after
// MaxAttempts consecutive failures the manager settles into StateFailed
// instead of retrying forever.
const (
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultBackoffFactor  = 2.0
	defaultMaxAttempts    = 5
)

// errAuthRequired stops the reconnect loop when the server demands
// re-authentication.
var errAuthRequired = errors.New("realtime: authentication required")

// ErrAlreadyOpen is returned when Open is called twice. A manager serves one
// room for its lifetime; a new product gets a new manager.
var ErrAlreadyOpen = errors.New("realtime: connection already open")

// ReconnectConfig configures the reconnection behavior.
type ReconnectConfig struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	MaxAttempts    int
}

// DefaultReconnectConfig returns the default reconnection configuration.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
		MaxAttempts:    defaultMaxAttempts,
	}
}

// Manager owns one push-feed connection for one auction room. It dials,
// joins the room, re-joins after every transport-level reconnect (room
// membership does not survive a reconnect), and delivers typed events to a
// swappable handler. Transport and join failures are reported through
// ErrorEvent, never returned synchronously to the caller.
type Manager struct {
	url       string
	token     string
	reconnect ReconnectConfig
	dialer    *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	state     State
	productID string
	handler   Handler
	opened    bool
	closed    bool
	cancel    context.CancelFunc
}

// NewManager creates a manager for the push feed at the given websocket URL.
func NewManager(url string) *Manager {
	return &Manager{
		url:       url,
		reconnect: DefaultReconnectConfig(),
		dialer:    websocket.DefaultDialer,
		state:     StateDisconnected,
	}
}

// WithToken attaches a bearer credential sent as connection metadata.
func (m *Manager) WithToken(token string) *Manager {
	m.token = token
	return m
}

// WithReconnectConfig sets the reconnection configuration.
func (m *Manager) WithReconnectConfig(cfg ReconnectConfig) *Manager {
	m.reconnect = cfg
	return m
}

// SetHandler swaps the event handler without tearing down the connection.
// The connection's identity is independent of its current observer.
func (m *Manager) SetHandler(h Handler) {
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ProductID returns the room this manager serves.
func (m *Manager) ProductID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.productID
}

// Open starts the connection lifecycle for the given product's room. It
// returns immediately; connection progress, events, and failures arrive
// through the handler.
func (m *Manager) Open(ctx context.Context, productID string) error {
	if productID == "" {
		return errors.New("realtime: product id required")
	}

	m.mu.Lock()
	if m.opened {
		m.mu.Unlock()
		return ErrAlreadyOpen
	}
	m.opened = true
	m.productID = productID

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	m.setState(StateConnecting)
	go m.run(runCtx)
	return nil
}

// Close leaves the room, releases the transport, and stops reconnection.
// Safe to call multiple times.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	conn := m.conn
	joined := m.state == StateRoomJoined
	productID := m.productID
	cancel := m.cancel
	m.conn = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var err error
	if conn != nil {
		if joined {
			// Best-effort leave before releasing the transport.
			leave := intentMessage{Type: TypeLeaveRoom, ProductID: productID}
			if data, mErr := json.Marshal(leave); mErr == nil {
				if wErr := conn.WriteMessage(websocket.TextMessage, data); wErr != nil {
					log.Debug().Err(wErr).Str("product_id", productID).Msg("leave-room write failed")
				}
			}
		}
		err = conn.Close()
	}

	m.setState(StateDisconnected)
	return err
}

// run owns the dial/join/read cycle until the context is cancelled, retries
// are exhausted, or the server demands re-authentication.
func (m *Manager) run(ctx context.Context) {
	backoff := m.reconnect.InitialBackoff
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, resp, err := m.dialer.DialContext(ctx, m.url, m.header())
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			attempts++
			if attempts >= m.reconnect.MaxAttempts {
				m.fail(fmt.Sprintf("connection failed after %d attempts: %v", attempts, err))
				return
			}

			log.Warn().
				Str("product_id", m.ProductID()).
				Int("attempt", attempts).
				Dur("backoff", backoff).
				Err(err).
				Msg("push feed dial failed, retrying")
			m.setState(StateReconnecting)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * m.reconnect.BackoffFactor)
			if backoff > m.reconnect.MaxBackoff {
				backoff = m.reconnect.MaxBackoff
			}
			continue
		}

		attempts = 0
		backoff = m.reconnect.InitialBackoff

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			conn.Close()
			return
		}
		m.conn = conn
		m.mu.Unlock()

		m.setState(StateConnected)

		// Room membership never survives a reconnect: join on every
		// fresh transport connection before trusting the feed.
		if err := m.sendIntent(TypeJoinRoom); err != nil {
			log.Warn().Err(err).Str("product_id", m.ProductID()).Msg("join-room failed")
			conn.Close()
			m.emit(ErrorEvent{Message: "joining room: " + err.Error(), Recoverable: true})
			m.setState(StateReconnecting)
			continue
		}
		m.setState(StateRoomJoining)

		err = m.readLoop(ctx, conn)

		m.mu.Lock()
		closed := m.closed
		m.conn = nil
		m.mu.Unlock()

		if closed || ctx.Err() != nil {
			return
		}
		if errors.Is(err, errAuthRequired) {
			return
		}

		log.Warn().
			Str("product_id", m.ProductID()).
			Err(err).
			Msg("push feed disconnected, reconnecting")
		m.emit(ErrorEvent{Message: "connection lost", Recoverable: true})
		m.setState(StateReconnecting)
	}
}

// readLoop reads and dispatches messages until the connection drops.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		messages, err := Parse(data)
		if err != nil {
			log.Warn().Err(err).Msg("dropping unparseable push message")
			continue
		}

		for i := range messages {
			if err := m.dispatch(&messages[i]); err != nil {
				conn.Close()
				return err
			}
		}
	}
}

// dispatch converts one wire message into a typed event.
func (m *Manager) dispatch(msg *Message) error {
	switch msg.Type {
	case TypeRoomJoined:
		m.setState(StateRoomJoined)

	case TypePriceUpdate:
		if msg.CurrentPrice == nil {
			log.Warn().Str("product_id", msg.ProductID).Msg("price-update without currentPrice, dropped")
			return nil
		}
		m.emit(PriceUpdate{
			CurrentPrice: *msg.CurrentPrice,
			BidCount:     msg.BidCount,
			Winner:       msg.Winner,
			EndTime:      msg.EndTime,
		})

	case TypeBidHistoryUpdate:
		m.emit(BidHistoryUpdate{Bids: msg.Bids})

	case TypeError:
		if msg.RequiresLogin {
			// Reconnecting with the same credential cannot help.
			m.emit(ErrorEvent{Message: msg.Message, Recoverable: false})
			m.setState(StateFailed)
			return errAuthRequired
		}
		m.emit(ErrorEvent{Message: msg.Message, Recoverable: true})

	default:
		log.Debug().Str("type", msg.Type).Msg("ignoring unknown push message type")
	}
	return nil
}

// sendIntent writes a room intent for the manager's product.
func (m *Manager) sendIntent(intentType string) error {
	m.mu.Lock()
	conn := m.conn
	productID := m.productID
	m.mu.Unlock()

	if conn == nil {
		return errors.New("realtime: not connected")
	}

	data, err := json.Marshal(intentMessage{Type: intentType, ProductID: productID})
	if err != nil {
		return fmt.Errorf("marshaling %s intent: %w", intentType, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("writing %s intent: %w", intentType, err)
	}
	return nil
}

func (m *Manager) header() http.Header {
	if m.token == "" {
		return nil
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+m.token)
	return h
}

// fail records the terminal failed state and tells the consumer to surface
// it as offline.
func (m *Manager) fail(message string) {
	m.emit(ErrorEvent{Message: message, Recoverable: false})
	m.setState(StateFailed)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	m.mu.Unlock()

	m.emit(StateChange{State: s})
}

func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()

	if h != nil {
		h(ev)
	}
}
