// Package realtime provides the websocket client for the auction push feed.
package realtime

import (
	"time"

	"github.com/ngcgiang/auction-live-client/internal/auction"
)

// Message type identifiers on the push-feed wire contract.
const (
	// client -> server intents
	TypeJoinRoom  = "join-room"
	TypeLeaveRoom = "leave-room"

	// server -> client events
	TypeRoomJoined       = "room-joined"
	TypePriceUpdate      = "price-update"
	TypeBidHistoryUpdate = "bid-history-update"
	TypeError            = "error"
)

// intentMessage is a client->server room intent.
type intentMessage struct {
	Type      string `json:"type"`
	ProductID string `json:"productId"`
}

// Message is the envelope of a server->client push message. Optional fields
// are pointers so an absent field is distinguishable from a zero value.
type Message struct {
	Type          string          `json:"type"`
	ProductID     string          `json:"productId,omitempty"`
	CurrentPrice  *int64          `json:"currentPrice,omitempty"`
	BidCount      *int            `json:"bidCount,omitempty"`
	EndTime       *time.Time      `json:"endTime,omitempty"`
	Winner        *auction.Bidder `json:"winner,omitempty"`
	Bids          []auction.Bid   `json:"bids,omitempty"`
	Message       string          `json:"message,omitempty"`
	RequiresLogin bool            `json:"requiresLogin,omitempty"`
}

// State is the lifecycle state of a managed connection.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateRoomJoining  State = "room-joining"
	StateRoomJoined   State = "room-joined"
	StateReconnecting State = "reconnecting"

	// StateFailed is terminal: reconnection attempts are exhausted or the
	// server demanded re-authentication. The consumer surfaces it as
	// offline instead of retrying forever.
	StateFailed State = "failed"
)

// Event is a typed event delivered to the manager's handler.
type Event interface {
	event()
}

// PriceUpdate carries a new authoritative price. Nil fields were absent from
// the payload and must not overwrite existing view state.
type PriceUpdate struct {
	CurrentPrice int64
	BidCount     *int
	Winner       *auction.Bidder
	EndTime      *time.Time
}

// BidHistoryUpdate carries the authoritative, pre-ordered bid history.
type BidHistoryUpdate struct {
	Bids []auction.Bid
}

// StateChange reports a connection lifecycle transition.
type StateChange struct {
	State State
}

// ErrorEvent reports a transport or server error. Recoverable errors are
// followed by automatic reconnection; non-recoverable ones (authentication
// required, retries exhausted) stop it.
type ErrorEvent struct {
	Message     string
	Recoverable bool
}

func (PriceUpdate) event()      {}
func (BidHistoryUpdate) event() {}
func (StateChange) event()      {}
func (ErrorEvent) event()       {}

// Handler receives typed events from a Manager. Handlers run on the
// manager's read goroutine and must not block.
type Handler func(Event)
