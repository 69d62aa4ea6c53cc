package auction

import (
	"fmt"
	"sync"
	"time"
)

// EndedText is the terminal remaining-time text once the end time passes.
const EndedText = "Ended"

// Reconciler merges the three asynchronous update sources of an auction view
// (snapshot fetch, push events, countdown ticks) into one ViewState. It is
// the only writer of that state.
//
// Price and history updates are idempotent last-write-wins overwrites; the
// feed is trusted to deliver events in server-send order. The countdown tick
// only rewrites the remaining-time text, never price or end time.
type Reconciler struct {
	mu    sync.Mutex
	state ViewState

	// Fields already written by a push event are not re-seeded by a
	// snapshot that arrives late.
	touchedPrice    bool
	touchedBidCount bool
	touchedWinner   bool
	touchedEndTime  bool
	touchedHistory  bool
}

// NewReconciler creates an empty reconciler for one product.
func NewReconciler(productID string) *Reconciler {
	return &Reconciler{
		state: ViewState{ProductID: productID},
	}
}

// State returns a copy of the current view state. The bid history slice is
// copied so callers cannot alias the reconciler's internal state.
func (r *Reconciler) State() ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state
	if len(r.state.BidHistory) > 0 {
		s.BidHistory = make([]Bid, len(r.state.BidHistory))
		copy(s.BidHistory, r.state.BidHistory)
	}
	return s
}

// Seed initializes the view state from a snapshot. Fields that a push event
// has already written are left alone: the transport may deliver events before
// the one-time snapshot fetch resolves, and the event-derived value is newer.
func (r *Reconciler) Seed(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Title = snap.Title
	r.state.StepPrice = snap.StepPrice
	r.state.BuyNowPrice = snap.BuyNowPrice

	if !r.touchedPrice {
		r.state.CurrentPrice = snap.CurrentPrice
	}
	if !r.touchedBidCount {
		r.state.BidCount = snap.BidCount
	}
	if !r.touchedWinner {
		r.state.Winner = snap.Winner
	}
	if !r.touchedEndTime {
		r.state.EndTime = snap.EndTime
	}
	if r.state.ConnectionStatus == "" {
		r.state.ConnectionStatus = ConnAwaiting
	}
}

// ApplyPrice applies a price push event. Only fields present in the event are
// overwritten; an event is a partial update, never a full replacement.
func (r *Reconciler) ApplyPrice(u PriceUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.CurrentPrice = u.CurrentPrice
	r.touchedPrice = true

	if u.BidCount != nil {
		r.state.BidCount = *u.BidCount
		r.touchedBidCount = true
	}
	if u.Winner != nil {
		r.state.Winner = u.Winner
		r.touchedWinner = true
	}
	if u.EndTime != nil {
		r.state.EndTime = *u.EndTime
		r.touchedEndTime = true
	}
}

// SeedHistory seeds the bid history from the one-time REST fetch. A push
// event that already replaced the history wins over a late fetch result.
func (r *Reconciler) SeedHistory(bids []Bid) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.touchedHistory {
		return
	}
	r.state.BidHistory = bids
}

// ReplaceHistory replaces the bid history wholesale. The feed is
// authoritative and pre-ordered; no client-side merging or de-duplication.
func (r *Reconciler) ReplaceHistory(bids []Bid) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.BidHistory = bids
	r.touchedHistory = true
}

// SetConnectionStatus updates the connection indicator. A disconnected view
// keeps showing its last known state.
func (r *Reconciler) SetConnectionStatus(status ConnectionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.ConnectionStatus = status
}

// Tick recomputes the remaining-time text from the known end time. It
// returns false once the auction has ended and ticking should stop. Ticks
// before the end time is known are no-ops.
func (r *Reconciler) Tick(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.EndTime.IsZero() {
		return true
	}

	remaining := r.state.EndTime.Sub(now)
	if remaining <= 0 {
		r.state.TimeRemaining = EndedText
		r.state.Ended = true
		return false
	}

	r.state.TimeRemaining = formatRemaining(remaining)
	return true
}

// formatRemaining renders a countdown as HH:MM:SS with unbounded hours.
func formatRemaining(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}
