// Package session ties the snapshot fetch, push feed, countdown timer, and
// bid confirmation flow together for one watched auction.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/ngcgiang/auction-live-client/internal/api"
	"github.com/ngcgiang/auction-live-client/internal/auction"
	"github.com/ngcgiang/auction-live-client/internal/bid"
	"github.com/ngcgiang/auction-live-client/internal/journal"
	"github.com/ngcgiang/auction-live-client/internal/money"
	"github.com/ngcgiang/auction-live-client/internal/realtime"
)

// Options configures a session. API and WSURL are required; everything else
// has a working zero value.
type Options struct {
	API       *api.Client
	WSURL     string
	Token     string
	Reconnect realtime.ReconnectConfig
	Clock     clockwork.Clock
	Journal   journal.Journal

	// OnState is invoked with a fresh copy of the view state after every
	// reconciliation. It runs on the session's goroutines and must not
	// block.
	OnState func(auction.ViewState)
}

// Session owns the live view of a single auction: one push-feed connection,
// one reconciler, one countdown ticker, one bid confirmation flow. A session
// is bound to its product for life; a different product gets a new session.
type Session struct {
	ProductID string

	id      string
	opts    Options
	rec     *auction.Reconciler
	conn    *realtime.Manager
	flow    *bid.Flow
	clock   clockwork.Clock
	journal journal.Journal

	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
}

// journalEntry is the shape of one recorded push event.
type journalEntry struct {
	Time      time.Time `json:"time"`
	ProductID string    `json:"productId"`
	Kind      string    `json:"kind"`
	Event     any       `json:"event"`
}

// New creates a session for one product.
func New(productID string, opts Options) (*Session, error) {
	if productID == "" {
		return nil, errors.New("session: product id required")
	}
	if opts.API == nil {
		return nil, errors.New("session: api client required")
	}
	if opts.WSURL == "" {
		return nil, errors.New("session: websocket url required")
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	jrnl := opts.Journal
	if jrnl == nil {
		jrnl = journal.NewNullJournal()
	}

	s := &Session{
		ProductID: productID,
		id:        uuid.NewString(),
		opts:      opts,
		rec:       auction.NewReconciler(productID),
		flow:      bid.NewFlow(opts.API),
		clock:     clock,
		journal:   jrnl,
	}
	return s, nil
}

// Start fetches the snapshot, opens the push-feed connection, and starts the
// countdown. Calling Start twice is a no-op.
func (s *Session) Start(parentCtx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel

	conn := realtime.NewManager(s.opts.WSURL)
	if s.opts.Token != "" {
		conn.WithToken(s.opts.Token)
	}
	if s.opts.Reconnect != (realtime.ReconnectConfig{}) {
		conn.WithReconnectConfig(s.opts.Reconnect)
	}
	conn.SetHandler(s.handleEvent)
	s.conn = conn

	if err := conn.Open(ctx, s.ProductID); err != nil {
		cancel()
		return err
	}

	go s.fetchSnapshot(ctx)
	go s.countdown(ctx)

	log.Info().
		Str("session_id", s.id).
		Str("product_id", s.ProductID).
		Msg("auction session started")

	return nil
}

// Stop leaves the room, releases the transport, and stops the countdown.
// Safe to call multiple times.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	var err error
	if s.conn != nil {
		err = s.conn.Close()
	}

	log.Info().
		Str("session_id", s.id).
		Str("product_id", s.ProductID).
		Msg("auction session stopped")

	return err
}

// State returns a copy of the current reconciled view state.
func (s *Session) State() auction.ViewState {
	return s.rec.State()
}

// ConnectionState returns the push-feed lifecycle state.
func (s *Session) ConnectionState() realtime.State {
	if s.conn == nil {
		return realtime.StateDisconnected
	}
	return s.conn.State()
}

// EvaluateInput sanitizes a raw input string and validates it against the
// current price and step.
func (s *Session) EvaluateInput(raw string) (int64, bid.Evaluation) {
	state := s.rec.State()
	amount := money.Sanitize(raw)
	return amount, bid.Evaluate(state.CurrentPrice, state.StepPrice, amount)
}

// ProposeBid stages an amount for confirmation. An amount equal to the
// product's buy-now price enters the flow as a buy-now purchase.
func (s *Session) ProposeBid(amount int64) (bid.Prompt, error) {
	state := s.rec.State()

	origin := bid.OriginBid
	if state.BuyNowPrice > 0 && amount == state.BuyNowPrice {
		origin = bid.OriginBuyNow
	}

	eval := bid.Evaluate(state.CurrentPrice, state.StepPrice, amount)
	return s.flow.Propose(eval, state.CurrentPrice, amount, origin)
}

// ConfirmBid submits the staged bid. The displayed price is not bumped on
// success; the authoritative price arrives with the next push event.
func (s *Session) ConfirmBid(ctx context.Context) error {
	return s.flow.Confirm(ctx, s.ProductID)
}

// CancelBid discards the staged bid.
func (s *Session) CancelBid() error {
	return s.flow.Cancel()
}

// FlowState returns the confirmation flow's state.
func (s *Session) FlowState() bid.FlowState {
	return s.flow.State()
}

// PendingBid returns the bid awaiting confirmation, if any.
func (s *Session) PendingBid() (bid.Prompt, bool) {
	return s.flow.Pending()
}

// fetchSnapshot resolves the one-time snapshot and initial history. A result
// arriving after the session stopped is discarded; the reconciler also
// refuses to clobber fields that push events have already written.
func (s *Session) fetchSnapshot(ctx context.Context) {
	snap, err := s.opts.API.FetchAuction(ctx, s.ProductID)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().
				Str("session_id", s.id).
				Str("product_id", s.ProductID).
				Err(err).
				Msg("snapshot fetch failed, relying on push feed")
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	if snap.ProductID != "" && snap.ProductID != s.ProductID {
		log.Warn().
			Str("session_id", s.id).
			Str("product_id", s.ProductID).
			Str("snapshot_product_id", snap.ProductID).
			Msg("discarding snapshot for a different product")
		return
	}

	s.rec.Seed(*snap)
	s.notify()

	bids, err := s.opts.API.FetchBidHistory(ctx, s.ProductID)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().
				Str("session_id", s.id).
				Str("product_id", s.ProductID).
				Err(err).
				Msg("bid history fetch failed")
		}
		return
	}
	if ctx.Err() != nil {
		return
	}

	s.rec.SeedHistory(bids)
	s.notify()
}

// countdown recomputes the remaining-time text once per second until the
// auction ends or the session stops.
func (s *Session) countdown(ctx context.Context) {
	ticker := s.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			running := s.rec.Tick(s.clock.Now())
			if s.rec.State().TimeRemaining != "" {
				s.notify()
			}
			if !running {
				return
			}
		}
	}
}

// handleEvent feeds one push-feed event into the reconciler.
func (s *Session) handleEvent(ev realtime.Event) {
	switch e := ev.(type) {
	case realtime.PriceUpdate:
		s.rec.ApplyPrice(auction.PriceUpdate{
			CurrentPrice: e.CurrentPrice,
			BidCount:     e.BidCount,
			Winner:       e.Winner,
			EndTime:      e.EndTime,
		})
		s.record("price-update", e)
		s.notify()

	case realtime.BidHistoryUpdate:
		s.rec.ReplaceHistory(e.Bids)
		s.record("bid-history-update", e)
		s.notify()

	case realtime.StateChange:
		s.rec.SetConnectionStatus(statusFor(e.State))
		s.notify()

	case realtime.ErrorEvent:
		evt := log.Warn()
		if !e.Recoverable {
			evt = log.Error()
		}
		evt.
			Str("session_id", s.id).
			Str("product_id", s.ProductID).
			Str("message", e.Message).
			Bool("recoverable", e.Recoverable).
			Msg("push feed error")
		s.record("error", e)
	}
}

func (s *Session) record(kind string, event any) {
	entry := journalEntry{
		Time:      s.clock.Now(),
		ProductID: s.ProductID,
		Kind:      kind,
		Event:     event,
	}
	if err := s.journal.Record(entry); err != nil {
		log.Warn().Str("session_id", s.id).Err(err).Msg("journal write failed")
	}
}

func (s *Session) notify() {
	if s.opts.OnState != nil {
		s.opts.OnState(s.rec.State())
	}
}

// statusFor maps a connection lifecycle state onto the informational
// indicator shown next to the auction.
func statusFor(state realtime.State) auction.ConnectionStatus {
	switch state {
	case realtime.StateRoomJoined:
		return auction.ConnLive
	case realtime.StateConnecting, realtime.StateConnected, realtime.StateRoomJoining:
		return auction.ConnAwaiting
	default:
		return auction.ConnOffline
	}
}
