package bid

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Origin distinguishes a stepped bid from an immediate buy-now purchase. The
// confirmation dialog words the two differently.
type Origin string

const (
	OriginBid    Origin = "bid"
	OriginBuyNow Origin = "buy-now"
)

// FlowState is the lifecycle state of a confirmation flow.
type FlowState string

const (
	FlowIdle                 FlowState = "idle"
	FlowAwaitingConfirmation FlowState = "awaiting-confirmation"
	FlowSubmitting           FlowState = "submitting"
)

var (
	// ErrNotValidated is returned when a candidate without a valid
	// evaluation is proposed for confirmation.
	ErrNotValidated = errors.New("bid: candidate is not valid")

	// ErrSubmitInProgress is returned when a second bid attempt arrives
	// while a submission is already in flight. No network call is made.
	ErrSubmitInProgress = errors.New("bid: submission already in progress")

	// ErrNoPendingBid is returned when Confirm or Cancel is called with no
	// candidate awaiting confirmation.
	ErrNoPendingBid = errors.New("bid: no bid awaiting confirmation")
)

// Submitter sends a confirmed bid to the marketplace.
type Submitter interface {
	SubmitBid(ctx context.Context, productID string, amount int64) error
}

// Prompt describes the pending bid shown in the confirmation dialog.
type Prompt struct {
	Amount int64

	// Delta is the amount over the current price at proposal time.
	Delta int64

	Origin Origin
}

// Flow gates one validated candidate through explicit user confirmation
// before submission. At most one pending bid exists at a time, and the
// submitter is invoked exactly once per confirmed bid. The displayed price is
// never bumped locally on success; the authoritative price arrives with the
// next push event.
type Flow struct {
	submitter Submitter

	mu      sync.Mutex
	state   FlowState
	pending Prompt
}

// NewFlow creates an idle confirmation flow backed by the given submitter.
func NewFlow(submitter Submitter) *Flow {
	return &Flow{
		submitter: submitter,
		state:     FlowIdle,
	}
}

// State returns the current flow state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Pending returns the bid awaiting confirmation, if any.
func (f *Flow) Pending() (Prompt, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, f.state == FlowAwaitingConfirmation
}

// Propose stages a candidate for confirmation. A standard bid requires a
// valid evaluation; a buy-now candidate is pre-validated by the fixed
// buy-now price. Proposing replaces any earlier unconfirmed candidate but is
// rejected while a submission is in flight.
func (f *Flow) Propose(eval Evaluation, currentPrice, amount int64, origin Origin) (Prompt, error) {
	if origin != OriginBuyNow && eval.Status != StatusValid {
		return Prompt{}, ErrNotValidated
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == FlowSubmitting {
		return Prompt{}, ErrSubmitInProgress
	}

	f.pending = Prompt{
		Amount: amount,
		Delta:  amount - currentPrice,
		Origin: origin,
	}
	f.state = FlowAwaitingConfirmation
	return f.pending, nil
}

// Confirm submits the pending bid and blocks until the submitter settles.
// The caller receives the outcome directly; on success the candidate is
// cleared, on rejection the error carries the server's message and the input
// is left for the user to adjust and retry. A concurrent Confirm while a
// submission is in flight returns ErrSubmitInProgress without a network call.
func (f *Flow) Confirm(ctx context.Context, productID string) error {
	f.mu.Lock()
	switch f.state {
	case FlowSubmitting:
		f.mu.Unlock()
		return ErrSubmitInProgress
	case FlowIdle:
		f.mu.Unlock()
		return ErrNoPendingBid
	}
	prompt := f.pending
	f.state = FlowSubmitting
	f.mu.Unlock()

	err := f.submitter.SubmitBid(ctx, productID, prompt.Amount)

	f.mu.Lock()
	f.state = FlowIdle
	f.pending = Prompt{}
	f.mu.Unlock()

	if err != nil {
		log.Warn().
			Str("product_id", productID).
			Int64("amount", prompt.Amount).
			Str("origin", string(prompt.Origin)).
			Err(err).
			Msg("bid submission rejected")
		return err
	}

	log.Info().
		Str("product_id", productID).
		Int64("amount", prompt.Amount).
		Str("origin", string(prompt.Origin)).
		Msg("bid submitted")
	return nil
}

// Cancel discards the bid awaiting confirmation. A submission already in
// flight cannot be cancelled.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case FlowSubmitting:
		return ErrSubmitInProgress
	case FlowIdle:
		return ErrNoPendingBid
	}

	f.state = FlowIdle
	f.pending = Prompt{}
	return nil
}
