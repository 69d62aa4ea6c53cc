// Package auction defines the auction domain model and the reconciler that
// merges snapshot, push-event, and timer signals into one view state.
package auction

import "time"

// Bidder identifies a user in winner and bid-history payloads.
type Bidder struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Bid is one entry in an auction's bid history.
type Bid struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Bidder    Bidder    `json:"bidder"`
	Amount    int64     `json:"amount"`
	PlacedAt  time.Time `json:"placedAt"`
}

// Snapshot is a point-in-time view of an auction fetched over REST. It is
// immutable; a newer snapshot supersedes it, it is never mutated in place.
type Snapshot struct {
	ProductID    string    `json:"productId"`
	Title        string    `json:"title,omitempty"`
	CurrentPrice int64     `json:"currentPrice"`
	StepPrice    int64     `json:"stepPrice"`
	BuyNowPrice  int64     `json:"buyNowPrice,omitempty"`
	EndTime      time.Time `json:"endTime"`
	Winner       *Bidder   `json:"winner,omitempty"`
	BidCount     int       `json:"bidCount"`
}

// PriceUpdate is the reconciler-facing payload of a price push event. Nil
// fields were absent from the event and leave the view state untouched.
type PriceUpdate struct {
	CurrentPrice int64
	BidCount     *int
	Winner       *Bidder
	EndTime      *time.Time
}

// ConnectionStatus is the informational connection indicator shown next to
// the auction. It never gates price or history updates.
type ConnectionStatus string

const (
	ConnAwaiting ConnectionStatus = "awaiting-connection"
	ConnLive     ConnectionStatus = "live"
	ConnOffline  ConnectionStatus = "offline"
)

// ViewState is the reconciled, render-ready state of one auction view.
type ViewState struct {
	ProductID        string
	Title            string
	CurrentPrice     int64
	StepPrice        int64
	BuyNowPrice      int64
	EndTime          time.Time
	Winner           *Bidder
	BidCount         int
	BidHistory       []Bid
	TimeRemaining    string
	Ended            bool
	ConnectionStatus ConnectionStatus
}
