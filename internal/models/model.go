package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus enumerates the lifecycle states of an auction
type AuctionStatus string

const (
	StatusDraft     AuctionStatus = "DRAFT"
	StatusActive    AuctionStatus = "ACTIVE"
	StatusCompleted AuctionStatus = "COMPLETED"
)

// Valid reports whether s is one of the known lifecycle states
func (s AuctionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// Auction represents a timed sale listed by a user
type Auction struct {
	AuctionID    string          `json:"auction_id"`
	OwnerID      string          `json:"owner_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	StartPrice   decimal.Decimal `json:"start_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	EndDate      time.Time       `json:"end_date"`
	Status       AuctionStatus   `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`

	// Version counts committed mutations of this auction. The store bumps it
	// under the record's lock, so it totally orders snapshots per auction.
	// Never serialized.
	Version uint64 `json:"-"`
}

// Bid represents a user's offer against an auction. Immutable once accepted.
type Bid struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Snapshot is the public price view of an auction pushed to observers.
// HighestBid is nil while no bid has been accepted. Version carries the
// auction's mutation counter so the broadcast path can discard a snapshot
// that has been overtaken by a newer one; zero means unversioned.
type Snapshot struct {
	AuctionID    string          `json:"auction_id"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	HighestBid   *Bid            `json:"highest_bid"`
	Version      uint64          `json:"-"`
}

// SnapshotOf builds the observer view from an auction and its highest bid
func SnapshotOf(a Auction, highest *Bid) Snapshot {
	return Snapshot{
		AuctionID:    a.AuctionID,
		CurrentPrice: a.CurrentPrice,
		HighestBid:   highest,
		Version:      a.Version,
	}
}
