package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"

	"github.com/shopspring/decimal"
)

// ListFilter narrows and orders an auction listing
type ListFilter struct {
	Status  *model.AuctionStatus
	OwnerID string
	SortBy  string // "end_date" or "created_at"
	Desc    bool
	Offset  int
	Limit   int // 0 means no limit
}

// AuctionPatch carries the mutable auction fields; nil means leave unchanged
type AuctionPatch struct {
	Title       *string
	Description *string
	StartPrice  *decimal.Decimal
	EndDate     *time.Time
}

// BidOutcome is the result of the atomic compare-and-raise step. When
// Accepted is false, Floor carries the amount the candidate failed to exceed
// at commit time.
type BidOutcome struct {
	Accepted   bool
	Floor      decimal.Decimal
	Auction    model.Auction
	HighestBid *model.Bid
}

// AuctionStore defines the persistence interface for the auction system
type AuctionStore interface {
	CreateAuction(ctx context.Context, auction model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, []model.Bid, error)
	ListAuctions(ctx context.Context, filter ListFilter) ([]model.Auction, error)
	UpdateAuctionFields(ctx context.Context, auctionID string, patch AuctionPatch) (model.Auction, error)
	UpdateAuctionStatus(ctx context.Context, auctionID string, status model.AuctionStatus) (model.Auction, error)
	DeleteAuction(ctx context.Context, auctionID string) error
	AppendBidIfHighest(ctx context.Context, auctionID string, bid model.Bid) (BidOutcome, error)
	ListBids(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetBid(ctx context.Context, bidID string) (model.Bid, error)
}

// auctionRecord holds one auction and its accepted bids. Each record carries
// its own lock so bids on different auctions never contend.
type auctionRecord struct {
	mu      sync.Mutex
	auction model.Auction
	bids    []model.Bid // in acceptance order, strictly increasing in amount
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]*auctionRecord
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]*auctionRecord),
	}
}

// checkCtx surfaces an expired or cancelled context as a store failure
func checkCtx(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %v: %w", op, err, auctionerrors.ErrStoreUnavailable)
	}
	return nil
}

func (s *MemoryStore) record(auctionID string) (*auctionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.auctions[auctionID]
	return rec, ok
}

// CreateAuction stores a new auction record
func (s *MemoryStore) CreateAuction(ctx context.Context, auction model.Auction) error {
	if err := checkCtx(ctx, "create auction"); err != nil {
		return err
	}

	auction.Version = 1
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[auction.AuctionID] = &auctionRecord{auction: auction}
	return nil
}

// GetAuction returns an auction and its bids sorted by amount descending
func (s *MemoryStore) GetAuction(ctx context.Context, auctionID string) (model.Auction, []model.Bid, error) {
	if err := checkCtx(ctx, "get auction"); err != nil {
		return model.Auction{}, nil, err
	}

	rec, ok := s.record(auctionID)
	if !ok {
		return model.Auction{}, nil, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.auction, sortedByAmountDesc(rec.bids), nil
}

// ListAuctions returns auctions matching the filter, ordered and paginated
func (s *MemoryStore) ListAuctions(ctx context.Context, filter ListFilter) ([]model.Auction, error) {
	if err := checkCtx(ctx, "list auctions"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	all := make([]model.Auction, 0, len(s.auctions))
	for _, rec := range s.auctions {
		rec.mu.Lock()
		a := rec.auction
		rec.mu.Unlock()
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.OwnerID != "" && a.OwnerID != filter.OwnerID {
			continue
		}
		all = append(all, a)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		var before bool
		switch filter.SortBy {
		case "end_date":
			before = all[i].EndDate.Before(all[j].EndDate)
		default:
			before = all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		if filter.Desc {
			return !before
		}
		return before
	})

	// negative values behave like the zero value
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Offset >= len(all) {
		return []model.Auction{}, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, nil
}

// UpdateAuctionFields applies a partial update to an auction. When the start
// price changes before any bid exists, the current price follows it.
func (s *MemoryStore) UpdateAuctionFields(ctx context.Context, auctionID string, patch AuctionPatch) (model.Auction, error) {
	if err := checkCtx(ctx, "update auction"); err != nil {
		return model.Auction{}, err
	}

	rec, ok := s.record(auctionID)
	if !ok {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if patch.Title != nil {
		rec.auction.Title = *patch.Title
	}
	if patch.Description != nil {
		rec.auction.Description = *patch.Description
	}
	if patch.StartPrice != nil {
		rec.auction.StartPrice = *patch.StartPrice
		if len(rec.bids) == 0 {
			rec.auction.CurrentPrice = *patch.StartPrice
		}
	}
	if patch.EndDate != nil {
		rec.auction.EndDate = *patch.EndDate
	}
	rec.auction.Version++
	return rec.auction, nil
}

// UpdateAuctionStatus sets the auction's lifecycle status
func (s *MemoryStore) UpdateAuctionStatus(ctx context.Context, auctionID string, status model.AuctionStatus) (model.Auction, error) {
	if err := checkCtx(ctx, "update auction status"); err != nil {
		return model.Auction{}, err
	}

	rec, ok := s.record(auctionID)
	if !ok {
		return model.Auction{}, fmt.Errorf("update auction status %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.auction.Status = status
	rec.auction.Version++
	return rec.auction, nil
}

// DeleteAuction removes an auction and its bids
func (s *MemoryStore) DeleteAuction(ctx context.Context, auctionID string) error {
	if err := checkCtx(ctx, "delete auction"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auctions[auctionID]; !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	delete(s.auctions, auctionID)
	return nil
}

// AppendBidIfHighest is the atomic compare-and-raise step: under the
// auction's lock it revalidates the lifecycle state and the end date, then
// recomputes the floor and either accepts the candidate (persisting it,
// stamping its acceptance time and raising the current price) or rejects it
// with the floor it failed to exceed. The service's pre-checks are advisory;
// a transition or bid landing between its read and this call is caught here.
// Two bids racing for the same auction serialize here; exactly one observes
// the other's amount as its floor.
func (s *MemoryStore) AppendBidIfHighest(ctx context.Context, auctionID string, bid model.Bid) (BidOutcome, error) {
	if err := checkCtx(ctx, "append bid"); err != nil {
		return BidOutcome{}, err
	}

	rec, ok := s.record(auctionID)
	if !ok {
		return BidOutcome{}, fmt.Errorf("append bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.auction.Status != model.StatusActive {
		return BidOutcome{}, fmt.Errorf("append bid for auction %s: auction is %s: %w", auctionID, rec.auction.Status, auctionerrors.ErrInvalidState)
	}
	if rec.auction.EndDate.Before(time.Now()) {
		return BidOutcome{}, fmt.Errorf("append bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionExpired)
	}

	floor := rec.auction.StartPrice
	if n := len(rec.bids); n > 0 {
		floor = rec.bids[n-1].Amount
	}

	if !bid.Amount.GreaterThan(floor) {
		return BidOutcome{Accepted: false, Floor: floor, Auction: rec.auction, HighestBid: highestOf(rec.bids)}, nil
	}

	bid.CreatedAt = time.Now().UTC()
	rec.bids = append(rec.bids, bid)
	rec.auction.CurrentPrice = bid.Amount
	rec.auction.Version++

	accepted := bid
	return BidOutcome{Accepted: true, Floor: floor, Auction: rec.auction, HighestBid: &accepted}, nil
}

// ListBids returns all bids for an auction sorted by amount descending
func (s *MemoryStore) ListBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if err := checkCtx(ctx, "list bids"); err != nil {
		return nil, err
	}

	rec, ok := s.record(auctionID)
	if !ok {
		return nil, fmt.Errorf("list bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return sortedByAmountDesc(rec.bids), nil
}

// GetBid looks a single bid up by id
func (s *MemoryStore) GetBid(ctx context.Context, bidID string) (model.Bid, error) {
	if err := checkCtx(ctx, "get bid"); err != nil {
		return model.Bid{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.auctions {
		rec.mu.Lock()
		for _, b := range rec.bids {
			if b.BidID == bidID {
				rec.mu.Unlock()
				return b, nil
			}
		}
		rec.mu.Unlock()
	}
	return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, auctionerrors.ErrBidNotFound)
}

// highestOf returns the last accepted bid, which by the monotonicity
// invariant is also the highest
func highestOf(bids []model.Bid) *model.Bid {
	if len(bids) == 0 {
		return nil
	}
	top := bids[len(bids)-1]
	return &top
}

func sortedByAmountDesc(bids []model.Bid) []model.Bid {
	out := append([]model.Bid(nil), bids...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Equal(out[j].Amount) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}
