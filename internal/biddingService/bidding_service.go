package bidding

import (
	"context"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"

	"github.com/shopspring/decimal"
)

// Notifier receives the canonical snapshot after every accepted bid
type Notifier interface {
	Publish(snap model.Snapshot)
}

// BiddingService is the bid ledger: it validates submissions against the
// auction's lifecycle state and current floor, and delegates acceptance to
// the store's atomic compare-and-raise step.
type BiddingService struct {
	store        repository.AuctionStore
	notifier     Notifier
	storeTimeout time.Duration
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(store repository.AuctionStore, notifier Notifier, storeTimeout time.Duration) *BiddingService {
	return &BiddingService{
		store:        store,
		notifier:     notifier,
		storeTimeout: storeTimeout,
	}
}

func (s *BiddingService) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// PlaceBid validates and records a user's bid on an auction. The pre-checks
// here are advisory; the store's AppendBidIfHighest recomputes the floor
// under the auction's lock, so a bid that loses a race is rejected there
// with the fresh floor rather than silently retried.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidInput)
	}

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()

	auction, bids, err := s.store.GetAuction(opCtx, auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	if auction.Status != model.StatusActive {
		return model.Bid{}, fmt.Errorf("service: %w - auction %s is %s", auctionerrors.ErrInvalidState, auctionID, auction.Status)
	}
	if auction.EndDate.Before(time.Now()) {
		return model.Bid{}, fmt.Errorf("service: %w - auction %s", auctionerrors.ErrAuctionExpired, auctionID)
	}
	if auction.OwnerID == bidderID {
		return model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrSelfBid)
	}

	floor := auction.StartPrice
	if len(bids) > 0 {
		floor = bids[0].Amount
	}
	if !amount.GreaterThan(floor) {
		return model.Bid{}, tooLow(floor)
	}

	bid := model.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		UserID:    bidderID,
		Amount:    amount,
	}

	outcome, err := s.store.AppendBidIfHighest(opCtx, auctionID, bid)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to record bid for auction %s by user %s: %w", auctionID, bidderID, err)
	}
	if !outcome.Accepted {
		// lost the race: a concurrent bid raised the floor first
		return model.Bid{}, tooLow(outcome.Floor)
	}
	if outcome.HighestBid == nil || outcome.HighestBid.BidID != bid.BidID {
		// the store accepted a bid that is not the one we handed it;
		// the ledger is inconsistent and continuing would corrupt state
		panic(fmt.Sprintf("bid ledger: accepted bid mismatch for auction %s", auctionID))
	}

	s.notifier.Publish(model.SnapshotOf(outcome.Auction, outcome.HighestBid))
	return *outcome.HighestBid, nil
}

// ListBids returns all bids for an auction sorted by amount descending
func (s *BiddingService) ListBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	bids, err := s.store.ListBids(opCtx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetBid returns a single bid by id
func (s *BiddingService) GetBid(ctx context.Context, bidID string) (model.Bid, error) {
	if bidID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - empty bid ID", auctionerrors.ErrInvalidInput)
	}

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	bid, err := s.store.GetBid(opCtx, bidID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to get bid %s: %w", bidID, err)
	}
	return bid, nil
}

// tooLow builds a rejection that tells the caller the floor to beat
func tooLow(floor decimal.Decimal) error {
	return fmt.Errorf("service: %w - current floor is %s", auctionerrors.ErrBidTooLow, floor.String())
}
