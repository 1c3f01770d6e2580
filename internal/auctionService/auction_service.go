package auction

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

// Notifier receives the canonical snapshot after every accepted state change
type Notifier interface {
	Publish(snap model.Snapshot)
}

// AuctionService owns the auction lifecycle: creation, draft mutation,
// status transitions and reads. Bidding lives in the bidding service.
type AuctionService struct {
	store        repository.AuctionStore
	notifier     Notifier
	storeTimeout time.Duration
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(store repository.AuctionStore, notifier Notifier, storeTimeout time.Duration) *AuctionService {
	return &AuctionService{
		store:        store,
		notifier:     notifier,
		storeTimeout: storeTimeout,
	}
}

// opCtx bounds every store interaction so a stalled store surfaces as
// StoreUnavailable instead of hanging the caller
func (s *AuctionService) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// CreateAuction validates and stores a new auction in DRAFT state
func (s *AuctionService) CreateAuction(ctx context.Context, ownerID, title, description string, startPrice decimal.Decimal, endDate time.Time) (model.Auction, error) {
	if ownerID == "" || title == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing ownerID or title", auctionerrors.ErrInvalidInput)
	}
	if !startPrice.IsPositive() {
		return model.Auction{}, fmt.Errorf("service: %w - start price must be positive", auctionerrors.ErrInvalidInput)
	}
	if !endDate.After(time.Now()) {
		return model.Auction{}, fmt.Errorf("service: %w - end date must be in the future", auctionerrors.ErrInvalidInput)
	}

	auction := model.Auction{
		AuctionID:    utils.GenerateID(),
		OwnerID:      ownerID,
		Title:        title,
		Description:  description,
		StartPrice:   startPrice,
		CurrentPrice: startPrice,
		EndDate:      endDate.UTC(),
		Status:       model.StatusDraft,
		CreatedAt:    time.Now().UTC(),
	}

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.store.CreateAuction(opCtx, auction); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction for owner %s: %w", ownerID, err)
	}

	return auction, nil
}

// GetAuction returns an auction with its bids sorted by amount descending
func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (model.Auction, []model.Bid, error) {
	if auctionID == "" {
		return model.Auction{}, nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	auction, bids, err := s.store.GetAuction(opCtx, auctionID)
	if err != nil {
		return model.Auction{}, nil, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return auction, bids, nil
}

// ListAuctions returns auctions matching the filter
func (s *AuctionService) ListAuctions(ctx context.Context, filter repository.ListFilter) ([]model.Auction, error) {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	auctions, err := s.store.ListAuctions(opCtx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// UpdateAuction applies a partial update. Legal only while the auction is
// still DRAFT and only for its owner.
func (s *AuctionService) UpdateAuction(ctx context.Context, auctionID, callerID string, patch repository.AuctionPatch) (model.Auction, error) {
	auction, bids, err := s.GetAuction(ctx, auctionID)
	if err != nil {
		return model.Auction{}, err
	}

	if auction.OwnerID != callerID {
		return model.Auction{}, fmt.Errorf("service: %w - only the owner may update an auction", auctionerrors.ErrForbidden)
	}
	if auction.Status != model.StatusDraft {
		return model.Auction{}, fmt.Errorf("service: %w - only draft auctions may be updated", auctionerrors.ErrForbidden)
	}
	if patch.EndDate != nil && !patch.EndDate.After(time.Now()) {
		return model.Auction{}, fmt.Errorf("service: %w - end date must be in the future", auctionerrors.ErrInvalidInput)
	}
	if patch.StartPrice != nil && !patch.StartPrice.IsPositive() {
		return model.Auction{}, fmt.Errorf("service: %w - start price must be positive", auctionerrors.ErrInvalidInput)
	}

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	updated, err := s.store.UpdateAuctionFields(opCtx, auctionID, patch)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to update auction %s: %w", auctionID, err)
	}

	s.notifier.Publish(model.SnapshotOf(updated, highestOf(bids)))
	return updated, nil
}

// DeleteAuction removes an auction. Legal only while DRAFT and only for the
// owner; active and completed auctions are never deleted.
func (s *AuctionService) DeleteAuction(ctx context.Context, auctionID, callerID string) error {
	auction, _, err := s.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}

	if auction.OwnerID != callerID {
		return fmt.Errorf("service: %w - only the owner may delete an auction", auctionerrors.ErrForbidden)
	}
	if auction.Status != model.StatusDraft {
		return fmt.Errorf("service: %w - only draft auctions may be deleted", auctionerrors.ErrInvalidTransition)
	}

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.store.DeleteAuction(opCtx, auctionID); err != nil {
		return fmt.Errorf("service: failed to delete auction %s: %w", auctionID, err)
	}
	return nil
}

// Transition moves an auction to a new lifecycle status. Completing an
// auction additionally requires its end date to have passed.
func (s *AuctionService) Transition(ctx context.Context, auctionID, callerID string, target model.AuctionStatus) (model.Auction, error) {
	if !target.Valid() {
		return model.Auction{}, fmt.Errorf("service: %w - unknown status %q", auctionerrors.ErrInvalidInput, target)
	}

	auction, bids, err := s.GetAuction(ctx, auctionID)
	if err != nil {
		return model.Auction{}, err
	}

	if err := CanTransition(auction.Status, target); err != nil {
		return model.Auction{}, fmt.Errorf("service: %w", err)
	}
	if target == model.StatusCompleted && auction.EndDate.After(time.Now()) {
		return model.Auction{}, fmt.Errorf("service: %w - cannot complete before end date", auctionerrors.ErrTooEarly)
	}

	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	updated, err := s.store.UpdateAuctionStatus(opCtx, auctionID, target)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to transition auction %s: %w", auctionID, err)
	}

	utils.Info("auction transitioned", map[string]any{
		"auction_id": auctionID,
		"caller_id":  callerID,
		"status":     string(target),
	})

	s.notifier.Publish(model.SnapshotOf(updated, highestOf(bids)))
	return updated, nil
}

// highestOf picks the top bid from an amount-descending list
func highestOf(bids []model.Bid) *model.Bid {
	if len(bids) == 0 {
		return nil
	}
	top := bids[0]
	return &top
}
