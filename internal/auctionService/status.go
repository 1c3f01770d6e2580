package auction

import (
	"fmt"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
)

// CanTransition validates a lifecycle transition. The only legal moves are
// DRAFT -> ACTIVE and ACTIVE -> COMPLETED; COMPLETED is terminal.
func CanTransition(from, to model.AuctionStatus) error {
	switch {
	case from == model.StatusDraft && to == model.StatusActive:
		return nil
	case from == model.StatusActive && to == model.StatusCompleted:
		return nil
	}
	return fmt.Errorf("transition %s -> %s: %w", from, to, auctionerrors.ErrInvalidTransition)
}
