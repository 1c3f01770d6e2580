package helpers

import (
	"time"

	model "auction-house/internal/models"
)

// Request/Response DTOs
type CreateAuctionRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	StartPrice  float64   `json:"start_price" binding:"required,gt=0"`
	EndDate     time.Time `json:"end_date" binding:"required"`
}

type UpdateAuctionRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartPrice  *float64   `json:"start_price"`
	EndDate     *time.Time `json:"end_date"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

type PlaceBidRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type AuctionResponse struct {
	AuctionID    string `json:"auction_id"`
	OwnerID      string `json:"owner_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	StartPrice   string `json:"start_price"`
	CurrentPrice string `json:"current_price"`
	EndDate      string `json:"end_date"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	UserID    string `json:"user_id"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type AuctionDetailResponse struct {
	AuctionResponse
	Bids []BidResponse `json:"bids"`
}

// ToAuctionResponse converts a domain auction to its API shape
func ToAuctionResponse(a model.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:    a.AuctionID,
		OwnerID:      a.OwnerID,
		Title:        a.Title,
		Description:  a.Description,
		StartPrice:   a.StartPrice.String(),
		CurrentPrice: a.CurrentPrice.String(),
		EndDate:      a.EndDate.UTC().Format(time.RFC3339),
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToBidResponse converts a domain bid to its API shape
func ToBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		AuctionID: b.AuctionID,
		UserID:    b.UserID,
		Amount:    b.Amount.String(),
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToBidResponses converts a bid list, never returning nil
func ToBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, ToBidResponse(b))
	}
	return out
}
