package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionServiceInterface interface {
	CreateAuction(ctx context.Context, ownerID, title, description string, startPrice decimal.Decimal, endDate time.Time) (model.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (model.Auction, []model.Bid, error)
	ListAuctions(ctx context.Context, filter repository.ListFilter) ([]model.Auction, error)
	UpdateAuction(ctx context.Context, auctionID, callerID string, patch repository.AuctionPatch) (model.Auction, error)
	DeleteAuction(ctx context.Context, auctionID, callerID string) error
	Transition(ctx context.Context, auctionID, callerID string, target model.AuctionStatus) (model.Auction, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	callerID := helpers.CallerID(c)
	auction, err := h.service.CreateAuction(c.Request.Context(), callerID, req.Title, req.Description, decimal.NewFromFloat(req.StartPrice), req.EndDate)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"handler":  "CreateAuctionHandler",
			"owner_id": callerID,
			"error":    err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToAuctionResponse(auction), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"owner_id":   callerID,
	})
}

// ListAuctionsHandler handles GET /auctions
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	filter := repository.ListFilter{
		OwnerID: c.Query("owner_id"),
		SortBy:  c.Query("sort_by"),
		Desc:    c.Query("order") == "desc",
	}
	if raw := c.Query("status"); raw != "" {
		status := model.AuctionStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			rejectListQuery(c, "offset", raw)
			return
		}
		filter.Offset = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			rejectListQuery(c, "limit", raw)
			return
		}
		filter.Limit = n
	}

	auctions, err := h.service.ListAuctions(c.Request.Context(), filter)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListAuctionsHandler: error listing auctions", map[string]any{"error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.ToAuctionResponse(a))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{"count": len(resp)})
}

// rejectListQuery answers a non-numeric pagination parameter with 400
func rejectListQuery(c *gin.Context, param, raw string) {
	err := fmt.Errorf("%s must be an integer, got %q: %w", param, raw, auctionerrors.ErrInvalidInput)
	status, message := helpers.MapErrorToHTTP(err)
	utils.JSONError(c, status, err, message)
	utils.Warn("ListAuctionsHandler: malformed query parameter", map[string]any{"param": param, "value": raw})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, bids, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := helpers.AuctionDetailResponse{
		AuctionResponse: helpers.ToAuctionResponse(auction),
		Bids:            helpers.ToBidResponses(bids),
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auction retrieved successfully")
	helpers.LogSuccess("GetAuctionHandler", "auction retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"bid_count":  len(bids),
	})
}

// UpdateAuctionHandler handles PATCH /auctions/:auction_id
func (h *AuctionHandler) UpdateAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.UpdateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateAuctionHandler", err)
		return
	}

	patch := repository.AuctionPatch{
		Title:       req.Title,
		Description: req.Description,
		EndDate:     req.EndDate,
	}
	if req.StartPrice != nil {
		price := decimal.NewFromFloat(*req.StartPrice)
		patch.StartPrice = &price
	}

	callerID := helpers.CallerID(c)
	auction, err := h.service.UpdateAuction(c.Request.Context(), auctionID, callerID, patch)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("UpdateAuctionHandler: failed to update auction", map[string]any{
			"auction_id": auctionID,
			"caller_id":  callerID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(auction), "auction updated successfully")
	helpers.LogSuccess("UpdateAuctionHandler", "auction updated successfully", map[string]any{
		"auction_id": auctionID,
		"caller_id":  callerID,
	})
}

// DeleteAuctionHandler handles DELETE /auctions/:auction_id
func (h *AuctionHandler) DeleteAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	callerID := helpers.CallerID(c)

	if err := h.service.DeleteAuction(c.Request.Context(), auctionID, callerID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("DeleteAuctionHandler: failed to delete auction", map[string]any{
			"auction_id": auctionID,
			"caller_id":  callerID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONDeleted(c, "auction deleted successfully")
	helpers.LogSuccess("DeleteAuctionHandler", "auction deleted successfully", map[string]any{
		"auction_id": auctionID,
		"caller_id":  callerID,
	})
}

// TransitionAuctionHandler handles POST /auctions/:auction_id/status
func (h *AuctionHandler) TransitionAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "TransitionAuctionHandler", err)
		return
	}

	callerID := helpers.CallerID(c)
	auction, err := h.service.Transition(c.Request.Context(), auctionID, callerID, model.AuctionStatus(req.Status))
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("TransitionAuctionHandler: failed to transition auction", map[string]any{
			"auction_id": auctionID,
			"caller_id":  callerID,
			"target":     req.Status,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(auction), "auction status updated successfully")
	helpers.LogSuccess("TransitionAuctionHandler", "auction status updated successfully", map[string]any{
		"auction_id": auctionID,
		"status":     req.Status,
	})
}
