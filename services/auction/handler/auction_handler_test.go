package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// asCaller injects an authenticated caller id, standing in for the JWT middleware
func asCaller(callerID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(helpers.CallerIDKey, callerID)
		c.Next()
	}
}

func performJSON(t *testing.T, router *gin.Engine, method, url string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func testAuction(auctionID, ownerID string, status model.AuctionStatus) model.Auction {
	price := decimal.NewFromInt(50)
	return model.Auction{
		AuctionID:    auctionID,
		OwnerID:      ownerID,
		Title:        "vintage clock",
		StartPrice:   price,
		CurrentPrice: price,
		EndDate:      time.Now().Add(24 * time.Hour).UTC(),
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}
}

// Test CreateAuctionHandler
func TestCreateAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions", asCaller("owner1"), handler.CreateAuctionHandler)

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "success",
			requestBody: helpers.CreateAuctionRequest{
				Title:      "vintage clock",
				StartPrice: 50,
				EndDate:    time.Now().Add(24 * time.Hour),
			},
			mockSetup: func() {
				mockService.EXPECT().
					CreateAuction(gomock.Any(), "owner1", "vintage clock", "", gomock.Any(), gomock.Any()).
					Return(testAuction(uuid.NewString(), "owner1", model.StatusDraft), nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
		},
		{
			name:           "invalid_json",
			requestBody:    `{invalid json}`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "missing_title",
			requestBody: helpers.CreateAuctionRequest{
				StartPrice: 50,
				EndDate:    time.Now().Add(24 * time.Hour),
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "zero_start_price",
			requestBody: helpers.CreateAuctionRequest{
				Title:   "clock",
				EndDate: time.Now().Add(24 * time.Hour),
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "past_end_date_from_service",
			requestBody: helpers.CreateAuctionRequest{
				Title:      "clock",
				StartPrice: 50,
				EndDate:    time.Now().Add(24 * time.Hour),
			},
			mockSetup: func() {
				mockService.EXPECT().
					CreateAuction(gomock.Any(), "owner1", "clock", "", gomock.Any(), gomock.Any()).
					Return(model.Auction{}, auctionerrors.ErrInvalidInput)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request details",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			w, resp := performJSON(t, router, http.MethodPost, "/auctions", tc.requestBody)

			require.Equal(t, tc.expectedStatus, w.Code)
			require.Equal(t, tc.expectedMsg, resp["message"])
		})
	}
}

// Test GetAuctionHandler
func TestGetAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/auctions/:auction_id", asCaller("user1"), handler.GetAuctionHandler)

	t.Run("found_with_bids", func(t *testing.T) {
		auction := testAuction("a1", "owner1", model.StatusActive)
		auction.CurrentPrice = decimal.NewFromInt(80)
		bids := []model.Bid{
			{BidID: "b2", AuctionID: "a1", UserID: "u2", Amount: decimal.NewFromInt(80), CreatedAt: time.Now().UTC()},
			{BidID: "b1", AuctionID: "a1", UserID: "u1", Amount: decimal.NewFromInt(60), CreatedAt: time.Now().UTC()},
		}
		mockService.EXPECT().GetAuction(gomock.Any(), "a1").Return(auction, bids, nil)

		w, resp := performJSON(t, router, http.MethodGet, "/auctions/a1", nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, "80", data["current_price"])
		returned := data["bids"].([]any)
		require.Len(t, returned, 2)
		first := returned[0].(map[string]any)
		require.Equal(t, "b2", first["bid_id"], "bids must come back sorted by amount descending")
	})

	t.Run("not_found", func(t *testing.T) {
		mockService.EXPECT().GetAuction(gomock.Any(), "missing").
			Return(model.Auction{}, nil, auctionerrors.ErrAuctionNotFound)

		w, resp := performJSON(t, router, http.MethodGet, "/auctions/missing", nil)

		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "auction not found", resp["message"])
	})
}

// Test ListAuctionsHandler query parsing
func TestListAuctionsHandlerPagination(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/auctions", asCaller("user1"), handler.ListAuctionsHandler)

	t.Run("offset_and_limit_are_parsed", func(t *testing.T) {
		mockService.EXPECT().
			ListAuctions(gomock.Any(), repository.ListFilter{Offset: 2, Limit: 5}).
			Return([]model.Auction{}, nil)

		w, _ := performJSON(t, router, http.MethodGet, "/auctions?offset=2&limit=5", nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("malformed_offset_is_rejected", func(t *testing.T) {
		// the service must not be reached
		w, resp := performJSON(t, router, http.MethodGet, "/auctions?offset=abc", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "invalid request details", resp["message"])
	})

	t.Run("malformed_limit_is_rejected", func(t *testing.T) {
		w, resp := performJSON(t, router, http.MethodGet, "/auctions?limit=ten", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "invalid request details", resp["message"])
	})
}

// Test TransitionAuctionHandler
func TestTransitionAuctionHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions/:auction_id/status", asCaller("owner1"), handler.TransitionAuctionHandler)

	tests := []struct {
		name           string
		target         string
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:   "activate",
			target: "ACTIVE",
			mockSetup: func() {
				mockService.EXPECT().
					Transition(gomock.Any(), "a1", "owner1", model.StatusActive).
					Return(testAuction("a1", "owner1", model.StatusActive), nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction status updated successfully",
		},
		{
			name:   "complete_too_early",
			target: "COMPLETED",
			mockSetup: func() {
				mockService.EXPECT().
					Transition(gomock.Any(), "a1", "owner1", model.StatusCompleted).
					Return(model.Auction{}, auctionerrors.ErrTooEarly)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction end date has not passed",
		},
		{
			name:   "illegal_transition",
			target: "DRAFT",
			mockSetup: func() {
				mockService.EXPECT().
					Transition(gomock.Any(), "a1", "owner1", model.StatusDraft).
					Return(model.Auction{}, auctionerrors.ErrInvalidTransition)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "illegal status transition",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			w, resp := performJSON(t, router, http.MethodPost, "/auctions/a1/status", helpers.TransitionRequest{Status: tc.target})

			require.Equal(t, tc.expectedStatus, w.Code)
			require.Equal(t, tc.expectedMsg, resp["message"])
		})
	}
}

// Test UpdateAuctionHandler / DeleteAuctionHandler authorization mapping
func TestAuctionOwnershipErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.PATCH("/auctions/:auction_id", asCaller("intruder"), handler.UpdateAuctionHandler)
	router.DELETE("/auctions/:auction_id", asCaller("intruder"), handler.DeleteAuctionHandler)

	t.Run("update_forbidden", func(t *testing.T) {
		mockService.EXPECT().
			UpdateAuction(gomock.Any(), "a1", "intruder", gomock.Any()).
			Return(model.Auction{}, auctionerrors.ErrForbidden)

		w, resp := performJSON(t, router, http.MethodPatch, "/auctions/a1", helpers.UpdateAuctionRequest{})

		require.Equal(t, http.StatusForbidden, w.Code)
		require.Equal(t, "operation not permitted", resp["message"])
	})

	t.Run("delete_forbidden", func(t *testing.T) {
		mockService.EXPECT().
			DeleteAuction(gomock.Any(), "a1", "intruder").
			Return(auctionerrors.ErrForbidden)

		w, resp := performJSON(t, router, http.MethodDelete, "/auctions/a1", nil)

		require.Equal(t, http.StatusForbidden, w.Code)
		require.Equal(t, "operation not permitted", resp["message"])
	})
}
