package integrationtests

import (
	auction "auction-house/internal/auctionService"
	bidding "auction-house/internal/biddingService"
	"auction-house/internal/broadcast"
	"auction-house/internal/config"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/internal/subscriptions"
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testSecret = "integration-test-secret"

// SetupTestRouter wires the full application against the in-memory store
func SetupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.App{
		HTTPAddr:     ":0",
		JWTSecret:    testSecret,
		StoreTimeout: time.Second,
		WriteWait:    time.Second,
		PongWait:     60 * time.Second,
		SendBuffer:   16,
	}

	store := repository.NewMemoryStore()
	registry := subscriptions.NewRegistry()
	coordinator := broadcast.NewCoordinator(registry)

	auctionSvc := auction.NewAuctionService(store, coordinator, cfg.StoreTimeout)
	biddingSvc := bidding.NewBiddingService(store, coordinator, cfg.StoreTimeout)

	ws := server.NewWSHandler(auctionSvc, registry, coordinator, cfg)
	return server.SetupRouter(auctionSvc, biddingSvc, ws, cfg)
}

// TokenFor signs a short-lived access token for a test user
func TokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := server.CreateAccessToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return token
}

// ExecuteRequest executes an authenticated JSON request and parses the response
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// data extracts the data object from a response envelope
func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", resp)
	return d
}
