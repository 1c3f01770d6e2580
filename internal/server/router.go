package server

import (
	"auction-house/internal/config"
	handler "auction-house/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService handler.AuctionServiceInterface, biddingService handler.BiddingServiceInterface, ws *WSHandler, cfg config.App) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService)
	biddingHandler := handler.NewBiddingHandler(biddingService)

	auth := JWTAuthMiddleware(cfg.JWTSecret)

	auctions := router.Group("/auctions", auth)
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.PATCH("/:auction_id", auctionHandler.UpdateAuctionHandler)
		auctions.DELETE("/:auction_id", auctionHandler.DeleteAuctionHandler)
		auctions.POST("/:auction_id/status", auctionHandler.TransitionAuctionHandler)
		auctions.POST("/:auction_id/bids", biddingHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", biddingHandler.GetBidsByAuctionHandler)
	}

	bids := router.Group("/bids", auth)
	{
		bids.GET("/:bid_id", biddingHandler.GetBidHandler)
	}

	router.GET("/ws", auth, ws.Handle)

	return router
}
