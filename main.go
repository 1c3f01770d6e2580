package main

import (
	auction "auction-house/internal/auctionService"
	bidding "auction-house/internal/biddingService"
	"auction-house/internal/broadcast"
	"auction-house/internal/config"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/internal/subscriptions"
	"auction-house/utils"
	"fmt"
	"os"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	store := repository.NewMemoryStore()
	registry := subscriptions.NewRegistry()
	coordinator := broadcast.NewCoordinator(registry)

	auctionSvc := auction.NewAuctionService(store, coordinator, cfg.StoreTimeout)
	biddingSvc := bidding.NewBiddingService(store, coordinator, cfg.StoreTimeout)

	ws := server.NewWSHandler(auctionSvc, registry, coordinator, cfg)
	router := server.SetupRouter(auctionSvc, biddingSvc, ws, cfg)

	utils.Info("starting auction server", map[string]any{"addr": cfg.HTTPAddr})
	if err := router.Run(cfg.HTTPAddr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
