package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nelthm/splitlater/internal/api"
	"github.com/nelthm/splitlater/internal/bot"
	"github.com/nelthm/splitlater/internal/config"
	"github.com/nelthm/splitlater/internal/db"
	"github.com/nelthm/splitlater/internal/receipt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Failed to load timezone %q: %v", cfg.Timezone, err)
	}

	// Connect to database
	database, err := db.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Restore open receipts into the in-memory service
	receipts := receipt.NewService(database, loc)
	persisted, err := database.LoadActiveReceipts(context.Background())
	if err != nil {
		log.Fatalf("Failed to load receipts: %v", err)
	}
	receipts.Restore(persisted)
	log.Printf("Restored %d open receipt(s)", len(persisted))

	// Initialize Discord bot
	discordBot, err := bot.New(cfg.DiscordToken, database, receipts)
	if err != nil {
		log.Fatalf("Failed to create discord bot: %v", err)
	}

	// Initialize API server
	apiServer := api.New(cfg, database, receipts)

	// Start Discord bot
	if err := discordBot.Start(); err != nil {
		log.Fatalf("Failed to start discord bot: %v", err)
	}
	defer discordBot.Stop()

	// Start API server
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
}
