// Command auction-watch follows one or more live auctions and prints the
// reconciled view state as it changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ngcgiang/auction-live-client/internal/api"
	"github.com/ngcgiang/auction-live-client/internal/auction"
	"github.com/ngcgiang/auction-live-client/internal/config"
	"github.com/ngcgiang/auction-live-client/internal/journal"
	"github.com/ngcgiang/auction-live-client/internal/money"
	"github.com/ngcgiang/auction-live-client/internal/obs"
	"github.com/ngcgiang/auction-live-client/internal/realtime"
	"github.com/ngcgiang/auction-live-client/internal/session"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	products := flag.String("products", "", "Comma-separated product IDs to watch")
	flag.Parse()

	if *products == "" {
		fmt.Println("Usage: auction-watch --products <id1,id2,...> [--config config.yaml]")
		os.Exit(1)
	}

	// .env is optional; the token env var may be set directly.
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.DefaultConfig()
		} else {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	obs.Setup(cfg.Logging.Level, cfg.Logging.Format)

	var jrnl journal.Journal
	if cfg.Journal.Type == "file" {
		fileJournal, err := journal.NewFileJournal(cfg.Journal.OutputDir, cfg.Journal.RotationInterval)
		if err != nil {
			log.Fatal().Err(err).Msg("creating event journal")
		}
		defer fileJournal.Close()
		jrnl = fileJournal
	} else {
		jrnl = journal.NewNullJournal()
	}

	token := cfg.Auth.Token()
	apiClient := api.NewClient(&http.Client{Timeout: 30 * time.Second}).
		WithBaseURL(cfg.Server.BaseURL)
	if token != "" {
		apiClient.WithToken(token)
	}

	manager := session.NewManager(session.Options{
		API:   apiClient,
		WSURL: cfg.Server.WSURL,
		Token: token,
		Reconnect: realtime.ReconnectConfig{
			InitialBackoff: cfg.Realtime.InitialBackoff,
			MaxBackoff:     cfg.Realtime.MaxBackoff,
			BackoffFactor:  cfg.Realtime.BackoffFactor,
			MaxAttempts:    cfg.Realtime.MaxAttempts,
		},
		Journal: jrnl,
	})
	defer manager.StopAll()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived signal %v, shutting down...\n", sig)
		cancel()
	}()

	for _, productID := range strings.Split(*products, ",") {
		productID = strings.TrimSpace(productID)
		if productID == "" {
			continue
		}
		id := productID
		if _, err := manager.Watch(ctx, id, func(vs auction.ViewState) {
			printState(id, vs)
		}); err != nil {
			log.Error().Str("product_id", id).Err(err).Msg("starting session")
		}
	}

	if manager.Count() == 0 {
		log.Fatal().Msg("no sessions started")
	}

	log.Info().Int("sessions", manager.Count()).Msg("watching auctions (Ctrl+C to stop)")
	<-ctx.Done()
}

func printState(productID string, vs auction.ViewState) {
	price := money.Format(vs.CurrentPrice)
	if price == "" {
		price = "-"
	}

	winner := "-"
	if vs.Winner != nil {
		winner = vs.Winner.DisplayName
	}

	remaining := vs.TimeRemaining
	if remaining == "" {
		remaining = "--:--:--"
	}

	fmt.Printf("[%s] %-12s price=%-14s bids=%-3d winner=%-12s remaining=%s (%s)\n",
		time.Now().Format("15:04:05"),
		productID,
		price,
		vs.BidCount,
		winner,
		remaining,
		vs.ConnectionStatus)
}
