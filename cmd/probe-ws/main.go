// Command probe-ws is a CLI tool for exploring the auction push feed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ngcgiang/auction-live-client/internal/realtime"
)

func main() {
	url := flag.String("url", "ws://localhost:5000/auction-hub", "Push-feed websocket URL")
	product := flag.String("product", "", "Product ID whose room to join")
	tokenEnv := flag.String("token-env", "AUCTION_TOKEN", "Environment variable holding the bearer token")
	duration := flag.Duration("duration", 0, "How long to run (0 = until Ctrl+C)")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Parse()

	if *product == "" {
		fmt.Println("Usage: probe-ws --product <id> [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	priceCount := 0
	historyCount := 0
	errorCount := 0

	manager := realtime.NewManager(*url)
	if token := os.Getenv(*tokenEnv); token != "" {
		manager.WithToken(token)
	}
	manager.SetHandler(func(ev realtime.Event) {
		switch e := ev.(type) {
		case realtime.PriceUpdate:
			priceCount++
			if *verbose {
				fmt.Fprintf(os.Stderr, "[%s] price-update: price=%d\n",
					time.Now().Format("15:04:05"), e.CurrentPrice)
			}
		case realtime.BidHistoryUpdate:
			historyCount++
			if *verbose {
				fmt.Fprintf(os.Stderr, "[%s] bid-history-update: bids=%d\n",
					time.Now().Format("15:04:05"), len(e.Bids))
			}
		case realtime.StateChange:
			fmt.Fprintf(os.Stderr, "[%s] state: %s\n",
				time.Now().Format("15:04:05"), e.State)
			return
		case realtime.ErrorEvent:
			errorCount++
			fmt.Fprintf(os.Stderr, "[%s] error: %s (recoverable=%v)\n",
				time.Now().Format("15:04:05"), e.Message, e.Recoverable)
			return
		}

		data, _ := json.Marshal(ev)
		fmt.Println(string(data))
	})

	fmt.Fprintf(os.Stderr, "Joining room for product %s...\n", *product)
	if err := manager.Open(ctx, *product); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening connection: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	<-ctx.Done()

	fmt.Fprintf(os.Stderr, "\n--- Summary ---\n")
	fmt.Fprintf(os.Stderr, "Price updates:    %d\n", priceCount)
	fmt.Fprintf(os.Stderr, "History updates:  %d\n", historyCount)
	fmt.Fprintf(os.Stderr, "Errors:           %d\n", errorCount)
}
