// Command probe-api is a CLI tool for exploring the marketplace REST
// endpoints: snapshot, bid history, and (optionally) bid submission through
// the confirmation flow.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ngcgiang/auction-live-client/internal/api"
	"github.com/ngcgiang/auction-live-client/internal/bid"
	"github.com/ngcgiang/auction-live-client/internal/money"
)

func main() {
	base := flag.String("base", api.DefaultBaseURL, "REST base URL")
	product := flag.String("product", "", "Product ID")
	tokenEnv := flag.String("token-env", "AUCTION_TOKEN", "Environment variable holding the bearer token")
	history := flag.Bool("history", false, "Also fetch the bid history")
	bidRaw := flag.String("bid", "", "Amount to bid (display format accepted, e.g. 1.050.000)")
	yes := flag.Bool("yes", false, "Confirm the bid without prompting")

	flag.Parse()

	if *product == "" {
		fmt.Println("Usage: probe-api --product <id> [--history] [--bid <amount> --yes]")
		os.Exit(1)
	}

	godotenv.Load()

	client := api.NewClient(&http.Client{Timeout: 30 * time.Second}).WithBaseURL(*base)
	if token := os.Getenv(*tokenEnv); token != "" {
		client.WithToken(token)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := client.FetchAuction(ctx, *product)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching auction: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Auction for product %s:\n", snap.ProductID)
	fmt.Printf("  Title:         %s\n", snap.Title)
	fmt.Printf("  Current price: %s\n", money.Format(snap.CurrentPrice))
	fmt.Printf("  Step price:    %s\n", money.Format(snap.StepPrice))
	if snap.BuyNowPrice > 0 {
		fmt.Printf("  Buy-now price: %s\n", money.Format(snap.BuyNowPrice))
	}
	fmt.Printf("  Bid count:     %d\n", snap.BidCount)
	fmt.Printf("  Ends at:       %s\n", snap.EndTime.Format(time.RFC3339))
	if snap.Winner != nil {
		fmt.Printf("  Leading:       %s\n", snap.Winner.DisplayName)
	}

	if *history {
		bids, err := client.FetchBidHistory(ctx, *product)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching bid history: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nBid history (%d bids):\n", len(bids))
		for _, b := range bids {
			fmt.Printf("  %s  %-14s %s\n",
				b.PlacedAt.Format("15:04:05"), money.Format(b.Amount), b.Bidder.DisplayName)
		}
	}

	if *bidRaw == "" {
		return
	}

	amount := money.Sanitize(*bidRaw)
	eval := bid.Evaluate(snap.CurrentPrice, snap.StepPrice, amount)

	switch eval.Status {
	case bid.StatusEmpty:
		fmt.Fprintf(os.Stderr, "\nNothing to bid: %q sanitizes to 0\n", *bidRaw)
		os.Exit(1)
	case bid.StatusBelowMinimum:
		fmt.Fprintf(os.Stderr, "\nBid %s is below the minimum %s\n",
			money.Format(amount), money.Format(eval.MinBid))
		os.Exit(1)
	case bid.StatusNotOnStep:
		fmt.Fprintf(os.Stderr, "\nBid %s is not on the step grid; nearest valid: %s or %s\n",
			money.Format(amount), money.Format(eval.Suggestions[0]), money.Format(eval.Suggestions[1]))
		os.Exit(1)
	}

	origin := bid.OriginBid
	if snap.BuyNowPrice > 0 && amount == snap.BuyNowPrice {
		origin = bid.OriginBuyNow
	}

	flow := bid.NewFlow(client)
	prompt, err := flow.Propose(eval, snap.CurrentPrice, amount, origin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error staging bid: %v\n", err)
		os.Exit(1)
	}

	if prompt.Origin == bid.OriginBuyNow {
		fmt.Printf("\nBuy now for %s?", money.Format(prompt.Amount))
	} else {
		fmt.Printf("\nBid %s (+%s over current)?", money.Format(prompt.Amount), money.Format(prompt.Delta))
	}

	if !*yes {
		fmt.Print(" [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			flow.Cancel()
			fmt.Println("Cancelled.")
			return
		}
	} else {
		fmt.Println()
	}

	if err := flow.Confirm(ctx, *product); err != nil {
		fmt.Fprintf(os.Stderr, "Bid rejected: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Bid accepted. The new price arrives over the push feed.")
}
