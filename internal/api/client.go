// Package api provides clients for the auction marketplace REST endpoints:
// auction snapshots, bid history, and bid submission.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/ngcgiang/auction-live-client/internal/auction"
)

// DefaultBaseURL is the default base URL for the marketplace API.
const DefaultBaseURL = "http://localhost:5000/api"

// Client is an HTTP client for the marketplace API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a new marketplace API client.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
	}
}

// WithBaseURL sets a custom base URL for the client.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithToken sets the bearer credential sent on every request.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

// FetchAuction fetches the point-in-time auction snapshot for a product.
func (c *Client) FetchAuction(ctx context.Context, productID string) (*auction.Snapshot, error) {
	u := fmt.Sprintf("%s/products/%s/auction", c.baseURL, url.PathEscape(productID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("auction not found: %s", productID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var snap auction.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &snap, nil
}

// FetchBidHistory fetches the ordered bid history for a product.
func (c *Client) FetchBidHistory(ctx context.Context, productID string) ([]auction.Bid, error) {
	u := fmt.Sprintf("%s/products/%s/bids", c.baseURL, url.PathEscape(productID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var bids []auction.Bid
	if err := json.NewDecoder(resp.Body).Decode(&bids); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return bids, nil
}

// SubmitBid submits a bid for a product. A rejection is returned as a
// *SubmissionError carrying the server's message. The caller never bumps the
// displayed price on success; the authoritative price arrives over the push
// feed.
func (c *Client) SubmitBid(ctx context.Context, productID string, amount int64) error {
	u := fmt.Sprintf("%s/products/%s/bids", c.baseURL, url.PathEscape(productID))

	body, err := json.Marshal(placeBidRequest{
		Amount:    amount,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("marshaling bid: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}

	subErr := &SubmissionError{StatusCode: resp.StatusCode}
	var errResp errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		subErr.Message = errResp.Message
	}
	return subErr
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
