// Package entropy picks run seeds. A fixed seed is used as given; otherwise
// the seed comes from random.org when a key is configured, falling back to
// crypto/rand when the API is unavailable.
package entropy

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultEndpoint is the random.org JSON-RPC endpoint.
const DefaultEndpoint = "https://api.random.org/json-rpc/4/invoke"

// randomOrgMax is the largest integer random.org will generate.
const randomOrgMax = 1_000_000_000

// Client draws seeds from random.org.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint points the client at another JSON-RPC server.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string, opts ...Option) *Client {
	if apiKey == "" {
		return nil
	}
	c := &Client{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Enabled returns true if the client has an API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Seed fetches two integers from random.org and joins them into a
// positive seed.
func (c *Client) Seed(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, errors.New("random.org: no api key")
	}
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      2,
			"min":    0,
			"max":    randomOrgMax - 1,
		},
		"id": 1,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("random.org marshal: %w", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("random.org request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(hreq)
	if err != nil {
		return 0, fmt.Errorf("random.org fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("random.org: status %d", resp.StatusCode)
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("random.org read: %w", err)
	}

	var result struct {
		Result struct {
			Random struct {
				Data []int64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, fmt.Errorf("random.org parse: %w", err)
	}
	if result.Error != nil {
		return 0, fmt.Errorf("random.org: %s", result.Error.Message)
	}
	data := result.Result.Random.Data
	if len(data) < 2 {
		return 0, fmt.Errorf("random.org: got %d integers, want 2", len(data))
	}

	seed := data[0]*randomOrgMax + data[1]
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}

// CryptoSeed returns a positive seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano() | 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// Resolve returns seed unchanged when it is non-zero. A zero seed is
// replaced by one from c, or from crypto/rand when c is nil or fails.
func Resolve(ctx context.Context, seed int64, c *Client) int64 {
	if seed != 0 {
		return seed
	}
	if c.Enabled() {
		s, err := c.Seed(ctx)
		if err == nil {
			slog.Info("seed drawn", "source", "random.org", "seed", s)
			return s
		}
		slog.Warn("random.org unavailable, using crypto/rand", "error", err)
	}
	s := CryptoSeed()
	slog.Info("seed drawn", "source", "crypto/rand", "seed", s)
	return s
}
