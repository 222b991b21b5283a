package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"fpl-strategy-mcp/internal/store"
)

// ErrCircuitOpen is returned while the breaker refuses upstream calls.
var ErrCircuitOpen = errors.New("fpl api circuit open")

type Client struct {
	HTTP         *http.Client
	Store        *store.JSONStore
	BaseURL      string
	UserAgent    string
	PrettyWrite  bool
	UseCache     bool
	DisableWrite bool

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient returns a client allowing rps requests per second upstream.
func NewClient(st *store.JSONStore, baseURL string, rps float64) *Client {
	if rps <= 0 {
		rps = 4
	}
	settings := gobreaker.Settings{
		Name:     "fpl-api",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &Client{
		HTTP:        &http.Client{Timeout: 20 * time.Second},
		Store:       st,
		BaseURL:     baseURL,
		UserAgent:   "fpl-strategy/1.0",
		PrettyWrite: true,
		UseCache:    true,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		breaker:     gobreaker.NewCircuitBreaker(settings),
	}
}

// FetchRaw downloads urlPath (like "/fixtures/") and writes it to relPath.
// Returns raw bytes (from cache or network).
func (c *Client) FetchRaw(ctx context.Context, urlPath string, relPath string, force bool) ([]byte, error) {
	if !force && c.UseCache && c.Store.Exists(relPath) {
		return c.Store.ReadRaw(relPath)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := c.breaker.Execute(func() (any, error) {
		return c.get(ctx, urlPath)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("GET %s: %w", urlPath, ErrCircuitOpen)
	}
	if err != nil {
		return nil, err
	}
	body := out.([]byte)

	if !c.DisableWrite {
		if err := c.Store.WriteRaw(relPath, body, c.PrettyWrite); err != nil {
			return nil, err
		}
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, urlPath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+urlPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s failed: %d body=%s", urlPath, resp.StatusCode, string(body))
	}
	return body, nil
}

// /bootstrap-static/
func (c *Client) BootstrapStatic(ctx context.Context, force bool) error {
	_, err := c.FetchRaw(ctx, "/bootstrap-static/", store.BootstrapPath, force)
	return err
}

// /fixtures/
func (c *Client) Fixtures(ctx context.Context, force bool) error {
	_, err := c.FetchRaw(ctx, "/fixtures/", store.FixturesPath, force)
	return err
}

// /entry/{entry_id}/event/{gw}/picks/
func (c *Client) EntryPicks(ctx context.Context, entryID, gw int, force bool) error {
	_, err := c.FetchRaw(ctx,
		fmt.Sprintf("/entry/%d/event/%d/picks/", entryID, gw),
		store.PicksPath(entryID, gw),
		force,
	)
	return err
}

// /entry/{entry_id}/history/
func (c *Client) EntryHistory(ctx context.Context, entryID int, force bool) error {
	_, err := c.FetchRaw(ctx,
		fmt.Sprintf("/entry/%d/history/", entryID),
		store.HistoryPath(entryID),
		force,
	)
	return err
}

// Refresh downloads the shared snapshots, and the entry's picks and history
// when entryID is set. Picks are fetched for gw, the last started cycle.
func (c *Client) Refresh(ctx context.Context, entryID, gw int) error {
	if err := c.BootstrapStatic(ctx, true); err != nil {
		return fmt.Errorf("bootstrap-static: %w", err)
	}
	if err := c.Fixtures(ctx, true); err != nil {
		return fmt.Errorf("fixtures: %w", err)
	}
	if entryID <= 0 {
		return nil
	}
	if err := c.EntryHistory(ctx, entryID, true); err != nil {
		return fmt.Errorf("entry history: %w", err)
	}
	if gw > 0 {
		if err := c.EntryPicks(ctx, entryID, gw, true); err != nil {
			return fmt.Errorf("entry picks: %w", err)
		}
	}
	return nil
}
