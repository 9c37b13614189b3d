// Package routineapi provides the client for the backend routine service.
//
// The backend owns all schedule data; this package is the thin REST wrapper
// the engine uses to fetch day groups and flip dose check flags.
package routineapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/medeasy-app/routinecore/internal/models"
)

// Client is the outbound routine-service boundary.
type Client interface {
	// FetchRoutines retrieves day routine groups for a date-inclusive range.
	FetchRoutines(ctx context.Context, start, end time.Time) ([]models.DayRoutineGroup, error)

	// SetDoseTaken marks a single dose taken (or untaken) on the backend.
	SetDoseTaken(ctx context.Context, doseID int64, taken bool) error
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DefaultTimeout bounds each backend request.
const DefaultTimeout = 15 * time.Second

// Opts holds HTTP client configuration.
type Opts struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Option configures the HTTP client.
type Option func(*Opts)

// WithBaseURL sets the routine service base URL.
func WithBaseURL(base string) Option {
	return func(o *Opts) { o.BaseURL = base }
}

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(o *Opts) { o.Token = token }
}

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// HTTPClient implements Client against the routine REST service.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a routine service client from options. BaseURL is
// required.
func NewHTTPClient(opts ...Option) (*HTTPClient, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("routine API base URL not set")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	slog.Debug("routineapi.NewHTTPClient: created", "base_url", cfg.BaseURL, "token_set", cfg.Token != "")
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    httpClient,
	}, nil
}

// fetchResponse mirrors the backend's routine list payload.
type fetchResponse struct {
	Body []models.DayRoutineGroup `json:"body"`
}

// FetchRoutines queries the date-inclusive range [start, end]. The engine
// always calls it with start == end == today.
func (c *HTTPClient) FetchRoutines(ctx context.Context, start, end time.Time) ([]models.DayRoutineGroup, error) {
	q := url.Values{}
	q.Set("start_date", start.Format(DateLayout))
	q.Set("end_date", end.Format(DateLayout))
	endpoint := c.baseURL + "/routine?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build routine fetch request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("routineapi.FetchRoutines: request failed", "error", err)
		return nil, fmt.Errorf("routine fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Error("routineapi.FetchRoutines: unexpected status", "status", resp.StatusCode)
		return nil, fmt.Errorf("routine fetch returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode routine fetch response: %w", err)
	}
	slog.Debug("routineapi.FetchRoutines: fetched", "groups", len(parsed.Body))
	return parsed.Body, nil
}

// checkRequest is the body for the dose check endpoint.
type checkRequest struct {
	IsTaken bool `json:"is_taken"`
}

// SetDoseTaken flips the taken flag for one dose.
func (c *HTTPClient) SetDoseTaken(ctx context.Context, doseID int64, taken bool) error {
	endpoint := fmt.Sprintf("%s/routine/dose/%d/check", c.baseURL, doseID)
	payload, err := json.Marshal(checkRequest{IsTaken: taken})
	if err != nil {
		return fmt.Errorf("failed to marshal dose check request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to build dose check request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("routineapi.SetDoseTaken: request failed", "error", err, "doseID", doseID)
		return fmt.Errorf("dose check failed for %d: %w", doseID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		slog.Error("routineapi.SetDoseTaken: unexpected status", "status", resp.StatusCode, "doseID", doseID)
		return fmt.Errorf("dose check for %d returned status %d", doseID, resp.StatusCode)
	}
	slog.Debug("routineapi.SetDoseTaken: succeeded", "doseID", doseID, "taken", taken)
	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
}
