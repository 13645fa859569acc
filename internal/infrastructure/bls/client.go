package bls

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"LaborStats/internal/config"
	"LaborStats/internal/domain"
	"LaborStats/internal/ports"
)

// ErrRejected marks a success envelope whose status field reported failure.
var ErrRejected = errors.New("request rejected by remote")

// Client fetches timeseries observations from the BLS public API, one series
// per call. When a registration key is configured the keyed v2 endpoint is
// tried first; a remote rejection triggers exactly one retry without the key
// against the keyless endpoint.
type Client struct {
	endpoint      string
	keyedEndpoint string
	apiKey        string
	httpClient    *http.Client
	logger        *slog.Logger

	// Consecutive calls are spaced at least minInterval apart to respect the
	// collaborator's rate limit; the spacing serializes the collection step.
	minInterval time.Duration
	lastCall    time.Time
}

var _ ports.ObservationSource = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.BLSConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	interval := cfg.Pacing
	if interval <= 0 {
		interval = time.Second
	}
	return &Client{
		endpoint:      cfg.Endpoint,
		keyedEndpoint: cfg.KeyedEndpoint,
		apiKey:        cfg.APIKey,
		httpClient:    client,
		logger:        logger,
		minInterval:   interval,
	}
}

type seriesRequest struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

type envelope struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results struct {
		Series []struct {
			Data []dataPoint `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

type dataPoint struct {
	Year       string `json:"year"`
	Period     string `json:"period"`
	PeriodName string `json:"periodName"`
	Value      string `json:"value"`
}

// FetchSeries requests one series for the given year range and parses the
// response into observations.
func (c *Client) FetchSeries(ctx context.Context, def domain.SeriesDefinition, startYear, endYear int) ([]domain.Observation, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("series %q has no remote id", def.Name)
	}
	if startYear > endYear {
		return nil, fmt.Errorf("series %s: start year %d after end year %d", def.ID, startYear, endYear)
	}

	payload := seriesRequest{
		SeriesID:  []string{def.ID},
		StartYear: strconv.Itoa(startYear),
		EndYear:   strconv.Itoa(endYear),
	}

	endpoint := c.endpoint
	if c.apiKey != "" {
		endpoint = c.keyedEndpoint
		payload.RegistrationKey = c.apiKey
	}

	raw, err := c.request(ctx, endpoint, payload)
	if err != nil && c.apiKey != "" && errors.Is(err, ErrRejected) {
		c.debug("registered request rejected, retrying without key",
			"series", def.ID, "error", err)
		payload.RegistrationKey = ""
		raw, err = c.request(ctx, c.endpoint, payload)
	}
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", def.ID, err)
	}

	return parseObservations(raw, def)
}

func (c *Client) request(ctx context.Context, endpoint string, payload seriesRequest) (*envelope, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bls returned %s", resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if env.Status != "REQUEST_SUCCEEDED" {
		detail := strings.Join(env.Message, "; ")
		if detail == "" {
			detail = env.Status
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, detail)
	}

	return &env, nil
}

// pace blocks until at least minInterval has passed since the previous call.
func (c *Client) pace(ctx context.Context) error {
	if !c.lastCall.IsZero() {
		if wait := c.minInterval - time.Since(c.lastCall); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	c.lastCall = time.Now()
	return nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
