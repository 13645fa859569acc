package bls

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"LaborStats/internal/config"
	"LaborStats/internal/domain"
)

const successBody = `{
	"status": "REQUEST_SUCCEEDED",
	"Results": {
		"series": [{
			"data": [
				{"year": "2024", "period": "M02", "periodName": "February", "value": "3.9"},
				{"year": "2024", "period": "M01", "periodName": "January", "value": "3.7"}
			]
		}]
	}
}`

func newTestClient(t *testing.T, srv *httptest.Server, apiKey string) *Client {
	t.Helper()
	cfg := config.BLSConfig{
		Endpoint:      srv.URL + "/v1/",
		KeyedEndpoint: srv.URL + "/v2/",
		APIKey:        apiKey,
		Pacing:        time.Millisecond,
	}
	return NewClient(cfg, srv.Client(), nil)
}

func TestFetchSeries(t *testing.T) {
	t.Parallel()

	var gotBody seriesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(successBody))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, "")
	def := domain.SeriesDefinition{Name: "Unemployment Rate", ID: "LNS14000000"}

	obs, err := client.FetchSeries(context.Background(), def, 2023, 2024)
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}

	if len(gotBody.SeriesID) != 1 || gotBody.SeriesID[0] != "LNS14000000" {
		t.Fatalf("unexpected seriesid payload: %v", gotBody.SeriesID)
	}
	if gotBody.StartYear != "2023" || gotBody.EndYear != "2024" {
		t.Fatalf("unexpected year range: %s..%s", gotBody.StartYear, gotBody.EndYear)
	}

	first := obs[0]
	if !first.Date.Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", first.Date)
	}
	if first.Value != 3.9 || first.SeriesName != "Unemployment Rate" {
		t.Fatalf("unexpected observation: %+v", first)
	}
}

func TestFetchSeriesRetriesWithoutKeyOnRejection(t *testing.T) {
	t.Parallel()

	var calls []struct {
		path string
		key  string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req seriesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		calls = append(calls, struct {
			path string
			key  string
		}{r.URL.Path, req.RegistrationKey})

		if req.RegistrationKey != "" {
			_, _ = w.Write([]byte(`{"status": "REQUEST_NOT_PROCESSED", "message": ["invalid key"]}`))
			return
		}
		_, _ = w.Write([]byte(successBody))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, "bad-key")
	def := domain.SeriesDefinition{Name: "Unemployment Rate", ID: "LNS14000000"}

	obs, err := client.FetchSeries(context.Background(), def, 2024, 2024)
	if err != nil {
		t.Fatalf("FetchSeries after downgrade: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}

	if len(calls) != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", len(calls))
	}
	if calls[0].path != "/v2/" || calls[0].key != "bad-key" {
		t.Fatalf("first call should be keyed v2, got %+v", calls[0])
	}
	if calls[1].path != "/v1/" || calls[1].key != "" {
		t.Fatalf("retry should be keyless v1, got %+v", calls[1])
	}
}

func TestFetchSeriesRejectionWithoutKeyIsFinal(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"status": "REQUEST_NOT_PROCESSED", "message": ["series does not exist"]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, "")
	_, err := client.FetchSeries(context.Background(), domain.SeriesDefinition{ID: "BOGUS"}, 2024, 2024)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call without a key, got %d", calls)
	}
}

func TestFetchSeriesBadStatusCode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, "")
	_, err := client.FetchSeries(context.Background(), domain.SeriesDefinition{ID: "LNS14000000"}, 2024, 2024)
	if err == nil {
		t.Fatal("expected an error for non-200 response")
	}
	if errors.Is(err, ErrRejected) {
		t.Fatalf("transport failure must not look like a remote rejection: %v", err)
	}
}

func TestFetchSeriesValidatesInput(t *testing.T) {
	t.Parallel()

	client := NewClient(config.BLSConfig{Endpoint: "http://unused", Pacing: time.Millisecond}, nil, nil)

	if _, err := client.FetchSeries(context.Background(), domain.SeriesDefinition{Name: "no id"}, 2024, 2024); err == nil {
		t.Fatal("expected error for empty series id")
	}
	if _, err := client.FetchSeries(context.Background(), domain.SeriesDefinition{ID: "X"}, 2025, 2024); err == nil {
		t.Fatal("expected error for inverted year range")
	}
}

func TestPacingSpacesConsecutiveCalls(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(successBody))
	}))
	defer srv.Close()

	cfg := config.BLSConfig{Endpoint: srv.URL, KeyedEndpoint: srv.URL, Pacing: 80 * time.Millisecond}
	client := NewClient(cfg, srv.Client(), nil)
	def := domain.SeriesDefinition{ID: "LNS14000000"}

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := client.FetchSeries(context.Background(), def, 2024, 2024); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("second call was not paced: elapsed %v", elapsed)
	}
}
