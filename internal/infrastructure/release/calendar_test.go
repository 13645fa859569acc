package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const schedulePage = `
<html><body>
<table class="release-list">
  <tr><th>Reference Month</th><th>Release Date</th><th>Release Time</th></tr>
  <tr><td>February 2024</td><td>Mar. 08, 2024</td><td>08:30 AM</td></tr>
  <tr><td>March 2024</td><td>Apr. 05, 2024</td><td>08:30 AM</td></tr>
  <tr><td>April 2024</td><td>May 03, 2024</td><td>08:30 AM</td></tr>
  <tr><td>Broken Row</td><td>sometime soon</td><td>08:30 AM</td></tr>
</table>
</body></html>`

func TestUpcomingFiltersPastAndUnparsableRows(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(schedulePage))
	}))
	defer srv.Close()

	cal := NewCalendar(srv.URL, srv.Client())
	cal.now = func() time.Time {
		return time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)
	}

	releases, err := cal.Upcoming(context.Background())
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}

	if len(releases) != 2 {
		t.Fatalf("expected 2 upcoming releases, got %d", len(releases))
	}
	if releases[0].ReferenceMonth != "March 2024" {
		t.Fatalf("unexpected first release: %+v", releases[0])
	}
	want := time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC)
	if !releases[0].Date.Equal(want) {
		t.Fatalf("unexpected release date: %v", releases[0].Date)
	}
}

func TestUpcomingBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cal := NewCalendar(srv.URL, srv.Client())
	if _, err := cal.Upcoming(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestParseReleaseDateLayouts(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"Feb. 06, 2026", "February 6, 2026", "02/06/2026"} {
		got, ok := parseReleaseDate(text)
		if !ok {
			t.Fatalf("parseReleaseDate(%q) failed", text)
		}
		want := time.Date(2026, time.February, 6, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("parseReleaseDate(%q) = %v, want %v", text, got, want)
		}
	}

	if _, ok := parseReleaseDate("TBD"); ok {
		t.Fatal("expected failure for unparsable date")
	}
}
