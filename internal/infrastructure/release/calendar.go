package release

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"LaborStats/internal/domain"
	"LaborStats/internal/ports"
)

var dateLayouts = []string{
	"Jan. 02, 2006",
	"Jan. 2, 2006",
	"January 02, 2006",
	"January 2, 2006",
	"01/02/2006",
}

// Calendar scrapes the published release schedule page and extracts upcoming
// release dates. Rows that cannot be parsed are skipped; the page layout is
// not under our control.
type Calendar struct {
	url    string
	client *http.Client
	now    func() time.Time
}

var _ ports.ReleaseCalendar = (*Calendar)(nil)

// NewCalendar wires an HTTP client for the schedule page URL.
func NewCalendar(url string, client *http.Client) *Calendar {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Calendar{url: url, client: client, now: time.Now}
}

// Upcoming returns schedule entries dated today or later, soonest first.
func (c *Calendar) Upcoming(ctx context.Context) ([]domain.Release, error) {
	doc, err := c.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	today := c.now().UTC().Truncate(24 * time.Hour)
	var upcoming []domain.Release

	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		reference := strings.TrimSpace(cells.Eq(0).Text())
		date, ok := parseReleaseDate(cells.Eq(1).Text())
		if !ok || reference == "" {
			return
		}
		if date.Before(today) {
			return
		}

		upcoming = append(upcoming, domain.Release{
			ReferenceMonth: reference,
			Date:           date,
		})
	})

	return upcoming, nil
}

func (c *Calendar) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "LaborStats/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request schedule: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schedule page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse schedule page: %w", err)
	}
	return doc, nil
}

func parseReleaseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
