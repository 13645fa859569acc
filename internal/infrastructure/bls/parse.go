package bls

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"LaborStats/internal/domain"
)

// ErrDataFormat marks a response entry whose numeric fields cannot be parsed.
// It aborts processing of that series' data but not the whole run.
var ErrDataFormat = errors.New("malformed data")

// parseObservations flattens a response envelope into observations, one per
// (year, period) entry. Dates are normalized to the first day of the month.
// Entries with non-monthly period codes (anything outside M01..M12, e.g.
// annual averages or the out-of-range M13) are skipped.
func parseObservations(env *envelope, def domain.SeriesDefinition) ([]domain.Observation, error) {
	var out []domain.Observation
	for _, series := range env.Results.Series {
		for _, item := range series.Data {
			month, ok := monthFromPeriod(item.Period)
			if !ok {
				continue
			}

			year, err := strconv.Atoi(strings.TrimSpace(item.Year))
			if err != nil {
				return nil, fmt.Errorf("%w: series %s year %q", ErrDataFormat, def.ID, item.Year)
			}

			value, err := strconv.ParseFloat(strings.TrimSpace(item.Value), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: series %s value %q", ErrDataFormat, def.ID, item.Value)
			}

			out = append(out, domain.Observation{
				Date:       time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
				SeriesID:   def.ID,
				SeriesName: def.Name,
				Value:      value,
				Year:       year,
				Period:     item.Period,
				PeriodName: item.PeriodName,
			})
		}
	}
	return out, nil
}

func monthFromPeriod(period string) (time.Month, bool) {
	if len(period) != 3 || period[0] != 'M' {
		return 0, false
	}
	n, err := strconv.Atoi(period[1:])
	if err != nil || n < 1 || n > 12 {
		return 0, false
	}
	return time.Month(n), true
}
