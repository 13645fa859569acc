package domain

import (
	"testing"
	"time"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func obs(date time.Time, id string, value float64) Observation {
	return Observation{
		Date:       date,
		SeriesID:   id,
		SeriesName: "series " + id,
		Value:      value,
		Year:       date.Year(),
		Period:     "M" + date.Format("01"),
		PeriodName: date.Month().String(),
	}
}

func TestMergeEmptyIncomingIsNoOp(t *testing.T) {
	t.Parallel()

	existing := Table{
		obs(month(2024, time.January), "X", 1),
		obs(month(2024, time.February), "X", 2),
	}

	merged := Merge(existing, nil)
	if len(merged) != len(existing) {
		t.Fatalf("expected %d rows, got %d", len(existing), len(merged))
	}
	for i := range existing {
		if merged[i] != existing[i] {
			t.Fatalf("row %d changed: %+v != %+v", i, merged[i], existing[i])
		}
	}
}

func TestMergeFirstRunPassThrough(t *testing.T) {
	t.Parallel()

	incoming := []Observation{
		obs(month(2024, time.March), "X", 3),
		obs(month(2024, time.January), "X", 1),
		obs(month(2024, time.February), "Y", 2),
	}

	merged := Merge(nil, incoming)
	if len(merged) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(merged))
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].Date.Before(merged[i-1].Date) {
			t.Fatalf("rows not sorted by date: %v before %v", merged[i].Date, merged[i-1].Date)
		}
	}

	want := map[Key]float64{}
	for _, o := range incoming {
		want[o.Key()] = o.Value
	}
	for _, o := range merged {
		if want[o.Key()] != o.Value {
			t.Fatalf("row %v value %v not in incoming set", o.Key(), o.Value)
		}
	}
}

func TestMergeWatermarkExcludesOldIncoming(t *testing.T) {
	t.Parallel()

	existing := Table{
		obs(month(2024, time.January), "X", 100),
		obs(month(2024, time.February), "X", 200),
	}
	incoming := []Observation{
		obs(month(2024, time.February), "X", 999), // revision, must be ignored
		obs(month(2024, time.March), "X", 300),
	}

	merged := Merge(existing, incoming)
	if len(merged) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(merged))
	}

	for _, o := range merged {
		if o.Date.Equal(month(2024, time.February)) && o.Value != 200 {
			t.Fatalf("watermark breached: February value overwritten to %v", o.Value)
		}
	}
	last := merged[len(merged)-1]
	if !last.Date.Equal(month(2024, time.March)) || last.Value != 300 {
		t.Fatalf("March row not appended, got %+v", last)
	}
}

func TestMergeAllIncomingBehindWatermark(t *testing.T) {
	t.Parallel()

	existing := Table{obs(month(2024, time.June), "X", 1)}
	incoming := []Observation{
		obs(month(2024, time.May), "X", 2),
		obs(month(2024, time.June), "Y", 3), // equal to watermark, still excluded
	}

	merged := Merge(existing, incoming)
	if len(merged) != 1 {
		t.Fatalf("expected unchanged table, got %d rows", len(merged))
	}
	if merged[0] != existing[0] {
		t.Fatalf("existing row mutated: %+v", merged[0])
	}
}

func TestMergeNoDuplicateKeys(t *testing.T) {
	t.Parallel()

	existing := Table{
		obs(month(2024, time.January), "X", 1),
		obs(month(2024, time.January), "Y", 2),
	}
	incoming := []Observation{
		obs(month(2024, time.February), "X", 3),
		obs(month(2024, time.February), "Y", 4),
	}

	merged := Merge(existing, incoming)
	seen := map[Key]bool{}
	for _, o := range merged {
		if seen[o.Key()] {
			t.Fatalf("duplicate key %v", o.Key())
		}
		seen[o.Key()] = true
	}
	if len(merged) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(merged))
	}
}

func TestMergeLastWinsWithinIncoming(t *testing.T) {
	t.Parallel()

	existing := Table{obs(month(2024, time.January), "X", 1)}
	incoming := []Observation{
		obs(month(2024, time.February), "X", 10),
		obs(month(2024, time.February), "X", 20), // duplicate inside the batch
	}

	merged := Merge(existing, incoming)
	if len(merged) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(merged))
	}
	if got := merged[1].Value; got != 20 {
		t.Fatalf("expected last occurrence to win, got value %v", got)
	}
}

func TestWatermark(t *testing.T) {
	t.Parallel()

	if _, ok := (Table{}).Watermark(); ok {
		t.Fatal("empty table must have no watermark")
	}

	tbl := Table{
		obs(month(2024, time.March), "X", 1),
		obs(month(2024, time.January), "X", 2),
	}
	wm, ok := tbl.Watermark()
	if !ok || !wm.Equal(month(2024, time.March)) {
		t.Fatalf("unexpected watermark %v (ok=%v)", wm, ok)
	}
}
