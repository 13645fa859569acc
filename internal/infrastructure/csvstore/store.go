package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"LaborStats/internal/domain"
	"LaborStats/internal/ports"
)

const dateLayout = "2006-01-02"

var header = []string{"date", "series_id", "series_name", "value", "year", "period", "period_name"}

// Store persists the canonical table as a flat CSV file, one row per
// observation. The file is overwritten in full on every save; a temp-file
// rename keeps a crash from leaving a truncated dataset behind.
type Store struct {
	path string
}

var _ ports.TableStore = (*Store)(nil)

// New wires a store for the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted table. An absent file is not an error and yields
// an empty table.
func (s *Store) Load() (domain.Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	table, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return table, nil
}

// Save overwrites the persisted table in full, creating intermediate
// directories as needed.
func (s *Store) Save(table domain.Table) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := Write(tmp, table); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename to %s: %w", s.path, err)
	}
	return nil
}

// Write streams the table as CSV (header included) to w. The same format is
// used for persistence and for ad-hoc downstream export.
func Write(w io.Writer, table domain.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range table {
		row := []string{
			o.Date.Format(dateLayout),
			o.SeriesID,
			o.SeriesName,
			strconv.FormatFloat(o.Value, 'f', -1, 64),
			strconv.Itoa(o.Year),
			o.Period,
			o.PeriodName,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses a CSV stream produced by Write back into a table.
func Read(r io.Reader) (domain.Table, error) {
	cr := csv.NewReader(r)

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(head) != len(header) {
		return nil, fmt.Errorf("unexpected header with %d columns", len(head))
	}

	var table domain.Table
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		obs, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		table = append(table, obs)
	}
	return table, nil
}

func parseRow(row []string) (domain.Observation, error) {
	if len(row) != len(header) {
		return domain.Observation{}, fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}

	date, err := time.Parse(dateLayout, row[0])
	if err != nil {
		return domain.Observation{}, fmt.Errorf("date %q: %w", row[0], err)
	}

	value, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("value %q: %w", row[3], err)
	}

	year, err := strconv.Atoi(row[4])
	if err != nil {
		return domain.Observation{}, fmt.Errorf("year %q: %w", row[4], err)
	}

	return domain.Observation{
		Date:       date,
		SeriesID:   row[1],
		SeriesName: row[2],
		Value:      value,
		Year:       year,
		Period:     row[5],
		PeriodName: row[6],
	}, nil
}
