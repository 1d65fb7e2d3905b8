package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PrabhdeepJassal/Safe-Steps/safety"
)

// CSV column names.
const (
	ColumnID       = "CrimeID"
	ColumnCategory = "CrimeCategory"
	ColumnSubtype  = "CrimeType"
	ColumnLat      = "Latitude"
	ColumnLon      = "Longitude"
	ColumnSeverity = "Severity"
	ColumnDate     = "CrimeDate"
	ColumnTime     = "CrimeTime"
)

// requiredColumns must be present in the header row.
var requiredColumns = []string{ColumnLat, ColumnLon, ColumnSeverity, ColumnID, ColumnCategory}

// CSVSource loads incidents from a CSV file with a header row.
// Subtype, date and time columns are optional.
type CSVSource struct{}

// NewCSVSource creates a CSVSource.
func NewCSVSource() *CSVSource { return &CSVSource{} }

// Load reads and parses the CSV file at path.
func (s *CSVSource) Load(ctx context.Context, path string) ([]safety.Incident, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ParseCSV(ctx, file)
}

// ParseCSV parses incidents from r. Header names are matched exactly.
func ParseCSV(ctx context.Context, r io.Reader) ([]safety.Incident, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", safety.ErrDataValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", safety.ErrDataValidation, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", safety.ErrDataValidation, strings.Join(missing, ", "))
	}

	var incidents []safety.Incident
	for row := 2; ; row++ {
		if row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", safety.ErrDataValidation, row, err)
		}
		inc, err := parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", safety.ErrDataValidation, row, err)
		}
		incidents = append(incidents, inc)
	}
	return incidents, nil
}

func parseRecord(rec []string, cols map[string]int) (safety.Incident, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	lat, err := strconv.ParseFloat(field(ColumnLat), 64)
	if err != nil || !finite(lat) {
		return safety.Incident{}, fmt.Errorf("invalid %s %q", ColumnLat, field(ColumnLat))
	}
	lon, err := strconv.ParseFloat(field(ColumnLon), 64)
	if err != nil || !finite(lon) {
		return safety.Incident{}, fmt.Errorf("invalid %s %q", ColumnLon, field(ColumnLon))
	}
	sev, err := strconv.ParseFloat(field(ColumnSeverity), 64)
	if err != nil || sev != math.Trunc(sev) {
		return safety.Incident{}, fmt.Errorf("invalid %s %q", ColumnSeverity, field(ColumnSeverity))
	}
	id := field(ColumnID)
	if id == "" {
		return safety.Incident{}, fmt.Errorf("empty %s", ColumnID)
	}

	return safety.Incident{
		ID:        id,
		Category:  field(ColumnCategory),
		Subtype:   field(ColumnSubtype),
		Lat:       lat,
		Lon:       lon,
		Severity:  int(sev),
		Timestamp: parseTimestamp(field(ColumnDate), field(ColumnTime)),
	}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// parseTimestamp combines the optional date and time columns.
// Unparseable or absent values yield the zero time.
func parseTimestamp(date, clock string) time.Time {
	if date == "" {
		return time.Time{}
	}
	if clock == "" {
		clock = "00:00:00"
	}
	ts, err := time.Parse("2006-01-02 15:04:05", date+" "+clock)
	if err != nil {
		return time.Time{}
	}
	return ts
}
