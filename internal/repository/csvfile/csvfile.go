// Package csvfile reads the exported scale data and the precomputed rapid
// weight change intervals from CSV files.
package csvfile

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/analytics"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

var (
	observationColumns = []string{"created_at", "weight", "temperature", "humidity"}
	intervalColumns    = []string{"created_at", "end_date", "weight_diff"}
)

type file struct {
	path string
}

func (f file) Identity() string {
	return "csv:" + f.path
}

// Fingerprint is the SHA-256 of the file content
func (f file) Fingerprint(ctx context.Context) (string, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return "", errors.NewUnavailableError("failed to open dataset", err)
	}
	defer fh.Close()

	h := sha256.New()
	if _, err := io.Copy(h, fh); err != nil {
		return "", errors.NewUnavailableError("failed to read dataset", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (f file) open() (*os.File, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, errors.NewUnavailableError("failed to open dataset", err)
	}
	return fh, nil
}

// ObservationFile is an ObservationSource backed by a CSV export
type ObservationFile struct {
	file
}

func NewObservationFile(path string) *ObservationFile {
	return &ObservationFile{file{path: path}}
}

func (f *ObservationFile) Load(ctx context.Context) ([]models.Observation, error) {
	fh, err := f.open()
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	observations, err := ParseObservations(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	nuts.L.Infof("[CSV] Loaded %d observations from %s", len(observations), f.path)
	return observations, nil
}

// IntervalFile is an IntervalSource backed by a CSV export
type IntervalFile struct {
	file
}

func NewIntervalFile(path string) *IntervalFile {
	return &IntervalFile{file{path: path}}
}

func (f *IntervalFile) Load(ctx context.Context) ([]models.EventInterval, error) {
	fh, err := f.open()
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	intervals, err := ParseIntervals(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	nuts.L.Infof("[CSV] Loaded %d weight change intervals from %s", len(intervals), f.path)
	return intervals, nil
}

// ParseObservations reads observations and returns them ordered by timestamp.
// Empty measurement cells become NaN. Duplicate timestamps are rejected.
func ParseObservations(r io.Reader) ([]models.Observation, error) {
	observations := []models.Observation{}
	err := readTable(r, observationColumns, func(line int, get func(string) string) error {
		createdAt, err := analytics.ParseZoned(get("created_at"))
		if err != nil {
			return fmt.Errorf("line %d: created_at: %w", line, err)
		}
		o := models.Observation{CreatedAt: createdAt}
		if o.Weight, err = parseMeasurement(get("weight")); err != nil {
			return fmt.Errorf("line %d: weight: %w", line, err)
		}
		if o.Temperature, err = parseMeasurement(get("temperature")); err != nil {
			return fmt.Errorf("line %d: temperature: %w", line, err)
		}
		if o.Humidity, err = parseMeasurement(get("humidity")); err != nil {
			return fmt.Errorf("line %d: humidity: %w", line, err)
		}
		observations = append(observations, o)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].CreatedAt.Before(observations[j].CreatedAt)
	})
	for i := 1; i < len(observations); i++ {
		if observations[i].CreatedAt.Equal(observations[i-1].CreatedAt) {
			return nil, fmt.Errorf("%w: duplicate observation at %s", analytics.ErrInvalidInput,
				observations[i].CreatedAt.Format(time.RFC3339))
		}
	}
	return observations, nil
}

// ParseIntervals reads weight change intervals in file order
func ParseIntervals(r io.Reader) ([]models.EventInterval, error) {
	intervals := []models.EventInterval{}
	err := readTable(r, intervalColumns, func(line int, get func(string) string) error {
		start, err := analytics.ParseZoned(get("created_at"))
		if err != nil {
			return fmt.Errorf("line %d: created_at: %w", line, err)
		}
		end, err := analytics.ParseZoned(get("end_date"))
		if err != nil {
			return fmt.Errorf("line %d: end_date: %w", line, err)
		}
		diff, err := strconv.ParseFloat(strings.TrimSpace(get("weight_diff")), 64)
		if err != nil {
			return fmt.Errorf("line %d: weight_diff: %w", line, analytics.ErrInvalidInput)
		}
		intervals = append(intervals, models.EventInterval{CreatedAt: start, EndDate: end, WeightDiff: diff})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intervals, nil
}

// readTable resolves the required columns from the header row and calls fn
// for every data row. Unknown columns are ignored.
func readTable(r io.Reader, required []string, fn func(line int, get func(string) string) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return fmt.Errorf("%w: empty file", analytics.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("%w: reading header: %v", analytics.ErrInvalidInput, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("%w: missing column %q", analytics.ErrInvalidInput, col)
		}
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", analytics.ErrInvalidInput, line, err)
		}
		get := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return record[i]
		}
		if err := fn(line, get); err != nil {
			return err
		}
	}
}

func parseMeasurement(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", analytics.ErrInvalidInput, s)
	}
	return v, nil
}
