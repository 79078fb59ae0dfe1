// FilePath: server/dashboard/internal/repository/timescale/timescale.observations.go
package timescale

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/database"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	observationsTable = "hive_observations"
	intervalsTable    = "weight_change_intervals"
)

// ObservationRepo is an ObservationSource backed by a TimescaleDB hypertable
type ObservationRepo struct {
	TimeScaleBaseRepo
}

// IntervalRepo is an IntervalSource backed by a TimescaleDB table
type IntervalRepo struct {
	TimeScaleBaseRepo
}

func NewObservationRepository(db database.DB) (*ObservationRepo, error) {
	repo := &ObservationRepo{TimeScaleBaseRepo{db: db}}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func NewIntervalRepository(db database.DB) (*IntervalRepo, error) {
	repo := &IntervalRepo{TimeScaleBaseRepo{db: db}}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ObservationRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS hive_observations (
			created_at TIMESTAMPTZ PRIMARY KEY,
			weight DOUBLE PRECISION,
			temperature DOUBLE PRECISION,
			humidity DOUBLE PRECISION
		)`,
		`SELECT create_hypertable('hive_observations', 'created_at',
			chunk_time_interval => INTERVAL '7 days',
			if_not_exists => TRUE
		)`,
	}
	return execAll(r.db, queries)
}

func (r *IntervalRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS weight_change_intervals (
			created_at TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			weight_diff DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_weight_change_intervals_created_at
			ON weight_change_intervals(created_at)`,
	}
	return execAll(r.db, queries)
}

func execAll(db database.DB, queries []string) error {
	for _, query := range queries {
		if _, err := db.GetDB().Exec(query); err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	return nil
}

func (r *ObservationRepo) Identity() string {
	return "timescale:" + observationsTable
}

func (r *IntervalRepo) Identity() string {
	return "timescale:" + intervalsTable
}

func (r *ObservationRepo) Fingerprint(ctx context.Context) (string, error) {
	return fingerprint(ctx, r.db, observationsTable)
}

func (r *IntervalRepo) Fingerprint(ctx context.Context) (string, error) {
	return fingerprint(ctx, r.db, intervalsTable)
}

// fingerprint changes whenever rows are appended to the table
func fingerprint(ctx context.Context, db database.DB, table string) (string, error) {
	var stats struct {
		Count  int64        `db:"count"`
		Latest sql.NullTime `db:"latest"`
	}
	query := fmt.Sprintf(`SELECT COUNT(*) AS count, MAX(created_at) AS latest FROM %s`, table)
	if err := db.GetDB().GetContext(ctx, &stats, query); err != nil {
		return "", errors.NewDatabaseError("failed to fingerprint "+table, err)
	}
	return formatFingerprint(stats.Count, stats.Latest), nil
}

// formatFingerprint renders "<rows>-<latest unix nanos>", 0 for an empty table
func formatFingerprint(count int64, latest sql.NullTime) string {
	nanos := int64(0)
	if latest.Valid {
		nanos = latest.Time.UnixNano()
	}
	return fmt.Sprintf("%d-%d", count, nanos)
}

type observationRow struct {
	CreatedAt   time.Time       `db:"created_at"`
	Weight      sql.NullFloat64 `db:"weight"`
	Temperature sql.NullFloat64 `db:"temperature"`
	Humidity    sql.NullFloat64 `db:"humidity"`
}

func (row observationRow) toObservation() models.Observation {
	return models.Observation{
		CreatedAt:   row.CreatedAt,
		Weight:      nullToNaN(row.Weight),
		Temperature: nullToNaN(row.Temperature),
		Humidity:    nullToNaN(row.Humidity),
	}
}

func (r *ObservationRepo) Load(ctx context.Context) ([]models.Observation, error) {
	rows := []observationRow{}
	query := `
		SELECT created_at, weight, temperature, humidity
		FROM hive_observations
		ORDER BY created_at ASC`

	if err := r.db.GetDB().SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.NewDatabaseError("failed to load observations", err)
	}

	observations := make([]models.Observation, 0, len(rows))
	for _, row := range rows {
		observations = append(observations, row.toObservation())
	}
	nuts.L.Infof("[TimescaleDB] Loaded %d observations", len(observations))
	return observations, nil
}

func (r *IntervalRepo) Load(ctx context.Context) ([]models.EventInterval, error) {
	intervals := []models.EventInterval{}
	query := `
		SELECT created_at, end_date, weight_diff
		FROM weight_change_intervals
		ORDER BY created_at ASC`

	if err := r.db.GetDB().SelectContext(ctx, &intervals, query); err != nil {
		return nil, errors.NewDatabaseError("failed to load weight change intervals", err)
	}
	nuts.L.Infof("[TimescaleDB] Loaded %d weight change intervals", len(intervals))
	return intervals, nil
}

// InsertObservations appends readings in one transaction
func (r *ObservationRepo) InsertObservations(ctx context.Context, observations []models.Observation) error {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO hive_observations (created_at, weight, temperature, humidity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (created_at) DO NOTHING`
	for _, o := range observations {
		if _, err := tx.ExecContext(ctx, query, o.CreatedAt, naNToNull(o.Weight), naNToNull(o.Temperature), naNToNull(o.Humidity)); err != nil {
			return errors.NewDatabaseError("failed to insert observation", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit transaction", err)
	}
	return nil
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func naNToNull(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
