package timescale

import (
	"context"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
)

// ReplaceIntervals swaps the stored intervals for a freshly detected set
func (r *IntervalRepo) ReplaceIntervals(ctx context.Context, intervals []models.EventInterval) error {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM weight_change_intervals`); err != nil {
		return errors.NewDatabaseError("failed to clear weight change intervals", err)
	}
	query := `
		INSERT INTO weight_change_intervals (created_at, end_date, weight_diff)
		VALUES (:created_at, :end_date, :weight_diff)`
	for _, iv := range intervals {
		if _, err := tx.NamedExecContext(ctx, query, iv); err != nil {
			return errors.NewDatabaseError("failed to insert weight change interval", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit transaction", err)
	}
	return nil
}
