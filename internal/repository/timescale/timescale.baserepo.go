package timescale

import (
	"context"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/database"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
)

type TimeScaleBaseRepo struct {
	db database.DB
}

func (r *TimeScaleBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errors.NewDatabaseError("failed to ping database", err)
	}
	return nil
}

func (r *TimeScaleBaseRepo) Close() error {
	if err := r.db.Close(); err != nil {
		return errors.NewDatabaseError("failed to close database", err)
	}
	return nil
}
