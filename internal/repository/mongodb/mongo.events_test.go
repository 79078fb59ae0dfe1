package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
)

func TestBuildFilter(t *testing.T) {
	start := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC)

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, bson.M{}, buildFilter(models.EventFilters{}))
	})

	t.Run("type and range", func(t *testing.T) {
		got := buildFilter(models.EventFilters{
			Type:      models.EventHarvest,
			EventTime: &models.TimeRange{Start: &start, End: &end},
		})
		assert.Equal(t, bson.M{
			"event_type": models.EventHarvest,
			"event_time": bson.M{"$gte": start, "$lte": end},
		}, got)
	})

	t.Run("open ended range", func(t *testing.T) {
		got := buildFilter(models.EventFilters{EventTime: &models.TimeRange{Start: &start}})
		assert.Equal(t, bson.M{"event_time": bson.M{"$gte": start}}, got)
	})
}
