package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseZoned(t *testing.T) {
	t.Run("pandas layout with offset", func(t *testing.T) {
		got, err := ParseZoned("2024-01-10 12:00:00+02:00")
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2024, time.January, 10, 10, 0, 0, 0, time.UTC)))
	})

	t.Run("rfc3339 with fraction", func(t *testing.T) {
		got, err := ParseZoned("2024-01-10T12:00:00.250Z")
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, time.Duration(got.Nanosecond()))
	})

	t.Run("naive is rejected", func(t *testing.T) {
		_, err := ParseZoned("2024-01-10 12:00:00")
		assert.ErrorIs(t, err, ErrNaiveTimestamp)

		_, err = ParseZoned("2024-01-10T12:00:00")
		assert.ErrorIs(t, err, ErrNaiveTimestamp)
	})

	t.Run("garbage is invalid input", func(t *testing.T) {
		_, err := ParseZoned("yesterday")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
