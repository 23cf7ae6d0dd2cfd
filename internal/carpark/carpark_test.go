package carpark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayRate() RateWindow {
	// 08:00 to 17:00 at $1.20/h.
	return RateWindow{StartMinute: 480, EndMinute: 1020, PerHour: 1.2, Text: "$1.20 per hour (8am-5pm)"}
}

func at(hour, minute int) time.Time {
	return time.Date(2023, time.April, 1, hour, minute, 0, 0, time.UTC)
}

func TestCarparkCost(t *testing.T) {
	cp := Carpark{Name: "Plaza Singapura", Rates: []RateWindow{dayRate()}}

	t.Run("window inside one rate band", func(t *testing.T) {
		cost, err := cp.Cost(at(10, 0), at(12, 0))
		require.NoError(t, err)
		assert.InDelta(t, 2.4, cost, 1e-9)
	})

	t.Run("window partially covered", func(t *testing.T) {
		cost, err := cp.Cost(at(16, 0), at(18, 0))
		require.NoError(t, err)
		assert.InDelta(t, 1.2, cost, 1e-9)
	})

	t.Run("window spanning midnight", func(t *testing.T) {
		cost, err := cp.Cost(at(16, 0), at(16, 0).Add(17*time.Hour))
		require.NoError(t, err)
		// One hour on each side of midnight falls inside the band.
		assert.InDelta(t, 2.4, cost, 1e-9)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := cp.Cost(at(12, 0), at(10, 0))
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("window outside every band", func(t *testing.T) {
		_, err := cp.Cost(at(1, 0), at(2, 0))
		assert.ErrorIs(t, err, ErrRateUnavailable)
	})

	t.Run("no rate data", func(t *testing.T) {
		empty := Carpark{Name: "Unrated"}
		_, err := empty.Cost(at(10, 0), at(11, 0))
		assert.ErrorIs(t, err, ErrRateUnavailable)
	})
}

func TestCarparkCostText(t *testing.T) {
	cp := Carpark{Rates: []RateWindow{
		dayRate(),
		{StartMinute: 1020, EndMinute: 1440, PerHour: 0.6, Text: "$0.60 per hour (5pm-12am)"},
		{StartMinute: 0, EndMinute: 480, PerHour: 0.6},
	}}

	assert.Equal(t, "$1.20 per hour (8am-5pm); $0.60 per hour (5pm-12am)", cp.CostText(at(10, 0), at(12, 0)))
	assert.Empty(t, Carpark{}.CostText(at(10, 0), at(12, 0)))
}
