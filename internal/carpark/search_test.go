package carpark

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkcheep/parkcheep-bot/internal/geo"
)

func testDataset() []Carpark {
	return []Carpark{
		{
			ID:         "far",
			Name:       "Far Carpark",
			Coordinate: geo.Coordinate{Latitude: 1.3644, Longitude: 103.9915},
			Rates:      []RateWindow{dayRate()},
		},
		{
			ID:         "near",
			Name:       "Near Carpark",
			Coordinate: geo.Coordinate{Latitude: 1.3045, Longitude: 103.8330},
		},
		{
			ID:         "nearest",
			Name:       "Nearest Carpark",
			Coordinate: geo.Coordinate{Latitude: 1.3042, Longitude: 103.8323},
		},
	}
}

func TestDirectorySearch_OrdersByDistance(t *testing.T) {
	directory := NewDirectory(testDataset())
	center := geo.Coordinate{Latitude: 1.3041, Longitude: 103.8322}

	results, err := directory.Search(context.Background(), center, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "Nearest Carpark", results[0].Name)
	assert.Equal(t, "Near Carpark", results[1].Name)
	assert.Equal(t, "Far Carpark", results[2].Name)
	assert.LessOrEqual(t, results[0].DistanceKm, results[1].DistanceKm)
	assert.LessOrEqual(t, results[1].DistanceKm, results[2].DistanceKm)
}

func TestDirectorySearch_AppliesFilter(t *testing.T) {
	directory := NewDirectory(testDataset())
	center := geo.Coordinate{Latitude: 1.3041, Longitude: 103.8322}

	results, err := directory.Search(context.Background(), center, func(r Result) bool {
		return r.DistanceKm < 1.0
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Nearest Carpark", results[0].Name)
}

func TestDirectoryReplace(t *testing.T) {
	directory := NewDirectory(nil)
	assert.Error(t, directory.HealthCheck(context.Background()))

	directory.Replace(testDataset())
	assert.Equal(t, 3, directory.Size())
	assert.NoError(t, directory.HealthCheck(context.Background()))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carparks.json")
	payload := `[
		{
			"id": "cp1",
			"name": "Plaza Singapura",
			"coordinate": {"latitude": 1.3007, "longitude": 103.8455},
			"rates": [{"start_minute": 480, "end_minute": 1020, "per_hour": 1.2, "text": "$1.20 per hour"}]
		}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	carparks, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, carparks, 1)
	assert.Equal(t, "Plaza Singapura", carparks[0].Name)
	assert.InDelta(t, 1.3007, carparks[0].Coordinate.Latitude, 1e-9)
	require.Len(t, carparks[0].Rates, 1)
	assert.InDelta(t, 1.2, carparks[0].Rates[0].PerHour, 1e-9)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carparks.sqlite3")

	store, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testDataset()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	byID := make(map[string]Carpark, len(loaded))
	for _, cp := range loaded {
		byID[cp.ID] = cp
	}

	far, ok := byID["far"]
	require.True(t, ok)
	assert.Equal(t, "Far Carpark", far.Name)
	require.Len(t, far.Rates, 1)
	assert.InDelta(t, 1.2, far.Rates[0].PerHour, 1e-9)

	// A second save replaces, never appends.
	require.NoError(t, store.Save(ctx, testDataset()[:1]))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}
