package carpark

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/parkcheep/parkcheep-bot/internal/geo"
	"github.com/parkcheep/parkcheep-bot/pkg/metrics"
)

// Result is a ranked search hit: a carpark plus its distance from the search center.
type Result struct {
	Name       string
	DistanceKm float64
	Carpark    Carpark
}

// Searcher finds carparks around a center point. Results are ordered by
// ascending distance; filter, when non-nil, drops non-matching results.
type Searcher interface {
	Search(ctx context.Context, center geo.Coordinate, filter func(Result) bool) ([]Result, error)
}

// Directory is an in-memory, swappable carpark dataset.
type Directory struct {
	mu       sync.RWMutex
	carparks []Carpark
}

var _ Searcher = (*Directory)(nil)

// NewDirectory creates a Directory over the given dataset.
func NewDirectory(carparks []Carpark) *Directory {
	return &Directory{carparks: carparks}
}

// Replace swaps the dataset atomically. Used by the background refresh job.
func (d *Directory) Replace(carparks []Carpark) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.carparks = carparks
}

// Size returns the number of carparks currently loaded.
func (d *Directory) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.carparks)
}

// Search ranks the dataset by distance from center, applying filter.
func (d *Directory) Search(ctx context.Context, center geo.Coordinate, filter func(Result) bool) ([]Result, error) {
	start := time.Now()
	defer func() { metrics.RecordCarparkSearch(time.Since(start)) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	carparks := d.carparks
	d.mu.RUnlock()

	results := make([]Result, 0, len(carparks))
	for _, c := range carparks {
		result := Result{
			Name:       c.Name,
			DistanceKm: geo.DistanceKm(center, c.Coordinate),
			Carpark:    c,
		}

		if filter != nil && !filter(result) {
			continue
		}

		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})

	return results, nil
}

// HealthCheck reports whether the dataset has been loaded.
func (d *Directory) HealthCheck(ctx context.Context) error {
	if d.Size() == 0 {
		return errors.New("carpark dataset is empty")
	}

	return nil
}
