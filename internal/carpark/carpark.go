// Package carpark holds the carpark dataset and cost estimation.
package carpark

import (
	"errors"
	"strings"
	"time"

	"github.com/parkcheep/parkcheep-bot/internal/geo"
)

var (
	// ErrInvalidWindow indicates the requested parking window is structurally invalid.
	ErrInvalidWindow = errors.New("parking window ends before it starts")
	// ErrRateUnavailable indicates no rate data covers the requested window.
	ErrRateUnavailable = errors.New("no rate covers the requested window")
)

// RateWindow prices parking within a daily time band, in minutes from midnight.
type RateWindow struct {
	StartMinute int     `json:"start_minute"`
	EndMinute   int     `json:"end_minute"`
	PerHour     float64 `json:"per_hour"`
	Text        string  `json:"text"`
}

// Carpark is one entry in the dataset.
type Carpark struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Rates      []RateWindow   `json:"rates"`
	SourceURL  string         `json:"source_url,omitempty"`
}

// Cost estimates the parking cost for the window [start, end). It returns
// ErrInvalidWindow when end precedes start and ErrRateUnavailable when the
// schedule cannot price the window; callers degrade to CostText or "N/A".
func (c Carpark) Cost(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, ErrInvalidWindow
	}

	if len(c.Rates) == 0 {
		return 0, ErrRateUnavailable
	}

	var total float64
	var covered bool

	for day := startOfDay(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		for _, rate := range c.Rates {
			windowStart := day.Add(time.Duration(rate.StartMinute) * time.Minute)
			windowEnd := day.Add(time.Duration(rate.EndMinute) * time.Minute)

			overlap := overlapMinutes(start, end, windowStart, windowEnd)
			if overlap <= 0 {
				continue
			}

			covered = true
			total += overlap / 60 * rate.PerHour
		}
	}

	if !covered {
		return 0, ErrRateUnavailable
	}

	return total, nil
}

// CostText returns the raw human-readable rate description for the window.
func (c Carpark) CostText(start, end time.Time) string {
	texts := make([]string, 0, len(c.Rates))
	for _, rate := range c.Rates {
		if rate.Text == "" {
			continue
		}
		texts = append(texts, rate.Text)
	}

	return strings.Join(texts, "; ")
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func overlapMinutes(aStart, aEnd, bStart, bEnd time.Time) float64 {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}

	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}

	if !end.After(start) {
		return 0
	}

	return end.Sub(start).Minutes()
}
