package geo

import (
	"fmt"
	"strings"
)

// MarkerLabels are the single-letter labels assigned to carpark markers in list order.
var MarkerLabels = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}

// StaticMapBuilder renders Google static map URLs with a red destination
// marker and labeled yellow carpark markers.
type StaticMapBuilder struct {
	apiKey string
	size   string
}

// NewStaticMapBuilder creates a builder for the given API key.
func NewStaticMapBuilder(apiKey string) *StaticMapBuilder {
	return &StaticMapBuilder{
		apiKey: apiKey,
		size:   "500x500",
	}
}

// URL returns a static map image URL centered on destination with each
// carpark marked and labeled A-J in slice order.
func (b *StaticMapBuilder) URL(destination Coordinate, carparks ...Coordinate) string {
	var sb strings.Builder

	sb.WriteString("https://maps.googleapis.com/maps/api/staticmap?key=")
	sb.WriteString(b.apiKey)
	sb.WriteString("&size=")
	sb.WriteString(b.size)
	fmt.Fprintf(&sb, "&markers=color:red|%s", formatLatLng(destination))

	for i, carpark := range carparks {
		label := MarkerLabels[i%len(MarkerLabels)]
		fmt.Fprintf(&sb, "&markers=color:yellow|label:%s|%s", label, formatLatLng(carpark))
	}

	return sb.String()
}

// DirectionsURL returns a Google Maps directions deep link to the coordinate.
func DirectionsURL(c Coordinate) string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%s", formatLatLng(c))
}

func formatLatLng(c Coordinate) string {
	return fmt.Sprintf("%v,%v", c.Latitude, c.Longitude)
}
