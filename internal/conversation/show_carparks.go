package conversation

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/parkcheep/parkcheep-bot/internal/carpark"
	apperrors "github.com/parkcheep/parkcheep-bot/internal/errors"
	"github.com/parkcheep/parkcheep-bot/internal/geo"
)

// CallbackShowMore advances carpark pagination by one page.
const CallbackShowMore = "show_more"

// showCarparksState runs the carpark search and renders one page of ranked
// results. Each welcome re-queries the search collaborator; only the page
// cursor survives between pages.
type showCarparksState struct {
	baseState
}

func (s *showCarparksState) Kind() Kind {
	return KindShowCarparks
}

func (s *showCarparksState) Welcome(ctx context.Context) error {
	if s.rec.Destination == nil {
		return apperrors.NewStateError(fmt.Sprintf("no destination confirmed for chat %d", s.rec.ChatID))
	}

	destination := *s.rec.Destination
	maxDistance := s.env.maxDistance()

	results, err := s.env.Carparks.Search(ctx, destination, func(result carpark.Result) bool {
		return result.DistanceKm < maxDistance
	})
	if err != nil {
		return err
	}

	page := paginate(results, s.rec.CarparkOffset, PageSize)

	if err := s.send(ctx, fmt.Sprintf("Showing nearest %d carparks in yellow 🟡:", len(page))); err != nil {
		return err
	}

	coordinates := make([]geo.Coordinate, 0, len(page))
	for _, result := range page {
		coordinates = append(coordinates, result.Carpark.Coordinate)
	}
	if err := s.sendPhoto(ctx, s.env.Maps.URL(destination, coordinates...)); err != nil {
		return err
	}

	start, end := s.window()
	for i, result := range page {
		label := geo.MarkerLabels[(s.rec.CarparkOffset+i)%len(geo.MarkerLabels)]

		if err := s.send(ctx, renderCarparkResult(label, result, start, end), WithMarkdown()); err != nil {
			return err
		}
	}

	tail := "To search again, just type /start, or let us know if you have /feedback!"
	// More results are assumed whenever the page came back full. At an exact
	// page boundary this over-offers the button; kept to match the original.
	if len(page) == PageSize {
		return s.send(ctx, tail, WithButtons([]Button{{Text: "Show more", Data: CallbackShowMore}}))
	}

	return s.send(ctx, tail)
}

func (s *showCarparksState) OnMessage(ctx context.Context, text string) (State, error) {
	return s, nil
}

func (s *showCarparksState) OnCallback(ctx context.Context, data string) (State, error) {
	switch data {
	case CallbackShowMore:
		s.rec.CarparkOffset += PageSize
		return s, s.Welcome(ctx)
	case "/start":
		return s.env.enter(ctx, KindNaturalSearch, NewRecord(s.rec.ChatID))
	case "/feedback":
		return s.env.enter(ctx, KindFeedback, s.Serialize())
	default:
		return s, nil
	}
}

func (s *showCarparksState) Serialize() Record {
	return s.serialize(KindShowCarparks)
}

// renderCarparkResult formats one result line block. A cost-computation
// failure degrades that single carpark's cost line instead of aborting the
// page: an invalid window or missing rate shows "N/A" plus the raw rate text
// when available.
func renderCarparkResult(label string, result carpark.Result, start, end time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s: %s\n- Distance: %.2f km", label, result.Name, truncate2(result.DistanceKm))

	cost, err := result.Carpark.Cost(start, end)
	if err == nil {
		fmt.Fprintf(&sb, "\n- Estimated Cost: $%.2f", truncate2(cost))
	} else {
		sb.WriteString("\n- Estimated Cost: N/A")
		if rateText := result.Carpark.CostText(start, end); rateText != "" {
			fmt.Fprintf(&sb, "\n- Raw Parking Rates: %s", rateText)
		}
	}

	fmt.Fprintf(&sb, "\n- $gmaps$%s$gmaps$", geo.DirectionsURL(result.Carpark.Coordinate))

	return renderWithDirectionsLink(sb.String())
}

func paginate(results []carpark.Result, offset, size int) []carpark.Result {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return nil
	}

	end := offset + size
	if end > len(results) {
		end = len(results)
	}

	return results[offset:end]
}

func truncate2(v float64) float64 {
	return math.Trunc(v*100) / 100
}
