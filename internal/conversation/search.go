package conversation

import (
	"context"
	"fmt"
	"strings"
)

// Confirmation tags used by the retry states.
const (
	CallbackConfirmTrue  = "true"
	CallbackConfirmFalse = "false"
	CallbackConfirmYes   = "yes"
	CallbackConfirmNo    = "no"
)

// searchState is the destination-only retry path: the whole message is the
// destination, geocoded eagerly with an explicit confirm step.
type searchState struct {
	baseState
}

func (s *searchState) Kind() Kind {
	return KindSearch
}

func (s *searchState) Welcome(ctx context.Context) error {
	if s.rec.ChatID == 0 {
		return nil
	}

	return s.send(ctx, "OK! Please type your destination again.")
}

func (s *searchState) OnMessage(ctx context.Context, text string) (State, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return s, s.Welcome(ctx)
	}

	s.rec.SearchQuery = query
	// A changed destination restarts carpark pagination.
	s.rec.CarparkOffset = 0
	if err := s.send(ctx, fmt.Sprintf("Searching for %q...", query+", Singapore")); err != nil {
		return nil, err
	}

	s.rec.LocationResults = nil
	locations, err := s.env.Geocoder.Geocode(ctx, query+", Singapore")
	if err != nil {
		return nil, err
	}

	if len(locations) == 0 {
		return s, s.send(ctx, "No locations found.")
	}

	s.rec.LocationResults = locations
	center := locations[0]

	if err := s.sendPhoto(ctx, s.env.Maps.URL(center.Coordinate)); err != nil {
		return nil, err
	}

	return s, s.send(ctx,
		fmt.Sprintf("Found this location: %s. Is it correct?", center.Address),
		WithButtons([]Button{
			{Text: "Yes", Data: CallbackConfirmTrue},
			{Text: "No", Data: CallbackConfirmFalse},
		}),
	)
}

func (s *searchState) OnCallback(ctx context.Context, data string) (State, error) {
	if data == CallbackConfirmFalse {
		return s, s.Welcome(ctx)
	}

	if len(s.rec.LocationResults) == 0 {
		// Nothing to commit yet; ask for the destination again.
		return s, s.Welcome(ctx)
	}

	coordinate := s.rec.LocationResults[0].Coordinate
	s.rec.Destination = &coordinate

	return s.env.enter(ctx, KindShowSearchData, s.Serialize())
}

func (s *searchState) Serialize() Record {
	return s.serialize(KindSearch)
}
