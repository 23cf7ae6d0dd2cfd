package conversation

import (
	"context"
	"fmt"
)

// Callback tags offered by the states below.
const (
	CallbackShowCarparks      = "show_carparks"
	CallbackChangeDestination = "change_destination"
	CallbackChangeTime        = "change_time"
)

// showSearchDataState confirms the destination and parking window before
// running the carpark search. It geocodes lazily: only when no cached
// location results survived the previous state.
type showSearchDataState struct {
	baseState
}

func (s *showSearchDataState) Kind() Kind {
	return KindShowSearchData
}

func (s *showSearchDataState) Welcome(ctx context.Context) error {
	start, end := s.window()

	if len(s.rec.LocationResults) > 0 {
		if err := s.send(ctx, fmt.Sprintf(
			"Got it, you're going to %q from %s to %s.",
			s.rec.LocationResults[0].Address,
			formatWindowTime(start),
			formatWindowTime(end),
		)); err != nil {
			return err
		}
	} else {
		locations, err := s.env.Geocoder.Geocode(ctx, s.rec.SearchQuery+", Singapore")
		if err != nil {
			return err
		}

		if len(locations) == 0 {
			// Dead end: stay in this state, the user retypes their search.
			return s.send(ctx, "Could not find that destination on Google. Please try again with a different destination name!")
		}

		s.rec.LocationResults = locations
		center := locations[0]
		s.rec.Destination = &center.Coordinate

		if err := s.send(ctx, fmt.Sprintf("Found this location: %s.", center.Address)); err != nil {
			return err
		}
		if err := s.sendPhoto(ctx, s.env.Maps.URL(center.Coordinate)); err != nil {
			return err
		}
	}

	return s.send(ctx, "Shall I proceed to look for nearby carparks?", WithButtons(
		[]Button{{Text: "Yes", Data: CallbackShowCarparks}},
		[]Button{{Text: "No, my destination is wrong", Data: CallbackChangeDestination}},
		[]Button{{Text: "No, my time is wrong", Data: CallbackChangeTime}},
	))
}

func (s *showSearchDataState) OnMessage(ctx context.Context, text string) (State, error) {
	return s, nil
}

func (s *showSearchDataState) OnCallback(ctx context.Context, data string) (State, error) {
	switch data {
	case CallbackShowCarparks:
		return s.env.enter(ctx, KindShowCarparks, s.Serialize())
	case CallbackChangeDestination:
		return s.env.enter(ctx, KindSearch, s.Serialize())
	case CallbackChangeTime:
		return s.env.enter(ctx, KindSelectTime, s.Serialize())
	default:
		return s, nil
	}
}

func (s *showSearchDataState) Serialize() Record {
	return s.serialize(KindShowSearchData)
}
