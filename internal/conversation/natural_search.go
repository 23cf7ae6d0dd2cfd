package conversation

import (
	"context"
	"errors"
	"fmt"
)

const searchHelpText = "- `[destination]` e.g. Orchard Road\n" +
	"- `[destination] at [HH:MM]` e.g. Orchard Road at 13:30\n" +
	"- `[destination] at [HH:MM] to [HH:MM]` e.g. Orchard Road at 13:30 to 15:00\n" +
	"- `[destination] at [YYYY-MM-DD HH:MM]` e.g. Orchard Road at 2023-04-01 13:30"

// naturalSearchState is the conversation entry point: destination and time in
// one free-text line.
type naturalSearchState struct {
	baseState
}

func (s *naturalSearchState) Kind() Kind {
	return KindNaturalSearch
}

func (s *naturalSearchState) Welcome(ctx context.Context) error {
	return s.send(ctx,
		"👋 Where are you going? Type something like the following and I'll help find nearby carparks:\n"+searchHelpText,
	)
}

func (s *naturalSearchState) OnMessage(ctx context.Context, text string) (State, error) {
	query, err := ParseSearch(text, s.env.now(), s.env.location())
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			return s, s.send(ctx, "Sorry, I didn't understand! Please type something like:\n"+searchHelpText)
		}

		return nil, err
	}

	s.rec.SearchQuery = query.Destination
	s.rec.SetWindow(query.Start, query.End)
	// A new destination and window invalidates any previous search.
	s.rec.LocationResults = nil
	s.rec.Destination = nil
	s.rec.CarparkOffset = 0

	if err := s.send(ctx, fmt.Sprintf(
		"Searching for %q at %s to %s...",
		query.Destination+", Singapore",
		formatWindowTime(query.Start),
		formatWindowTime(query.End),
	)); err != nil {
		return nil, err
	}

	return s.env.enter(ctx, KindShowSearchData, s.Serialize())
}

func (s *naturalSearchState) OnCallback(ctx context.Context, data string) (State, error) {
	return s, nil
}

func (s *naturalSearchState) Serialize() Record {
	return s.serialize(KindNaturalSearch)
}
