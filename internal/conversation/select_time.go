package conversation

import (
	"context"
	"errors"
	"fmt"
)

// selectTimeState is the time-window retry path, using the time-only slot
// grammar with the same defaulting rules.
type selectTimeState struct {
	baseState
}

func (s *selectTimeState) Kind() Kind {
	return KindSelectTime
}

func (s *selectTimeState) Welcome(ctx context.Context) error {
	return s.send(ctx,
		"OK! Please enter a start time in `HH:MM` or `YYYY-MM-DD HH:MM` format (e.g. 13:15, or 2022-11-13 13:15). Changing the duration is not supported yet 🙇‍♂️.",
	)
}

func (s *selectTimeState) OnMessage(ctx context.Context, text string) (State, error) {
	start, end, err := ParseTimeRange(text, s.env.now(), s.env.location())
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			return s, s.send(ctx, fmt.Sprintf("Could not parse %q, please try again in HH:MM format.", text))
		}

		return nil, err
	}

	s.rec.SetWindow(start, end)
	// A changed window restarts carpark pagination.
	s.rec.CarparkOffset = 0

	return s, s.send(ctx,
		fmt.Sprintf("Got the time as %s to %s, did I get it right?", formatWindowTime(start), formatWindowTime(end)),
		WithButtons([]Button{
			{Text: "Yes", Data: CallbackConfirmYes},
			{Text: "No", Data: CallbackConfirmNo},
		}),
	)
}

func (s *selectTimeState) OnCallback(ctx context.Context, data string) (State, error) {
	if data == CallbackConfirmYes {
		return s.env.enter(ctx, KindShowSearchData, s.Serialize())
	}

	return s, s.Welcome(ctx)
}

func (s *selectTimeState) Serialize() Record {
	return s.serialize(KindSelectTime)
}
