package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Feedback categories offered as callback tags.
const (
	FeedbackTypeWrongCarparkData = "wrong_carpark_data"
	FeedbackTypeOther            = "other"
)

// feedbackState collects a feedback category, then a free-text message, and
// forwards the full record to the operator chat.
type feedbackState struct {
	baseState
}

func (s *feedbackState) Kind() Kind {
	return KindFeedback
}

func (s *feedbackState) Welcome(ctx context.Context) error {
	return s.send(ctx, "What type of feedback would you like to give?", WithButtons([]Button{
		{Text: "Wrong Carpark Data", Data: FeedbackTypeWrongCarparkData},
		{Text: "Other", Data: FeedbackTypeOther},
	}))
}

func (s *feedbackState) OnMessage(ctx context.Context, text string) (State, error) {
	if s.feedbackType() == "" {
		return s, s.send(ctx, "Sorry, I'm not a super smart bot (yet) - please select a feedback type from above first!")
	}

	s.rec.Feedback.Message = text

	if err := s.send(ctx, "🙇‍♂️ Thanks so much for the feedback! I'll pass it on to the team. To search again, just type /start!"); err != nil {
		return s, err
	}

	s.forward(ctx)

	return s, nil
}

func (s *feedbackState) OnCallback(ctx context.Context, data string) (State, error) {
	switch data {
	case FeedbackTypeWrongCarparkData:
		s.rec.Feedback.Type = data
		return s, s.send(ctx, "Which carpark had the wrong data, and what was wrong?")
	case FeedbackTypeOther:
		s.rec.Feedback.Type = data
		return s, s.send(ctx, "Sure! What would you like to feedback?")
	default:
		return s, nil
	}
}

func (s *feedbackState) Serialize() Record {
	return s.serialize(KindFeedback)
}

// feedbackType returns the stored category only when it is one of the known
// tags, so a corrupted value behaves like no selection.
func (s *feedbackState) feedbackType() string {
	switch s.rec.Feedback.Type {
	case FeedbackTypeWrongCarparkData, FeedbackTypeOther:
		return s.rec.Feedback.Type
	default:
		return ""
	}
}

// forward relays the feedback to the operator chat and the optional sink.
// Delivery failures are logged, never surfaced: the user already got their
// thank-you and must not see an error for an operator-side problem.
func (s *feedbackState) forward(ctx context.Context) {
	rec := s.Serialize()

	if s.env.FeedbackChatID != 0 {
		payload, err := json.Marshal(rec)
		if err != nil {
			payload = []byte(fmt.Sprintf("{unserializable record for chat %d}", rec.ChatID))
		}

		if err := s.env.Messenger.SendText(ctx, s.env.FeedbackChatID, fmt.Sprintf("Feedback received:\n%s", payload)); err != nil {
			s.env.logger().ErrorContext(ctx, "failed to forward feedback to operator chat",
				slog.Int64("chat_id", rec.ChatID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.env.Feedback != nil {
		if err := s.env.Feedback.Record(ctx, rec); err != nil {
			s.env.logger().ErrorContext(ctx, "failed to persist feedback",
				slog.Int64("chat_id", rec.ChatID),
				slog.String("error", err.Error()),
			)
		}
	}
}
