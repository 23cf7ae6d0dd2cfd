package conversation

import "context"

// idleState greets users outside an active search. It is the initial variant
// for fresh conversation keys and the target of every reset.
type idleState struct {
	baseState
}

func (s *idleState) Kind() Kind {
	return KindIdle
}

func (s *idleState) Welcome(ctx context.Context) error {
	if s.rec.ChatID == 0 {
		return nil
	}

	return s.send(ctx, "Hello, welcome to the Parkcheep Bot! Type /start to begin.")
}

func (s *idleState) OnMessage(ctx context.Context, text string) (State, error) {
	return s, nil
}

func (s *idleState) OnCallback(ctx context.Context, data string) (State, error) {
	return s, nil
}

func (s *idleState) Serialize() Record {
	return s.serialize(KindIdle)
}
