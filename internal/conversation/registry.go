package conversation

import (
	"context"
	"fmt"

	apperrors "github.com/parkcheep/parkcheep-bot/internal/errors"
)

var transitionRecorder = func(from, to Kind) {}

// RegisterTransitionRecorder allows external packages to observe state transitions.
func RegisterTransitionRecorder(recorder func(from, to Kind)) {
	if recorder == nil {
		transitionRecorder = func(Kind, Kind) {}
		return
	}

	transitionRecorder = recorder
}

// Reconstruct materializes a live state from a persisted record. It is the
// inverse of Serialize and never triggers the state's Welcome. Unknown kinds
// and schema versions are deserialization errors, not input errors.
func Reconstruct(env *Env, rec Record) (State, error) {
	if rec.SchemaVersion != SchemaVersion {
		return nil, apperrors.NewDeserializationError(
			fmt.Errorf("unsupported schema version %d for chat %d", rec.SchemaVersion, rec.ChatID),
		)
	}

	return newState(env, rec.Kind, rec)
}

// newState is the closed kind-to-constructor table. There is deliberately no
// dynamic resolution: a tag outside this table means the stored record is
// corrupted.
func newState(env *Env, kind Kind, rec Record) (State, error) {
	rec.Kind = kind

	switch kind {
	case KindIdle:
		return &idleState{baseState{env: env, rec: rec}}, nil
	case KindNaturalSearch:
		return &naturalSearchState{baseState{env: env, rec: rec}}, nil
	case KindShowSearchData:
		return &showSearchDataState{baseState{env: env, rec: rec}}, nil
	case KindSearch:
		return &searchState{baseState{env: env, rec: rec}}, nil
	case KindSelectTime:
		return &selectTimeState{baseState{env: env, rec: rec}}, nil
	case KindShowCarparks:
		return &showCarparksState{baseState{env: env, rec: rec}}, nil
	case KindFeedback:
		return &feedbackState{baseState{env: env, rec: rec}}, nil
	default:
		return nil, apperrors.NewDeserializationError(
			fmt.Errorf("unknown state kind %q for chat %d", kind, rec.ChatID),
		)
	}
}

// enter transitions into kind carrying rec, running the new state's Welcome.
func (e *Env) enter(ctx context.Context, kind Kind, rec Record) (State, error) {
	transitionRecorder(rec.Kind, kind)

	next, err := newState(e, kind, rec)
	if err != nil {
		return nil, err
	}

	if err := next.Welcome(ctx); err != nil {
		return nil, err
	}

	return next, nil
}
