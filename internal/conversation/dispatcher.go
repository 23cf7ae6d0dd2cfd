package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/parkcheep/parkcheep-bot/internal/errors"
	"github.com/parkcheep/parkcheep-bot/pkg/metrics"
)

// Commands handled at the dispatch layer, before any state sees the input.
const (
	CommandStart    = "/start"
	CommandStop     = "/stop"
	CommandFeedback = "/feedback"
	CommandDevTest  = "/dev_test"
)

// ErrDevTest is raised by the /dev_test command to exercise the recovery path.
var ErrDevTest = errors.New("deliberate test error")

// Dispatcher routes inbound events through the load-reconstruct-handle-store
// cycle and owns the single failure-recovery boundary. States never catch
// collaborator or deserialization failures themselves; everything escapes to
// here.
type Dispatcher struct {
	env    *Env
	store  Store
	locker Locker
	errs   *apperrors.Handler
	log    *slog.Logger
}

// NewDispatcher wires the dispatch loop. A nil locker serializes nothing and
// is only acceptable in tests.
func NewDispatcher(env *Env, store Store, locker Locker, errs *apperrors.Handler, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		env:    env,
		store:  store,
		locker: locker,
		errs:   errs,
		log:    log,
	}
}

// HandleMessage processes one inbound text event for a chat.
func (d *Dispatcher) HandleMessage(ctx context.Context, chatID int64, text string) error {
	return d.dispatch(ctx, "message", chatID, func(ctx context.Context) error {
		return d.handleMessage(ctx, chatID, text)
	})
}

// HandleCallback processes one inbound button-press event for a chat.
func (d *Dispatcher) HandleCallback(ctx context.Context, chatID int64, data string) error {
	return d.dispatch(ctx, "callback", chatID, func(ctx context.Context) error {
		state, err := d.load(ctx, chatID)
		if err != nil {
			return err
		}

		next, err := state.OnCallback(ctx, data)
		if err != nil {
			return err
		}

		return d.store.Put(ctx, chatID, next.Serialize())
	})
}

func (d *Dispatcher) handleMessage(ctx context.Context, chatID int64, text string) error {
	switch strings.TrimSpace(text) {
	case CommandStart:
		next, err := d.env.enter(ctx, KindNaturalSearch, NewRecord(chatID))
		if err != nil {
			return err
		}

		return d.store.Put(ctx, chatID, next.Serialize())
	case CommandStop:
		next, err := d.env.enter(ctx, KindIdle, NewRecord(chatID))
		if err != nil {
			return err
		}

		return d.store.Put(ctx, chatID, next.Serialize())
	case CommandFeedback:
		state, err := d.load(ctx, chatID)
		if err != nil {
			return err
		}

		next, err := d.env.enter(ctx, KindFeedback, state.Serialize())
		if err != nil {
			return err
		}

		return d.store.Put(ctx, chatID, next.Serialize())
	case CommandDevTest:
		return ErrDevTest
	default:
		state, err := d.load(ctx, chatID)
		if err != nil {
			return err
		}

		next, err := state.OnMessage(ctx, text)
		if err != nil {
			return err
		}

		return d.store.Put(ctx, chatID, next.Serialize())
	}
}

// dispatch wraps one event in the per-chat critical section and the recovery
// boundary. Panics are converted to errors so a single conversation's failure
// never takes down the loop.
func (d *Dispatcher) dispatch(ctx context.Context, kind string, chatID int64, fn func(ctx context.Context) error) error {
	started := time.Now()

	if d.locker != nil {
		if err := d.locker.Lock(ctx, chatID); err != nil {
			metrics.RecordUpdate(kind, "locked", time.Since(started))
			return err
		}
		defer d.locker.Unlock(ctx, chatID)
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic while handling %s for chat %d: %v", kind, chatID, r)
			}
		}()

		return fn(ctx)
	}()

	if err != nil {
		d.recoverConversation(ctx, chatID, err)
		metrics.RecordUpdate(kind, "error", time.Since(started))
		return err
	}

	metrics.RecordUpdate(kind, "ok", time.Since(started))

	return nil
}

// load fetches the chat's record, or a fresh one for unknown chats, and
// reconstructs its state without running Welcome.
func (d *Dispatcher) load(ctx context.Context, chatID int64) (State, error) {
	rec, err := d.store.Get(ctx, chatID)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}

		rec = NewRecord(chatID)
	}

	return Reconstruct(d.env, rec)
}

// recoverConversation is the uniform reset: apologize once, report the error,
// and store a fresh record. The initial state's Welcome deliberately does not
// run here, so the reset is silent beyond the apology.
func (d *Dispatcher) recoverConversation(ctx context.Context, chatID int64, cause error) {
	metrics.RecordConversationReset()

	if sendErr := d.env.Messenger.SendText(ctx, chatID, "Oops! Seems like we had some issues. I'm going to reboot, sorry!"); sendErr != nil {
		d.log.Error("failed to send recovery apology", "chat_id", chatID, "error", sendErr)
	}

	if d.errs != nil {
		d.errs.Report(ctx, cause)
	} else {
		d.log.Error("conversation failure", "chat_id", chatID, "error", cause)
	}

	if err := d.store.Put(ctx, chatID, NewRecord(chatID)); err != nil {
		d.log.Error("failed to store reset record", "chat_id", chatID, "error", err)
	}
}
