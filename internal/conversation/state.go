// Package conversation implements the multi-step carpark search dialogue:
// its states, their serialization protocol, and the dispatch loop that keeps
// every conversation's record consistent across process restarts.
package conversation

import (
	"context"
	"log/slog"
	"time"

	"github.com/parkcheep/parkcheep-bot/internal/carpark"
	"github.com/parkcheep/parkcheep-bot/internal/geo"
)

// State is one conversation step. Every implementation must be total: any
// text or callback input yields a valid next state, never a crash.
type State interface {
	// Kind identifies the variant for serialization.
	Kind() Kind
	// Welcome emits the state's opening prompt. It runs exactly once, when
	// the state is entered through a transition, never on reconstruction.
	Welcome(ctx context.Context) error
	// OnMessage processes free text and returns the next state.
	OnMessage(ctx context.Context, text string) (State, error)
	// OnCallback processes a button press and returns the next state.
	// Unrecognized tags return the state itself unchanged.
	OnCallback(ctx context.Context, data string) (State, error)
	// Serialize snapshots every field any reachable next state depends on.
	Serialize() Record
}

// Messenger is the outbound transport surface the conversation uses.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, opts ...SendOption) error
	SendPhoto(ctx context.Context, chatID int64, photoURL string) error
}

// Button is an inline reply button offered with a prompt.
type Button struct {
	Text string
	Data string
}

// SendOptions collects optional send parameters.
type SendOptions struct {
	Buttons  [][]Button
	Markdown bool
}

// SendOption customizes one outbound text message.
type SendOption func(*SendOptions)

// WithButtons attaches inline button rows to the message.
func WithButtons(rows ...[]Button) SendOption {
	return func(o *SendOptions) {
		o.Buttons = rows
	}
}

// WithMarkdown marks the message as MarkdownV2-formatted.
func WithMarkdown() SendOption {
	return func(o *SendOptions) {
		o.Markdown = true
	}
}

// ApplySendOptions folds opts into a SendOptions value.
func ApplySendOptions(opts []SendOption) SendOptions {
	var options SendOptions
	for _, opt := range opts {
		opt(&options)
	}

	return options
}

// FeedbackSink persists received feedback in addition to the operator forward.
type FeedbackSink interface {
	Record(ctx context.Context, rec Record) error
}

// Env bundles the collaborators every state depends on.
type Env struct {
	Messenger      Messenger
	Geocoder       geo.Geocoder
	Carparks       carpark.Searcher
	Maps           *geo.StaticMapBuilder
	Feedback       FeedbackSink
	FeedbackChatID int64
	MaxDistanceKm  float64
	Clock          func() time.Time
	TZ             *time.Location
	Log            *slog.Logger
}

func (e *Env) now() time.Time {
	var now time.Time
	if e.Clock != nil {
		now = e.Clock()
	} else {
		now = time.Now()
	}

	if e.TZ != nil {
		now = now.In(e.TZ)
	}

	return now
}

func (e *Env) location() *time.Location {
	if e.TZ != nil {
		return e.TZ
	}

	return time.Local
}

func (e *Env) maxDistance() float64 {
	if e.MaxDistanceKm > 0 {
		return e.MaxDistanceKm
	}

	return 1
}

func (e *Env) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}

	return slog.Default()
}

// baseState carries the shared record and helpers for all variants.
type baseState struct {
	env *Env
	rec Record
}

func (s *baseState) send(ctx context.Context, text string, opts ...SendOption) error {
	return s.env.Messenger.SendText(ctx, s.rec.ChatID, text, opts...)
}

func (s *baseState) sendPhoto(ctx context.Context, photoURL string) error {
	return s.env.Messenger.SendPhoto(ctx, s.rec.ChatID, photoURL)
}

func (s *baseState) window() (start, end time.Time) {
	return s.rec.Window(s.env.now())
}

func (s *baseState) serialize(kind Kind) Record {
	rec := s.rec
	rec.SchemaVersion = SchemaVersion
	rec.Kind = kind
	return rec
}

func formatWindowTime(t time.Time) string {
	return t.Format("02 Jan 15:04")
}
