package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkcheep/parkcheep-bot/internal/geo"
)

func newTestDispatcher(env *Env) (*Dispatcher, *MemoryStore) {
	store := NewMemoryStore()
	return NewDispatcher(env, store, NewMemoryLocker(), nil, testLogger()), store
}

func TestDispatcher_StartCommand(t *testing.T) {
	messenger := &fakeMessenger{}
	env := newTestEnv(messenger, emptyGeocoder(), nil)
	dispatcher, store := newTestDispatcher(env)

	require.NoError(t, dispatcher.HandleMessage(context.Background(), 42, "/start"))

	rec, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, KindNaturalSearch, rec.Kind)
	assert.Equal(t, 1, messenger.countContaining("Where are you going?"))
}

func TestDispatcher_StopCommand(t *testing.T) {
	messenger := &fakeMessenger{}
	env := newTestEnv(messenger, emptyGeocoder(), nil)
	dispatcher, store := newTestDispatcher(env)

	require.NoError(t, store.Put(context.Background(), 42, recordWithKind(42, KindSelectTime)))
	require.NoError(t, dispatcher.HandleMessage(context.Background(), 42, "/stop"))

	rec, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, KindIdle, rec.Kind)
	assert.Empty(t, rec.SearchQuery)
	assert.Equal(t, 1, messenger.countContaining("Hello, welcome to the Parkcheep Bot!"))
}

func TestDispatcher_FeedbackCommandCarriesRecord(t *testing.T) {
	messenger := &fakeMessenger{}
	env := newTestEnv(messenger, emptyGeocoder(), nil)
	dispatcher, store := newTestDispatcher(env)

	prior := recordWithKind(42, KindShowCarparks)
	prior.SearchQuery = "Orchard Road"
	require.NoError(t, store.Put(context.Background(), 42, prior))

	require.NoError(t, dispatcher.HandleMessage(context.Background(), 42, "/feedback"))

	rec, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, KindFeedback, rec.Kind)
	assert.Equal(t, "Orchard Road", rec.SearchQuery)
	assert.Equal(t, 1, messenger.countContaining("What type of feedback would you like to give?"))
}

func TestDispatcher_FreeTextRoutesToCurrentState(t *testing.T) {
	messenger := &fakeMessenger{}
	env := newTestEnv(messenger, singleLocationGeocoder("Orchard Road, Singapore"), nil)
	dispatcher, store := newTestDispatcher(env)

	require.NoError(t, dispatcher.HandleMessage(context.Background(), 42, "/start"))
	require.NoError(t, dispatcher.HandleMessage(context.Background(), 42, "Orchard Road at 13:30"))

	rec, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, KindShowSearchData, rec.Kind)
	assert.NotNil(t, rec.Destination)
}

func TestDispatcher_CallbackRoutesToCurrentState(t *testing.T) {
	messenger := &fakeMessenger{}
	env := newTestEnv(messenger, emptyGeocoder(), nil)
	dispatcher, store := newTestDispatcher(env)

	require.NoError(t, store.Put(context.Background(), 42, recordWithKind(42, KindFeedback)))
	require.NoError(t, dispatcher.HandleCallback(context.Background(), 42, FeedbackTypeOther))

	rec, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, FeedbackTypeOther, rec.Feedback.Type)
}

func TestDispatcher_UnknownChatStartsFresh(t *testing.T) {
	messenger := &fakeMessenger{}
	env := newTestEnv(messenger, emptyGeocoder(), nil)
	dispatcher, store := newTestDispatcher(env)

	require.NoError(t, dispatcher.HandleMessage(context.Background(), 42, "hello"))

	rec, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, KindIdle, rec.Kind)
}

func TestDispatcher_CollaboratorFailureResets(t *testing.T) {
	messenger := &fakeMessenger{}
	geocoder := &stubGeocoder{fn: func(context.Context, string) ([]geo.Location, error) {
		return nil, errors.New("geocoding backend down")
	}}
	env := newTestEnv(messenger, geocoder, nil)
	dispatcher, store := newTestDispatcher(env)

	require.NoError(t, store.Put(context.Background(), 42, recordWithKind(42, KindSearch)))

	err := dispatcher.HandleMessage(context.Background(), 42, "Changi Airport")
	require.Error(t, err)

	assert.Equal(t, 1, messenger.countContaining("Oops! Seems like we had some issues. I'm going to reboot, sorry!"))

	rec, getErr := store.Get(context.Background(), 42)
	require.NoError(t, getErr)
	assert.Equal(t, KindIdle, rec.Kind)
	assert.Empty(t, rec.SearchQuery)
	assert.Nil(t, rec.Destination)
}

func TestDispatcher_CorruptedRecordResets(t *testing.T) {
	messenger := &fakeMessenger{}
	env := newTestEnv(messenger, emptyGeocoder(), nil)
	dispatcher, store := newTestDispatcher(env)

	corrupted := recordWithKind(42, Kind("ShowCarparksState"))
	require.NoError(t, store.Put(context.Background(), 42, corrupted))

	err := dispatcher.HandleMessage(context.Background(), 42, "hello")
	require.Error(t, err)

	rec, getErr := store.Get(context.Background(), 42)
	require.NoError(t, getErr)
	assert.Equal(t, KindIdle, rec.Kind)
	assert.Equal(t, 1, messenger.countContaining("Oops! Seems like we had some issues"))
}

func TestDispatcher_DevTestTriggersRecovery(t *testing.T) {
	messenger := &fakeMessenger{}
	env := newTestEnv(messenger, emptyGeocoder(), nil)
	dispatcher, store := newTestDispatcher(env)

	err := dispatcher.HandleMessage(context.Background(), 42, "/dev_test")
	require.ErrorIs(t, err, ErrDevTest)

	rec, getErr := store.Get(context.Background(), 42)
	require.NoError(t, getErr)
	assert.Equal(t, KindIdle, rec.Kind)

	// The reset apologizes but never greets: Welcome does not run here.
	assert.Equal(t, 1, messenger.countContaining("I'm going to reboot, sorry!"))
	assert.Equal(t, 0, messenger.countContaining("Hello, welcome to the Parkcheep Bot!"))
}

func TestDispatcher_ResetIsIdempotent(t *testing.T) {
	messenger := &fakeMessenger{}
	env := newTestEnv(messenger, emptyGeocoder(), nil)
	dispatcher, store := newTestDispatcher(env)

	prior := recordWithKind(42, KindShowCarparks)
	prior.SearchQuery = "Orchard Road"
	prior.CarparkOffset = PageSize
	require.NoError(t, store.Put(context.Background(), 42, prior))

	require.Error(t, dispatcher.HandleMessage(context.Background(), 42, "/dev_test"))
	first, err := store.Get(context.Background(), 42)
	require.NoError(t, err)

	require.Error(t, dispatcher.HandleMessage(context.Background(), 42, "/dev_test"))
	second, err := store.Get(context.Background(), 42)
	require.NoError(t, err)

	first.UpdatedAt = second.UpdatedAt
	assert.Equal(t, first, second)
	assert.Equal(t, KindIdle, second.Kind)
	assert.Empty(t, second.SearchQuery)
	assert.Zero(t, second.CarparkOffset)
}

func TestDispatcher_PanicIsContained(t *testing.T) {
	messenger := &fakeMessenger{}
	geocoder := &stubGeocoder{fn: func(context.Context, string) ([]geo.Location, error) {
		panic("geocoder blew up")
	}}
	env := newTestEnv(messenger, geocoder, nil)
	dispatcher, store := newTestDispatcher(env)

	require.NoError(t, store.Put(context.Background(), 42, recordWithKind(42, KindSearch)))

	err := dispatcher.HandleMessage(context.Background(), 42, "Changi Airport")
	require.Error(t, err)

	rec, getErr := store.Get(context.Background(), 42)
	require.NoError(t, getErr)
	assert.Equal(t, KindIdle, rec.Kind)
}

func TestDispatcher_FailureIsScopedPerChat(t *testing.T) {
	messenger := &fakeMessenger{}
	env := newTestEnv(messenger, emptyGeocoder(), nil)
	dispatcher, store := newTestDispatcher(env)

	healthy := recordWithKind(7, KindSelectTime)
	healthy.SearchQuery = "Orchard Road"
	require.NoError(t, store.Put(context.Background(), 7, healthy))

	require.Error(t, dispatcher.HandleMessage(context.Background(), 42, "/dev_test"))

	rec, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, KindSelectTime, rec.Kind)
	assert.Equal(t, "Orchard Road", rec.SearchQuery)
}
