package api

import (
	"testing"
	"time"

	"moralsim/domain/core"
	"moralsim/internal"
	"moralsim/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func receive(t *testing.T, ch <-chan session.Event) session.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return session.Event{}
	}
}

func TestSSEHub_RoutesBySession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := NewSSEHub(internal.NewNopLogger())
	defer hub.Close()

	a, b := core.NewSessionID(), core.NewSessionID()
	chA, cancelA := hub.Subscribe(string(a))
	defer cancelA()
	chB, cancelB := hub.Subscribe(string(b))
	defer cancelB()

	assert.Equal(t, 1, hub.ClientCount(string(a)))
	assert.ElementsMatch(t, []string{string(a), string(b)}, hub.ActiveSessions())

	hub.Publish(session.Event{Type: session.EventSessionReset, SessionID: a})
	hub.Publish(session.Event{Type: session.EventChoiceRecorded, SessionID: b})

	assert.Equal(t, session.EventSessionReset, receive(t, chA).Type)
	assert.Equal(t, session.EventChoiceRecorded, receive(t, chB).Type)
}

func TestSSEHub_CancelAndClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := NewSSEHub(internal.NewNopLogger())
	id := string(core.NewSessionID())

	ch, cancel := hub.Subscribe(id)
	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount(id))

	ch2, cancel2 := hub.Subscribe(id)
	hub.Close()
	hub.Close()
	_, open = <-ch2
	assert.False(t, open)
	cancel2()

	// publishing after close is a no-op
	hub.Publish(session.Event{Type: session.EventSessionComplete, SessionID: core.SessionID(id)})
	require.Empty(t, hub.ActiveSessions())
}
