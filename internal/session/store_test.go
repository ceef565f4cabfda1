package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nuance/internal/testutils"
	"nuance/pkg/nuancetypes"
)

func TestStore_StartAndHistory(t *testing.T) {
	s := NewStore()

	err := s.Start("s1", func(sess *Session) {
		assert.Equal(t, "s1", sess.ID())
		sess.Append(nuancetypes.SpeakerSystem, "User mood: happy")
		sess.Append(nuancetypes.SpeakerAssistant, "Hi!")
	})
	require.NoError(t, err)

	turns, ok := s.History("s1")
	require.True(t, ok)
	assert.Equal(t, []nuancetypes.Turn{
		{Speaker: nuancetypes.SpeakerSystem, Text: "User mood: happy"},
		{Speaker: nuancetypes.SpeakerAssistant, Text: "Hi!"},
	}, turns)
	assert.True(t, s.IsActive("s1"))
	assert.Equal(t, 1, s.Len())

	_, ok = s.History("missing")
	assert.False(t, ok)
}

func TestStore_StartExisting(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Start("s1", func(*Session) {}))

	err := s.Start("s1", func(*Session) { t.Fatal("must not run") })
	assert.ErrorIs(t, err, ErrExists)

	require.NoError(t, s.Update("s1", func(sess *Session) { sess.End(nuancetypes.EndedByUser) }))
	assert.False(t, s.IsActive("s1"))
	reason, ok := s.EndReason("s1")
	assert.True(t, ok)
	assert.Equal(t, nuancetypes.EndedByUser, reason)

	// An ended session is replaced by a fresh one.
	require.NoError(t, s.Start("s1", func(sess *Session) {
		assert.Empty(t, sess.Turns())
		assert.True(t, sess.Active())
	}))
	assert.True(t, s.IsActive("s1"))
	reason, ok = s.EndReason("s1")
	assert.True(t, ok)
	assert.Empty(t, reason)

	_, ok = s.EndReason("missing")
	assert.False(t, ok)
}

func TestStore_UpdateMissing(t *testing.T) {
	s := NewStore()
	err := s.Update("nope", func(*Session) { t.Fatal("must not run") })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Start("s1", func(*Session) {}))

	s.Delete("s1")
	s.Delete("s1")
	s.Delete("never-existed")

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.IsActive("s1"))
	assert.ErrorIs(t, s.Update("s1", func(*Session) {}), ErrNotFound)
}

func TestStore_DeleteWaitsForInFlightUpdate(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Start("s1", func(*Session) {}))

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Update("s1", func(sess *Session) {
			close(entered)
			<-release
			sess.Append(nuancetypes.SpeakerUser, "late")
		})
	}()
	<-entered

	deleted := make(chan struct{})
	go func() {
		s.Delete("s1")
		close(deleted)
	}()

	select {
	case <-deleted:
		t.Fatal("delete finished while update was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
	<-deleted
	assert.ErrorIs(t, s.Update("s1", func(*Session) {}), ErrNotFound)
}

func TestStore_IsActiveDoesNotWait(t *testing.T) {
	s := NewStore()
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = s.Start("busy", func(*Session) {
			close(started)
			<-release
		})
	}()
	<-started

	assert.True(t, s.IsActive("busy"))
	assert.ErrorIs(t, s.Start("busy", func(*Session) {}), ErrExists)
	close(release)
}

func TestStore_ConcurrentUpdatesSerialise(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Start("s1", func(*Session) {}))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update("s1", func(sess *Session) {
				sess.Append(nuancetypes.SpeakerUser, "u")
				sess.Append(nuancetypes.SpeakerAssistant, "a")
			})
		}()
	}
	wg.Wait()

	turns, _ := s.History("s1")
	require.Len(t, turns, 2*n)
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, nuancetypes.SpeakerUser, turns[i].Speaker)
		assert.Equal(t, nuancetypes.SpeakerAssistant, turns[i+1].Speaker)
	}
}

func TestStore_Sweep(t *testing.T) {
	clock := testutils.NewFakeClock()
	s := NewStore(WithClock(clock.Now))

	require.NoError(t, s.Start("old", func(*Session) {}))
	clock.Advance(10 * time.Minute)
	require.NoError(t, s.Start("fresh", func(*Session) {}))

	assert.Equal(t, 1, s.Sweep(5*time.Minute))
	assert.Equal(t, 1, s.Len())
	_, ok := s.History("old")
	assert.False(t, ok)
	_, ok = s.History("fresh")
	assert.True(t, ok)
}

func TestStore_SweepSkipsBusy(t *testing.T) {
	clock := testutils.NewFakeClock()
	s := NewStore(WithClock(clock.Now))
	require.NoError(t, s.Start("busy", func(*Session) {}))

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Update("busy", func(*Session) {
			close(entered)
			<-release
		})
	}()
	<-entered

	clock.Advance(time.Hour)
	assert.Equal(t, 0, s.Sweep(time.Minute))
	close(release)
	<-done
	assert.Equal(t, 1, s.Len())
}

func TestStore_Run(t *testing.T) {
	clock := testutils.NewFakeClock()
	s := NewStore(WithClock(clock.Now))
	require.NoError(t, s.Start("s1", func(*Session) {}))
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond, time.Minute)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-stopped
}

func TestSession_End(t *testing.T) {
	sess := newSession("x")
	sess.Append(nuancetypes.SpeakerUser, "a")
	sess.Append(nuancetypes.SpeakerAssistant, "b")
	sess.Append(nuancetypes.SpeakerUser, "c")
	assert.Equal(t, 2, sess.UserTurns())

	sess.End(nuancetypes.EndedByMaxTurns)
	sess.End(nuancetypes.EndedByUser)
	assert.False(t, sess.Active())
	assert.Equal(t, nuancetypes.EndedByMaxTurns, sess.EndReason())
}
