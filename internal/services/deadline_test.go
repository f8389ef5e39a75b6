package services

import (
	"context"
	"testing"
	"time"

	"github.com/tzheng846/studyWme/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCompletesOverdueSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sweeper := NewDeadlineSweeper(env.sessions, time.Minute)

	due := env.activeSession(t, 10, "a")
	notDue := env.activeSession(t, 60, "b")
	_, _, err := env.sessions.RecordViolation(ctx, due.ID, "a", 350, "")
	require.NoError(t, err)

	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.clock.Advance(10 * time.Minute)
	n, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	closed, err := env.sessions.Get(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusEnded, closed.Status)
	assert.Equal(t, models.OutcomeFailed, closed.Outcome)
	assert.Equal(t, ReasonCatastrophic, closed.FailReason)

	open, err := env.sessions.Get(ctx, notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, open.Status)

	n, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweeperRunStopsWithContext(t *testing.T) {
	env := newTestEnv(t)
	sweeper := NewDeadlineSweeper(env.sessions, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
