package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tzheng846/studyWme/internal/models"
	"github.com/tzheng846/studyWme/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.sessions.Create(ctx, "host", []string{"a", "host", "a", " ", "b"}, 25)
	require.NoError(t, err)

	assert.Len(t, sess.RoomCode, RoomCodeLength)
	assert.NoError(t, ValidateRoomCode(sess.RoomCode))
	assert.Equal(t, models.SessionStatusPending, sess.Status)
	assert.Equal(t, []string{"host", "a", "b"}, sess.Members)
	assert.Empty(t, sess.Violations)
	assert.Nil(t, sess.StartTime)
	assert.True(t, sess.CreatedAt.Equal(env.clock.Now()))

	_, err = env.sessions.Create(ctx, "host", nil, 0)
	assert.ErrorIs(t, err, ErrInvalidDuration)
	_, err = env.sessions.Create(ctx, "", nil, 25)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.sessions.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFullSessionCompletesSuccessfully(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.activeSession(t, 25, "host")

	env.clock.Advance(1500 * time.Second)
	ended, err := env.sessions.AutoComplete(ctx, sess.ID, "host")
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusEnded, ended.Status)
	assert.Equal(t, models.OutcomeSuccessful, ended.Outcome)
	assert.Empty(t, ended.FailReason)
	require.NotNil(t, ended.EndTime)
	assert.False(t, ended.EndTime.Before(*ended.StartTime))
}

func TestCatastrophicViolationThenTerminate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.activeSession(t, 25, "userA")

	v, catastrophic, err := env.sessions.RecordViolation(ctx, sess.ID, "userA", 310, "")
	require.NoError(t, err)
	assert.True(t, catastrophic)
	assert.Equal(t, models.ViolationTypeLeftApp, v.Type)

	still, err := env.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, still.Status, "recording never ends the session")

	ended, err := env.sessions.Terminate(ctx, sess.ID, "userA", "userA was away for 310s")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFailed, ended.Outcome)
	assert.Contains(t, ended.FailReason, "userA was away for 310s")

	_, _, err = env.sessions.RecordViolation(ctx, sess.ID, "userA", 5, "")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, _, err = env.sessions.RecordViolation(ctx, sess.ID, "userA", -1, "")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestPooledViolationsWithinBudget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.activeSession(t, 25, "a", "b")

	_, catastrophic, err := env.sessions.RecordViolation(ctx, sess.ID, "a", 100, "")
	require.NoError(t, err)
	assert.False(t, catastrophic)
	_, catastrophic, err = env.sessions.RecordViolation(ctx, sess.ID, "b", 150, models.ViolationTypeAppSwitch)
	require.NoError(t, err)
	assert.False(t, catastrophic)

	_, err = env.sessions.AutoComplete(ctx, sess.ID, "b")
	assert.ErrorIs(t, err, ErrTargetNotReached)

	env.clock.Advance(25 * time.Minute)
	ended, err := env.sessions.AutoComplete(ctx, sess.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccessful, ended.Outcome)
	require.Len(t, ended.Violations, 2)
	assert.Equal(t, "a", ended.Violations[0].UserID)
	assert.Equal(t, models.ViolationTypeAppSwitch, ended.Violations[1].Type)
}

func TestStartTwiceIsIllegal(t *testing.T) {
	env := newTestEnv(t)
	sess := env.activeSession(t, 25, "host")

	_, err := env.sessions.Start(context.Background(), sess.ID, "host")
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestClosedSessionRejectsEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.sessions.Create(ctx, "host", []string{"a"}, 25)
	require.NoError(t, err)
	_, err = env.sessions.Cancel(ctx, sess.ID, "host")
	require.NoError(t, err)

	_, err = env.sessions.Start(ctx, sess.ID, "host")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = env.sessions.Cancel(ctx, sess.ID, "host")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = env.sessions.Leave(ctx, sess.ID, "a")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = env.sessions.Terminate(ctx, sess.ID, "host", "")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = env.sessions.EndEarly(ctx, sess.ID, "host", "")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = env.sessions.Join(ctx, sess.RoomCode, "b")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, err, ErrSessionNotJoinable)
}

func TestCancelRequiresHost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.sessions.Create(ctx, "host", []string{"a"}, 25)
	require.NoError(t, err)

	_, err = env.sessions.Cancel(ctx, sess.ID, "a")
	assert.ErrorIs(t, err, ErrNotHost)
	_, err = env.sessions.Start(ctx, sess.ID, "a")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestJoinAndLeave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.sessions.Create(ctx, "host", nil, 25)
	require.NoError(t, err)

	joined, err := env.sessions.Join(ctx, sess.RoomCode, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"host", "a"}, joined.Members)

	again, err := env.sessions.Join(ctx, sess.RoomCode, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"host", "a"}, again.Members)
	assert.Equal(t, joined.Version, again.Version, "repeat join writes nothing")

	_, err = env.sessions.Leave(ctx, sess.ID, "host")
	assert.ErrorIs(t, err, ErrHostCannotLeave)

	left, err := env.sessions.Leave(ctx, sess.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"host"}, left.Members)

	_, err = env.sessions.Leave(ctx, sess.ID, "a")
	assert.ErrorIs(t, err, ErrNotParticipant)

	rejoined, err := env.sessions.Join(ctx, sess.RoomCode, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"host", "a"}, rejoined.Members)
}

func TestJoinActiveSessionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	sess := env.activeSession(t, 25, "host")

	_, err := env.sessions.Join(context.Background(), sess.RoomCode, "late")
	assert.ErrorIs(t, err, ErrSessionNotJoinable)
	assert.NotErrorIs(t, err, ErrSessionClosed)
}

func TestJoinUnknownCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Join(ctx, "000000", "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = env.sessions.Join(ctx, "12ab56", "a")
	assert.ErrorIs(t, err, ErrInvalidRoomCode)
}

func TestRoomCodeReusableAfterSessionLeavesPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.codes.draw = func() int { return 424242 }

	first, err := env.sessions.Create(ctx, "host", nil, 25)
	require.NoError(t, err)
	assert.Equal(t, "424242", first.RoomCode)

	_, err = env.sessions.Create(ctx, "other", nil, 25)
	assert.ErrorIs(t, err, ErrAllocationExhausted)

	_, err = env.sessions.Start(ctx, first.ID, "host")
	require.NoError(t, err)

	second, err := env.sessions.Create(ctx, "other", nil, 25)
	require.NoError(t, err)
	assert.Equal(t, "424242", second.RoomCode)

	joined, err := env.sessions.Join(ctx, "424242", "a")
	require.NoError(t, err)
	assert.Equal(t, second.ID, joined.ID)
}

func TestEndEarly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.activeSession(t, 25, "host", "a")

	env.clock.Advance(5 * time.Minute)
	ended, err := env.sessions.EndEarly(ctx, sess.ID, "a", "")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFailed, ended.Outcome)
	assert.Equal(t, ReasonEndedEarly, ended.FailReason)
}

func TestConcurrentViolationsAllSurvive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess := env.activeSession(t, 25, "a", "b")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := "a"
			if i%2 == 1 {
				user = "b"
			}
			_, _, errs[i] = env.sessions.RecordViolation(ctx, sess.ID, user, 10, "")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	final, err := env.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, final.Violations, n)
	assert.Equal(t, sess.Version+n, final.Version)
}

func TestCancelJoinRaceIsConsistent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.sessions.Create(ctx, "host", nil, 25)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var cancelErr, joinErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, cancelErr = env.sessions.Cancel(ctx, sess.ID, "host")
	}()
	go func() {
		defer wg.Done()
		_, joinErr = env.sessions.Join(ctx, sess.RoomCode, "joiner")
	}()
	wg.Wait()

	require.NoError(t, cancelErr)
	final, err := env.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCancelled, final.Status)

	if joinErr == nil {
		assert.True(t, final.HasMember("joiner"), "a successful join is never lost")
	} else {
		assert.ErrorIs(t, joinErr, ErrSessionNotJoinable)
		assert.False(t, final.HasMember("joiner"))
	}
}

func TestMutationsPublishSnapshots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.sessions.Create(ctx, "host", []string{"a"}, 25)
	require.NoError(t, err)

	feed := env.hub.Subscribe(ws.UserTopic("a"))
	defer feed.Close()

	_, err = env.sessions.Leave(ctx, sess.ID, "a")
	require.NoError(t, err)

	select {
	case snap := <-feed.C():
		assert.Equal(t, sess.ID, snap.ID)
		assert.False(t, snap.HasMember("a"))
	case <-time.After(time.Second):
		t.Fatal("leaver was not notified")
	}
}

func TestSubscribeSeedsCurrentSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.sessions.Create(ctx, "host", nil, 25)
	require.NoError(t, err)

	sub, err := env.sessions.Subscribe(ctx, sess.ID)
	require.NoError(t, err)
	defer sub.Close()

	first := <-sub.C()
	assert.Equal(t, models.SessionStatusPending, first.Status)

	_, err = env.sessions.Start(ctx, sess.ID, "host")
	require.NoError(t, err)
	second := <-sub.C()
	assert.Equal(t, models.SessionStatusActive, second.Status)
	assert.Greater(t, second.Version, first.Version)

	_, err = env.sessions.Subscribe(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListOverdue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	short := env.activeSession(t, 1, "a")
	env.activeSession(t, 60, "b")

	overdue, err := env.sessions.ListOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	env.clock.Advance(2 * time.Minute)
	overdue, err = env.sessions.ListOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, short.ID, overdue[0].ID)
}

func TestSubscribeUserFollowsMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.sessions.Create(ctx, "host", nil, 25)
	require.NoError(t, err)

	sub, err := env.sessions.SubscribeUser(ctx, "a")
	require.NoError(t, err)
	defer sub.Close()

	_, err = env.sessions.Join(ctx, sess.RoomCode, "a")
	require.NoError(t, err)

	select {
	case snap := <-sub.C():
		assert.Equal(t, sess.ID, snap.ID)
		assert.True(t, snap.HasMember("a"))
	case <-time.After(time.Second):
		t.Fatal("joiner was not notified")
	}

	seeded, err := env.sessions.SubscribeUser(ctx, "host")
	require.NoError(t, err)
	defer seeded.Close()
	first := <-seeded.C()
	assert.Equal(t, sess.ID, first.ID)
}
