package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRoomCode(t *testing.T) {
	for _, code := range []string{"000000", "123456", "999999"} {
		assert.NoError(t, ValidateRoomCode(code), code)
	}
	for _, code := range []string{"", "12345", "1234567", "12a456", " 12345", "１２３４５６"} {
		assert.ErrorIs(t, ValidateRoomCode(code), ErrInvalidRoomCode, code)
	}
}

func TestAllocateZeroPads(t *testing.T) {
	codes := NewRoomCodeAllocator(newTestDB(t), 3)
	codes.draw = func() int { return 42 }

	code, err := codes.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "000042", code)
}

func TestAllocateSkipsPendingCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	draws := []int{111111, 111111, 222222}
	env.codes.draw = func() int {
		n := draws[0]
		draws = draws[1:]
		return n
	}

	first, err := env.sessions.Create(ctx, "host", nil, 25)
	require.NoError(t, err)
	assert.Equal(t, "111111", first.RoomCode)

	second, err := env.sessions.Create(ctx, "host", nil, 25)
	require.NoError(t, err)
	assert.Equal(t, "222222", second.RoomCode)
}

func TestAllocateExhaustion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	calls := 0
	env.codes.draw = func() int {
		calls++
		return 7
	}

	_, err := env.sessions.Create(ctx, "host", nil, 25)
	require.NoError(t, err)

	calls = 0
	_, err = env.codes.Allocate(ctx)
	assert.ErrorIs(t, err, ErrAllocationExhausted)
	assert.Equal(t, DefaultRoomCodeAttempts, calls)
}

func TestResolvePrefersPendingHolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.codes.draw = func() int { return 555555 }

	old, err := env.sessions.Create(ctx, "host", nil, 25)
	require.NoError(t, err)
	_, err = env.sessions.Cancel(ctx, old.ID, "host")
	require.NoError(t, err)

	id, err := env.codes.Resolve(ctx, "555555")
	require.NoError(t, err)
	assert.Equal(t, old.ID, id, "a closed holder still resolves")

	env.clock.Advance(time.Second)
	current, err := env.sessions.Create(ctx, "host", nil, 25)
	require.NoError(t, err)

	id, err = env.codes.Resolve(ctx, "555555")
	require.NoError(t, err)
	assert.Equal(t, current.ID, id)

	_, err = env.codes.Resolve(ctx, "999999")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
