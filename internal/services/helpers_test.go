package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tzheng846/studyWme/internal/config"
	"github.com/tzheng846/studyWme/internal/database"
	"github.com/tzheng846/studyWme/internal/models"
	"github.com/tzheng846/studyWme/internal/ws"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{DBDriver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type testEnv struct {
	db       *gorm.DB
	clock    *fakeClock
	hub      *ws.Hub
	codes    *RoomCodeAllocator
	sessions *SessionService
	stats    *StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	clock := newFakeClock()
	hub := ws.NewHub()
	codes := NewRoomCodeAllocator(db, DefaultRoomCodeAttempts)
	return &testEnv{
		db:       db,
		clock:    clock,
		hub:      hub,
		codes:    codes,
		sessions: NewSessionService(db, codes, hub, clock.Now),
		stats:    NewStatsService(db, clock.Now),
	}
}

func (e *testEnv) addUser(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.User{
		ID:           id,
		Username:     id,
		Email:        id + "@example.com",
		PasswordHash: "x",
	}).Error)
}

// activeSession creates a session hosted by hostID with the given members and
// starts it.
func (e *testEnv) activeSession(t *testing.T, duration int, hostID string, others ...string) *models.Session {
	t.Helper()
	ctx := context.Background()
	sess, err := e.sessions.Create(ctx, hostID, others, duration)
	require.NoError(t, err)
	sess, err = e.sessions.Start(ctx, sess.ID, hostID)
	require.NoError(t, err)
	return sess
}
