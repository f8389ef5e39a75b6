package services

import (
	"context"
	"errors"
	"log"
	"time"
)

// DeadlineSweeper completes active sessions whose target has elapsed on the
// server clock, for sessions whose clients never report completion.
type DeadlineSweeper struct {
	sessions *SessionService
	interval time.Duration
}

func NewDeadlineSweeper(sessions *SessionService, interval time.Duration) *DeadlineSweeper {
	return &DeadlineSweeper{sessions: sessions, interval: interval}
}

// Run sweeps every interval until ctx is done.
func (w *DeadlineSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	log.Printf("sweeper: started (interval %s)", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper: stopped")
			return nil
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
				log.Printf("sweeper: %v", err)
			}
		}
	}
}

// Sweep completes every overdue session once and returns how many it closed.
// Sessions a client closed first are skipped.
func (w *DeadlineSweeper) Sweep(ctx context.Context) (int, error) {
	overdue, err := w.sessions.ListOverdue(ctx)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, sess := range overdue {
		_, err := w.sessions.AutoComplete(ctx, sess.ID, "")
		switch {
		case err == nil:
			completed++
		case errors.Is(err, ErrIllegalTransition):
		default:
			log.Printf("sweeper: complete session %s: %v", sess.ID, err)
		}
	}
	if completed > 0 {
		log.Printf("sweeper: completed %d overdue session(s)", completed)
	}
	return completed, nil
}
