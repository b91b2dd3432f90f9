package core

// janitor.go discards import sessions nobody has touched for a while.
//
// Sessions live only in memory, so an operator who uploads a sheet and walks
// away would otherwise hold its rows forever. Committing sessions are never
// swept; the sweep waits for the commit to settle.

import (
	"context"
	"log/slog"
	"time"
)

// JanitorConfig controls the session janitor.
type JanitorConfig struct {
	TTL      time.Duration // Idle time after which a session is discarded
	Interval time.Duration // How often to sweep
}

// StartSessionJanitor sweeps expired sessions every Interval until ctx ends.
func (s *Service) StartSessionJanitor(ctx context.Context, cfg JanitorConfig) {
	slog.Info("session janitor started", "ttl", cfg.TTL, "interval", cfg.Interval)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			if n := s.SweepSessions(cfg.TTL); n > 0 {
				slog.Info("expired import sessions discarded", "count", n)
			}
		}
	}
}

// SweepSessions removes sessions idle for longer than ttl and returns how many.
func (s *Service) SweepSessions(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.Phase == PhaseCommitting || !sess.UpdatedAt.Before(cutoff) {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	open := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetSessions(open)
	return removed
}
