package app

import (
	"time"

	"github.com/tunehall/tunehall/internal/domain"
)

// SubmitLimiter caps song submissions per user inside a sliding window so
// one client cannot flood a room's queue. Only ever touched from the hub
// goroutine, so no locking.
type SubmitLimiter struct {
	history  map[domain.UserID][]time.Time
	limit    int
	interval time.Duration
}

func NewSubmitLimiter(limit int, interval time.Duration) *SubmitLimiter {
	return &SubmitLimiter{
		history:  make(map[domain.UserID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *SubmitLimiter) Allow(uid domain.UserID, now time.Time) bool {
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[uid]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[uid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[uid] = fresh
	return true
}

func (rl *SubmitLimiter) Forget(uid domain.UserID) {
	delete(rl.history, uid)
}
