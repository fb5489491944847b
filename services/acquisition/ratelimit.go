package acquisition

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// targetLimiter owns the per-target access state for the scraping channel.
// The check and the timestamp update are one critical section, so two
// concurrent callers can never both pass the check for the same target.
type targetLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	lastAccess map[string]time.Time
}

func newTargetLimiter() *targetLimiter {
	return &targetLimiter{
		limiters:   make(map[string]*rate.Limiter),
		lastAccess: make(map[string]time.Time),
	}
}

// Allow reports whether the target may be accessed now. On rejection it
// returns the remaining wait and leaves the target's state untouched, so a
// rejected call does not push the next permitted access further out.
func (l *targetLimiter) Allow(targetID string, perMinute int) (bool, time.Duration) {
	if perMinute <= 0 {
		perMinute = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[targetID]
	if !ok {
		// One access per interval, no burst: the minimum spacing between two
		// accesses is exactly 60s / perMinute.
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
		l.limiters[targetID] = limiter
	}

	reservation := limiter.Reserve()
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, delay
	}

	l.lastAccess[targetID] = time.Now()
	return true, 0
}

// LastAccess returns when the target was last actually accessed.
func (l *targetLimiter) LastAccess(targetID string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastAccess[targetID]
}
