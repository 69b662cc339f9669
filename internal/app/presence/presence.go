/*
Package presence tracks per-user online state with self-expiring records.

A record is refreshed by every presence event and removed by a single reaper
goroutine once it has been idle longer than the TTL. Refreshing rewrites
lastSeen, so a record can never be removed at an expiry mark that predates
its most recent refresh.
*/
package presence

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shopstream/internal/pkg/logx"
)

// Status is the closed set of presence states.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

// DefaultTTL is how long a record survives without a refresh.
const DefaultTTL = 5 * time.Minute

// defaultReapInterval is how often the reaper scans for expired records.
const defaultReapInterval = 30 * time.Second

// Record is the per-user presence entry.
type Record struct {
	UserID      string    `json:"userId"`
	Status      Status    `json:"status"`
	CurrentPage string    `json:"currentPage"`
	UserAgent   string    `json:"userAgent"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Tracker maintains presence records and expires idle ones.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]Record

	ttl          time.Duration
	reapInterval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	logger zerolog.Logger

	// now is time.Now outside of tests.
	now func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithReapInterval overrides the reaper scan interval.
func WithReapInterval(d time.Duration) Option {
	return func(t *Tracker) { t.reapInterval = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a Tracker with the given TTL and starts its reaper.
// Callers must Stop it on shutdown.
func NewTracker(ttl time.Duration, opts ...Option) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	t := &Tracker{
		records:      make(map[string]Record),
		ttl:          ttl,
		reapInterval: defaultReapInterval,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logx.Component("presence"),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	go t.runReaper()

	return t
}

// SetPresence upserts the record for userID with lastSeen set to now.
// Because expiry is computed from lastSeen at reap time, each call effectively
// replaces any earlier expiry deadline for the user.
func (t *Tracker) SetPresence(userID string, status Status, page, userAgent string) {
	if userID == "" {
		return
	}

	switch status {
	case StatusOnline, StatusAway, StatusOffline:
	default:
		status = StatusOnline
	}

	t.mu.Lock()
	t.records[userID] = Record{
		UserID:      userID,
		Status:      status,
		CurrentPage: page,
		UserAgent:   userAgent,
		LastSeen:    t.now(),
	}
	t.mu.Unlock()
}

// Remove deletes the record for userID. Idempotent.
func (t *Tracker) Remove(userID string) {
	t.mu.Lock()
	delete(t.records, userID)
	t.mu.Unlock()
}

// OnlineCount returns the number of non-expired records currently held.
// Records past the TTL but not yet reaped are excluded.
func (t *Tracker) OnlineCount() int {
	cutoff := t.now().Add(-t.ttl)

	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, rec := range t.records {
		if rec.LastSeen.After(cutoff) && rec.Status != StatusOffline {
			count++
		}
	}
	return count
}

// Snapshot returns a copy of all non-expired records, for admin live-stats queries.
func (t *Tracker) Snapshot() []Record {
	cutoff := t.now().Add(-t.ttl)

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		if rec.LastSeen.After(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

// Stop terminates the reaper goroutine and waits for it to exit.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
	<-t.done
}

// runReaper periodically removes records idle longer than the TTL.
func (t *Tracker) runReaper() {
	defer close(t.done)

	ticker := time.NewTicker(t.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.reap()
		case <-t.stop:
			return
		}
	}
}

// reap performs one expiry scan.
func (t *Tracker) reap() {
	cutoff := t.now().Add(-t.ttl)

	t.mu.Lock()
	removed := 0
	for userID, rec := range t.records {
		if !rec.LastSeen.After(cutoff) {
			delete(t.records, userID)
			removed++
		}
	}
	remaining := len(t.records)
	t.mu.Unlock()

	if removed > 0 {
		t.logger.Debug().
			Int("removed", removed).
			Int("remaining", remaining).
			Msg("Expired idle presence records")
	}
}
