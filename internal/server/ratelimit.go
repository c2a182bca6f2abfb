package server

import (
	"fmt"
	"sync"
	"time"
)

// Clients idle this long are dropped once the table grows past
// maxTrackedClients.
const (
	maxTrackedClients = 10000
	clientIdleTimeout = 24 * time.Hour
)

// RateLimiter enforces per-client request rates over fixed minute and
// hour windows plus daily request and data quotas. A zero limit is not
// enforced. It is safe for concurrent use.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	requestsPerHour   int
	maxRequestsPerDay int
	maxDataPerDay     int64 // bytes

	clients map[string]*clientUsage
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

// roll starts a new window when the current one has expired.
func (w *window) roll(now time.Time, size time.Duration) {
	if w.start.IsZero() || now.Sub(w.start) >= size {
		w.start = now
		w.count = 0
	}
}

type clientUsage struct {
	minute window
	hour   window

	day           time.Time
	requestsToday int
	dataToday     int64

	lastSeen time.Time
}

// Usage is a snapshot of one client's counters.
type Usage struct {
	RequestsLastMinute int
	RequestsLastHour   int
	RequestsToday      int
	DataToday          int64
	LastSeen           time.Time
}

// NewRateLimiter creates a new rate limiter with the given limits.
func NewRateLimiter(requestsPerMinute, requestsPerHour, maxRequestsPerDay int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		maxRequestsPerDay: maxRequestsPerDay,
		maxDataPerDay:     maxDataPerDay,
		clients:           make(map[string]*clientUsage),
		now:               time.Now,
	}
}

// CheckRateLimit admits or rejects one request of dataSize bytes from
// clientID. Rejected requests are not counted. The error is a
// *RateLimitError or a *QuotaExceededError.
func (rl *RateLimiter) CheckRateLimit(clientID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	usage := rl.usageFor(clientID, now)
	usage.minute.roll(now, time.Minute)
	usage.hour.roll(now, time.Hour)
	if today := startOfDay(now); !today.Equal(usage.day) {
		usage.day = today
		usage.requestsToday = 0
		usage.dataToday = 0
	}

	if err := rl.checkRates(usage, now); err != nil {
		return err
	}
	if err := rl.checkQuotas(usage, dataSize); err != nil {
		return err
	}

	usage.minute.count++
	usage.hour.count++
	usage.requestsToday++
	usage.dataToday += dataSize
	usage.lastSeen = now
	return nil
}

func (rl *RateLimiter) checkRates(usage *clientUsage, now time.Time) error {
	if rl.requestsPerMinute > 0 && usage.minute.count >= rl.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      rl.requestsPerMinute,
			RetryAfter: time.Minute - now.Sub(usage.minute.start),
		}
	}
	if rl.requestsPerHour > 0 && usage.hour.count >= rl.requestsPerHour {
		return &RateLimitError{
			Type:       "hour",
			Limit:      rl.requestsPerHour,
			RetryAfter: time.Hour - now.Sub(usage.hour.start),
		}
	}
	return nil
}

func (rl *RateLimiter) checkQuotas(usage *clientUsage, dataSize int64) error {
	resets := usage.day.AddDate(0, 0, 1)
	if rl.maxRequestsPerDay > 0 && usage.requestsToday >= rl.maxRequestsPerDay {
		return &QuotaExceededError{
			Type:   "requests",
			Limit:  int64(rl.maxRequestsPerDay),
			Used:   int64(usage.requestsToday),
			Resets: resets,
		}
	}
	if rl.maxDataPerDay > 0 && usage.dataToday+dataSize > rl.maxDataPerDay {
		return &QuotaExceededError{
			Type:   "data",
			Limit:  rl.maxDataPerDay,
			Used:   usage.dataToday,
			Resets: resets,
		}
	}
	return nil
}

func (rl *RateLimiter) usageFor(clientID string, now time.Time) *clientUsage {
	usage, ok := rl.clients[clientID]
	if ok {
		return usage
	}
	if len(rl.clients) >= maxTrackedClients {
		rl.prune(now, clientIdleTimeout)
	}
	usage = &clientUsage{day: startOfDay(now), lastSeen: now}
	rl.clients[clientID] = usage
	return usage
}

// Usage returns the current counters of clientID.
func (rl *RateLimiter) Usage(clientID string) Usage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	usage, ok := rl.clients[clientID]
	if !ok {
		return Usage{}
	}
	return Usage{
		RequestsLastMinute: usage.minute.count,
		RequestsLastHour:   usage.hour.count,
		RequestsToday:      usage.requestsToday,
		DataToday:          usage.dataToday,
		LastSeen:           usage.lastSeen,
	}
}

// Prune forgets clients not seen for idle and returns how many it removed.
func (rl *RateLimiter) Prune(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.prune(rl.now(), idle)
}

func (rl *RateLimiter) prune(now time.Time, idle time.Duration) int {
	removed := 0
	for id, usage := range rl.clients {
		if now.Sub(usage.lastSeen) >= idle {
			delete(rl.clients, id)
			removed++
		}
	}
	return removed
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string        // "minute" or "hour"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError represents a quota violation.
type QuotaExceededError struct {
	Type   string    // "requests" or "data"
	Limit  int64     // the limit that was exceeded
	Used   int64     // current usage
	Resets time.Time // when the quota resets
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
