// Package notify keeps transient user notices until they auto-dismiss.
package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDuration is how long a notice stays visible unless configured otherwise.
const DefaultDuration = 3 * time.Second

// Kind is the notice severity.
type Kind string

// Notice kinds.
const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notice is a command to show a message for Duration.
type Notice struct {
	CreatedAt time.Time     `json:"created_at"`
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"-"`
}

// Success builds a success notice command.
func Success(message string, d time.Duration) Notice {
	return Notice{Kind: KindSuccess, Message: message, Duration: d}
}

// Error builds an error notice command.
func Error(message string, d time.Duration) Notice {
	return Notice{Kind: KindError, Message: message, Duration: d}
}

// ExpiresAt is the moment the notice auto-dismisses.
func (n Notice) ExpiresAt() time.Time {
	return n.CreatedAt.Add(n.Duration)
}

// MarshalJSON adds duration_ms for the browser timer.
func (n Notice) MarshalJSON() ([]byte, error) {
	type plain Notice
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"duration_ms"`
	}{plain(n), n.Duration.Milliseconds()})
}

// Center holds pushed notices until they expire or are dismissed.
type Center struct {
	now     func() time.Time
	notices []Notice
	mu      sync.Mutex
}

// NewCenter returns an empty center using the wall clock.
func NewCenter() *Center {
	return &Center{now: time.Now}
}

// NewCenterWithClock returns an empty center using the given clock.
func NewCenterWithClock(now func() time.Time) *Center {
	return &Center{now: now}
}

// Push stores a notice, stamping its ID and creation time.
func (c *Center) Push(n Notice) Notice {
	if n.Duration <= 0 {
		n.Duration = DefaultDuration
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n.ID = uuid.NewString()
	n.CreatedAt = c.now()
	c.prune()
	c.notices = append(c.notices, n)

	return n
}

// Active returns the notices that have not expired yet, oldest first.
func (c *Center) Active() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)

	return out
}

// Dismiss removes a notice before it expires.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return true
		}
	}

	return false
}

// prune drops expired notices. Caller holds mu.
func (c *Center) prune() {
	now := c.now()
	kept := c.notices[:0]
	for _, n := range c.notices {
		if now.Before(n.ExpiresAt()) {
			kept = append(kept, n)
		}
	}
	c.notices = kept
}
