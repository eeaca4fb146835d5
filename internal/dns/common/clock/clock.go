package clock

import (
	"sync"
	"time"
)

// Clock supplies the ingestion timestamp stamped onto parsed block rules
// and the update time recorded for each published snapshot.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a manually driven Clock. It is safe for concurrent use because
// rebuilds and status reads may observe it from different goroutines.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
}

// NewMockClock returns a MockClock frozen at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.CurrentTime = c.CurrentTime.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	c.CurrentTime = t
	c.mu.Unlock()
}
