package clock

import (
	"sync"
	"time"
)

var (
	_ Clocker = (*Clock)(nil)
	_ Clocker = (*Mock)(nil)
)

// Clocker is an interface for getting current real time.
type Clocker interface {
	Now() time.Time
}

// Clock implements the Clocker interface. Times are always reported in UTC
// so that values stored by different backends compare equal.
type Clock struct{}

// New returns a ready to use Clock.
func New() *Clock {
	return &Clock{}
}

// Now provides current clock time.
func (ck *Clock) Now() time.Time {
	return time.Now().UTC()
}

// Today returns the current date of c at midnight UTC.
func Today(c Clocker) time.Time {
	now := c.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Mock is a settable Clocker for tests.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock returns a Mock fixed at `Sun, 02 Jul 2023 10:30:00 UTC`.
func NewMock() *Mock {
	return &Mock{now: time.Date(2023, 7, 2, 10, 30, 0, 0, time.UTC)}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mocked time forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set pins the mocked time to t.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
