// Package biztime centralizes time access. All storage and transport use
// UTC; use cases never call time.Now directly so tests can pin the clock.
package biztime

import (
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	nowFunc = func() time.Time { return time.Now().UTC() }
)

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

// SetNowFunc replaces the clock. Intended for tests only.
func SetNowFunc(fn func() time.Time) {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = fn
}

// ResetNowFunc restores the real clock.
func ResetNowFunc() {
	SetNowFunc(func() time.Time { return time.Now().UTC() })
}

// FormatMetadataTime formats a time for storage in record metadata.
func FormatMetadataTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
