package middleware

import (
	"sync"
	"time"
)

type windowCount struct {
	start time.Time
	count int64
}

// memoryWindow is the single-instance stand-in for the Redis counters.
type memoryWindow struct {
	mu      sync.Mutex
	windows map[string]*windowCount
	sweptAt time.Time
}

func newMemoryWindow() *memoryWindow {
	return &memoryWindow{windows: make(map[string]*windowCount)}
}

func (m *memoryWindow) hit(key string, window time.Duration, now time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.sweptAt) > time.Minute {
		for k, w := range m.windows {
			if now.Sub(w.start) >= window {
				delete(m.windows, k)
			}
		}
		m.sweptAt = now
	}

	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= window {
		m.windows[key] = &windowCount{start: now, count: 1}
		return 1
	}
	w.count++
	return w.count
}
