package cache

import (
	"context"
	"time"

	applog "finance/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps expired entries from registered caches
type Manager struct {
	caches   []Cleaner
	interval time.Duration
	logger   *applog.Logger
}

// NewManager creates a new cache manager
func NewManager(interval time.Duration, logger *applog.Logger) *Manager {
	if logger == nil {
		logger = applog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Manager{
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentCache),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// Sweep runs one cleanup pass and returns the number of entries removed
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps on every tick until ctx is cancelled. It always returns nil so
// it can be used directly as an errgroup member.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.DebugContext(ctx, "Expired cache entries removed", applog.FieldCount, n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
