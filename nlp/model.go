package nlp

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	scruberrors "github.com/nisc/LLM-output-scrub/errors"
)

// ProviderFactory builds a FeatureProvider. Construction may be expensive
// (the prose provider loads its tagger model), which is why the manager
// defers it until first use.
type ProviderFactory func() (FeatureProvider, error)

// ModelManager owns the lifetime of a FeatureProvider: lazy construction
// on first Acquire, eviction after a configurable idle period, and
// transparent reload on the next Acquire after eviction. All methods are
// safe for concurrent use.
type ModelManager struct {
	mu          sync.Mutex
	factory     ProviderFactory
	provider    FeatureProvider
	idleTimeout time.Duration
	lastUsed    time.Time
	timer       *time.Timer
	now         func() time.Time
	loads       int64
	unloads     int64
	logger      *zap.Logger
}

// NewModelManager wires a manager around factory. An idleTimeout of zero
// disables eviction.
func NewModelManager(factory ProviderFactory, idleTimeout time.Duration, logger *zap.Logger) *ModelManager {
	return &ModelManager{
		factory:     factory,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

// Acquire returns the live provider, constructing it if necessary, and
// refreshes the idle clock. Construction failures wrap
// ErrModelUnavailable so callers can fall back to non-contextual
// replacement.
func (m *ModelManager) Acquire() (FeatureProvider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.provider == nil {
		start := m.now()
		p, err := m.factory()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", scruberrors.ErrModelUnavailable, err)
		}
		m.provider = p
		m.loads++
		m.logger.Info("Language model loaded",
			zap.Duration("took", m.now().Sub(start)),
			zap.Int64("loads", m.loads))
	}

	m.lastUsed = m.now()
	m.schedule()
	return m.provider, nil
}

// schedule (re)arms the eviction timer. Caller holds mu.
func (m *ModelManager) schedule() {
	if m.idleTimeout <= 0 {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.idleTimeout, m.Sweep)
}

// Sweep evicts the provider if it has sat idle for the full timeout.
// Normally driven by the internal timer; exported so callers with an
// injected clock can force the check.
func (m *ModelManager) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.provider == nil || m.idleTimeout <= 0 {
		return
	}

	idle := m.now().Sub(m.lastUsed)
	if idle < m.idleTimeout {
		// Acquired since the timer was armed; try again later.
		if m.timer != nil {
			m.timer.Stop()
		}
		m.timer = time.AfterFunc(m.idleTimeout-idle, m.Sweep)
		return
	}

	m.evictLocked()
}

// evictLocked drops the provider. Caller holds mu.
func (m *ModelManager) evictLocked() {
	if c, ok := m.provider.(interface{ Close() }); ok {
		c.Close()
	}
	m.provider = nil
	m.unloads++
	m.logger.Info("Language model evicted after idle period",
		zap.Duration("idle_timeout", m.idleTimeout),
		zap.Int64("unloads", m.unloads))
}

// Loaded reports whether a provider is currently resident.
func (m *ModelManager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.provider != nil
}

// Counters returns the lifetime load and unload counts.
func (m *ModelManager) Counters() (loads, unloads int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads, m.unloads
}

// Close evicts any resident provider and stops the timer.
func (m *ModelManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.provider != nil {
		m.evictLocked()
	}
}

// SetClock replaces the manager's time source. Test hook.
func (m *ModelManager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
