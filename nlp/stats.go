package nlp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// statsFlushInterval is how many recorded dashes pass between snapshot
// writes. Flushing on every dash would thrash the disk on large documents.
const statsFlushInterval = 50

// Decision is one classified dash, as handed to sinks and counted by
// Stats.
type Decision struct {
	Category    Category `json:"-"`
	Name        string   `json:"category"`
	Replacement string   `json:"replacement"`
	Confidence  float64  `json:"confidence"`
}

// DecisionSink receives classified dashes for out-of-band recording.
// Implementations must not block the caller.
type DecisionSink interface {
	Record(d Decision)
}

// StatsSnapshot is the JSON shape persisted to disk and served by the
// stats endpoint.
type StatsSnapshot struct {
	TotalDashes    int64            `json:"total_dashes"`
	ByCategory     map[string]int64 `json:"by_category"`
	AvgConfidence  float64          `json:"avg_confidence"`
	HighConfidence int64            `json:"high_confidence"`
	LowConfidence  int64            `json:"low_confidence"`
	ModelLoads     int64            `json:"model_loads"`
	ModelUnloads   int64            `json:"model_unloads"`
}

// Stats accumulates classification counters and periodically persists them
// as JSON. Safe for concurrent use.
type Stats struct {
	mu            sync.Mutex
	total         int64
	byCategory    map[string]int64
	confidenceSum float64
	high          int64
	low           int64
	sinceFlush    int

	path    string
	manager *ModelManager
	sink    DecisionSink
	logger  *zap.Logger
}

// NewStats builds a collector persisting to path. An empty path disables
// persistence; a nil sink disables decision forwarding.
func NewStats(path string, manager *ModelManager, sink DecisionSink, logger *zap.Logger) *Stats {
	return &Stats{
		byCategory: make(map[string]int64),
		path:       path,
		manager:    manager,
		sink:       sink,
		logger:     logger,
	}
}

// Record counts one verdict and forwards it to the sink, flushing the
// snapshot every statsFlushInterval dashes.
func (s *Stats) Record(v Verdict) {
	d := Decision{
		Category:    v.Category,
		Name:        v.Category.String(),
		Replacement: v.Replacement,
		Confidence:  v.Confidence,
	}

	s.mu.Lock()
	s.total++
	s.byCategory[d.Name]++
	s.confidenceSum += v.Confidence
	if v.Confidence >= 0.7 {
		s.high++
	} else {
		s.low++
	}
	s.sinceFlush++
	flush := s.sinceFlush >= statsFlushInterval
	if flush {
		s.sinceFlush = 0
	}
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.Record(d)
	}
	if flush {
		if err := s.Flush(); err != nil {
			s.logger.Warn("Failed to persist scrub stats", zap.Error(err))
		}
	}
}

// Snapshot returns a point-in-time copy of the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		TotalDashes:    s.total,
		ByCategory:     make(map[string]int64, len(s.byCategory)),
		HighConfidence: s.high,
		LowConfidence:  s.low,
	}
	for k, v := range s.byCategory {
		snap.ByCategory[k] = v
	}
	if s.total > 0 {
		snap.AvgConfidence = s.confidenceSum / float64(s.total)
	}
	if s.manager != nil {
		snap.ModelLoads, snap.ModelUnloads = s.manager.Counters()
	}
	return snap
}

// Flush writes the current snapshot to the stats file, creating parent
// directories as needed.
func (s *Stats) Flush() error {
	if s.path == "" {
		return nil
	}
	snap := s.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
