// Package database persists dash classification decisions to Postgres for
// offline tuning of the rule cascade. The store is optional; the scrubber
// runs fine without a database_url configured.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/nisc/LLM-output-scrub/nlp"
)

type DecisionStore struct {
	DB     *sql.DB
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	queue  chan nlp.Decision
	done   chan struct{}
}

const decisionQueueSize = 256

// NewDecisionStore opens a connection and starts the background writer.
func NewDecisionStore(connStr string, logger *zap.Logger) (*DecisionStore, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &DecisionStore{
		DB:     db,
		logger: logger,
		queue:  make(chan nlp.Decision, decisionQueueSize),
		done:   make(chan struct{}),
	}
	go s.writeLoop()
	return s, nil
}

// EnsureSchema creates the decision table if it does not already exist.
func (s *DecisionStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scrub_decisions (
            id UUID PRIMARY KEY,
            category TEXT NOT NULL,
            replacement TEXT NOT NULL,
            confidence DOUBLE PRECISION NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_scrub_decisions_category ON scrub_decisions(category)`,
		`CREATE INDEX IF NOT EXISTS idx_scrub_decisions_created_at ON scrub_decisions(created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Record enqueues a decision for background insertion. Never blocks the
// classifier; when the queue is full, or the store is already shutting
// down, the decision is dropped.
func (s *DecisionStore) Record(d nlp.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- d:
	default:
		s.logger.Debug("Decision queue full, dropping record",
			zap.String("category", d.Name))
	}
}

func (s *DecisionStore) writeLoop() {
	for d := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.insert(ctx, d)
		cancel()
		if err != nil {
			s.logger.Error("Failed to store dash decision",
				zap.Error(err),
				zap.String("category", d.Name))
		}
	}
	close(s.done)
}

func (s *DecisionStore) insert(ctx context.Context, d nlp.Decision) error {
	query := `
		INSERT INTO scrub_decisions (id, category, replacement, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.DB.ExecContext(ctx, query, uuid.New(), d.Name, d.Replacement, d.Confidence, time.Now())
	return err
}

// CategoryCounts returns per-category decision totals, most frequent
// first.
func (s *DecisionStore) CategoryCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM scrub_decisions
		GROUP BY category ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var category string
		var n int64
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[category] = n
	}
	return counts, rows.Err()
}

// shutdown stops accepting records and waits for the writer to drain the
// queue. Safe to call more than once.
func (s *DecisionStore) shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

// Close drains the queue and shuts the connection down.
func (s *DecisionStore) Close() error {
	s.shutdown()
	return s.DB.Close()
}
