package battlestore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/park285/pokemon-chess-battle/internal/battle"
)

// Result is the archived outcome of a finished battle.
type Result struct {
	BattleID  string                 `json:"battleId"`
	Outcome   string                 `json:"outcome"` // checkmate | stalemate
	Winner    string                 `json:"winner,omitempty"`
	TurnCount int                    `json:"turnCount"`
	HalfMoves int                    `json:"halfMoves"`
	MoveList  []battle.MoveListEntry `json:"moveList"`
	StartedAt time.Time              `json:"startedAt"`
	EndedAt   time.Time              `json:"endedAt"`
}

func (r Result) Duration() time.Duration {
	d := r.EndedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Archive records finished battles. SaveResult is idempotent per BattleID.
type Archive interface {
	SaveResult(ctx context.Context, r Result) error
	RecentResults(ctx context.Context, limit int) ([]Result, error)
	Close() error
}

// MemoryArchive is the in-process archive used when DATABASE_URL is unset.
type MemoryArchive struct {
	mu      sync.RWMutex
	results map[string]Result
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{results: make(map[string]Result)}
}

func (m *MemoryArchive) SaveResult(ctx context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.results[r.BattleID]; exists {
		return nil
	}
	r.MoveList = append([]battle.MoveListEntry(nil), r.MoveList...)
	m.results[r.BattleID] = r
	return nil
}

func (m *MemoryArchive) RecentResults(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	items := make([]Result, 0, len(m.results))
	for _, r := range m.results {
		items = append(items, r)
	}
	m.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].BattleID > items[j].BattleID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryArchive) Close() error { return nil }
