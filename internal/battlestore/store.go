package battlestore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/park285/pokemon-chess-battle/internal/battle"
)

// SavedBattle is the content of a save slot.
type SavedBattle struct {
	BattleID  string          `json:"battleId"`
	StartedAt time.Time       `json:"startedAt"`
	Snapshot  battle.Snapshot `json:"snapshot"`
}

// Store persists save slots.
// Load returns (nil, nil) when the slot is empty. A payload that does not
// decode into a valid snapshot yields an error matching
// battle.ErrMalformedSnapshot.
type Store interface {
	Save(ctx context.Context, slot string, saved SavedBattle) error
	Load(ctx context.Context, slot string) (*SavedBattle, error)
	Delete(ctx context.Context, slot string) error
	Close() error
}

func encode(saved SavedBattle) ([]byte, error) {
	raw, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("encode saved battle: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (*SavedBattle, error) {
	var saved SavedBattle
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("%w: %v", battle.ErrMalformedSnapshot, err)
	}
	if strings.TrimSpace(saved.BattleID) == "" {
		return nil, fmt.Errorf("%w: missing battle id", battle.ErrMalformedSnapshot)
	}
	if err := saved.Snapshot.Validate(); err != nil {
		return nil, err
	}
	return &saved, nil
}

func normalizeSlot(slot string) (string, error) {
	s := strings.TrimSpace(slot)
	if s == "" {
		return "", fmt.Errorf("save slot required")
	}
	return s, nil
}
