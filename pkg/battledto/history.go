package battledto

import "time"

// BattleResult is an archived battle.
type BattleResult struct {
	BattleID   string      `json:"battleId"`
	Outcome    string      `json:"outcome"`
	Winner     string      `json:"winner,omitempty"`
	TurnCount  int         `json:"turnCount"`
	HalfMoves  int         `json:"halfMoves"`
	MoveList   []MoveEntry `json:"moveList"`
	StartedAt  time.Time   `json:"startedAt"`
	EndedAt    time.Time   `json:"endedAt"`
	DurationMS int64       `json:"durationMs"`
}
