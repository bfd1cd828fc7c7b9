package battlestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS pokemon_battles (
	battle_id   TEXT PRIMARY KEY,
	outcome     TEXT NOT NULL,
	winner      TEXT NOT NULL DEFAULT '',
	turn_count  INTEGER NOT NULL,
	half_moves  INTEGER NOT NULL,
	move_list   JSONB NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	ended_at    TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL
)`

// PostgresArchive stores finished battles in the pokemon_battles table.
type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(databaseURL string) (*PostgresArchive, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresArchive{db: db}, nil
}

func (a *PostgresArchive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// SaveResult inserts r once; a second save of the same battle is ignored.
func (a *PostgresArchive) SaveResult(ctx context.Context, r Result) error {
	if a == nil || a.db == nil {
		return nil
	}
	moves, err := json.Marshal(r.MoveList)
	if err != nil {
		return fmt.Errorf("marshal move_list: %w", err)
	}
	const q = `
		INSERT INTO pokemon_battles (
			battle_id, outcome, winner, turn_count, half_moves,
			move_list, started_at, ended_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)
		ON CONFLICT (battle_id) DO NOTHING`
	_, err = a.db.ExecContext(ctx, q,
		r.BattleID, r.Outcome, r.Winner, r.TurnCount, r.HalfMoves,
		string(moves), r.StartedAt, r.EndedAt, r.Duration().Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert battle result: %w", err)
	}
	return nil
}

func (a *PostgresArchive) RecentResults(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT battle_id, outcome, winner, turn_count, half_moves, move_list, started_at, ended_at
		FROM pokemon_battles
		ORDER BY ended_at DESC
		LIMIT $1`
	rows, err := a.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("select battle results: %w", err)
	}
	defer rows.Close()

	out := make([]Result, 0, limit)
	for rows.Next() {
		var (
			r     Result
			moves []byte
		)
		if err := rows.Scan(&r.BattleID, &r.Outcome, &r.Winner, &r.TurnCount, &r.HalfMoves, &moves, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, fmt.Errorf("scan battle result: %w", err)
		}
		if err := json.Unmarshal(moves, &r.MoveList); err != nil {
			return nil, fmt.Errorf("unmarshal move_list: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
