// internal/database/database.go

// Package database archives finished games to Postgres. Write-only: the
// server never reads game state back, so a missing database costs nothing
// but the archive. Nil-guarded like the cache package.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/maccorless/UpNDown/engine"
)

// DB is the shared connection pool. Nil when no DATABASE_URL is configured.
var DB *pgxpool.Pool

// Connect opens the pool and verifies connectivity.
func Connect(ctx context.Context, url string) error {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("database: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("database: ping: %w", err)
	}
	DB = pool
	return nil
}

// CreateSchema creates the archive table if it does not exist.
func CreateSchema(ctx context.Context) error {
	if DB == nil {
		return nil
	}
	_, err := DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS finished_games (
			room_code   TEXT        NOT NULL,
			phase       TEXT        NOT NULL,
			players     INT         NOT NULL,
			turns       INT         NOT NULL,
			started_at  TIMESTAMPTZ,
			ended_at    TIMESTAMPTZ,
			snapshot    JSONB       NOT NULL,
			archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("database: create schema: %w", err)
	}
	return nil
}

// StoreFinishedGame inserts the terminal snapshot of one game. Intended to
// run in its own goroutine off the action path; failures are logged, never
// surfaced to a client.
func StoreFinishedGame(ctx context.Context, log *logrus.Logger, code string, final *engine.GameState) {
	if DB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	snapshot, err := json.Marshal(final)
	if err != nil {
		log.WithError(err).WithField("room", code).Error("archive: marshal snapshot")
		return
	}
	_, err = DB.Exec(ctx, `
		INSERT INTO finished_games (room_code, phase, players, turns, started_at, ended_at, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		code, string(final.Phase), len(final.Players), final.Stats.Turns,
		final.Stats.StartedAt, final.Stats.EndedAt, snapshot)
	if err != nil {
		log.WithError(err).WithField("room", code).Error("archive: insert finished game")
	}
}

// Close releases the pool.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}
