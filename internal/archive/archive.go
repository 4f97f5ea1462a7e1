// Package archive keeps an optional Postgres ledger of what the tool
// saw and did: wall snapshots after each enumeration and one row per
// delete attempt. It is never read on the hot path and a broken
// archive degrades to log lines.
package archive

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"wallsweep/internal/vk"
	"wallsweep/internal/wall"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Store is the ledger connection. A nil *Store is valid and all its
// methods are no-ops, so callers never branch on whether archiving is
// enabled.
type Store struct {
	db      *sql.DB
	log     zerolog.Logger
	timeout time.Duration
}

// Open connects and applies migrations. An empty dsn disables the
// archive and returns a nil store.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, nil
	}

	baseCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	db := stdlib.OpenDB(*baseCfg)
	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	migrateCtx, cancelMigrate := context.WithTimeout(ctx, 30*time.Second)
	defer cancelMigrate()

	goose.SetBaseFS(embeddedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure migrations: %w", err)
	}
	if err := goose.UpContext(migrateCtx, db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	logger.Info().Msg("archive migrations applied")

	return &Store{db: db, log: logger, timeout: time.Minute}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) withContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.timeout)
}

// SavePosts upserts an enumerated wall snapshot in one transaction.
func (s *Store) SavePosts(ctx context.Context, posts []vk.Post) {
	if s == nil || len(posts) == 0 {
		return
	}
	ctx, cancel := s.withContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("archive snapshot: begin tx failed")
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `
		INSERT INTO wall_posts (owner_id, id, posted_at, text, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id, id) DO UPDATE
		SET text = EXCLUDED.text,
			fetched_at = EXCLUDED.fetched_at
	`

	now := time.Now().UTC()
	for _, post := range posts {
		if _, err = tx.ExecContext(ctx, query, post.OwnerID, post.ID, time.Unix(post.Date, 0).UTC(), post.Text, now); err != nil {
			s.log.Error().Err(err).Int("post_id", post.ID).Msg("archive snapshot failed")
			return
		}
	}

	if err = tx.Commit(); err != nil {
		s.log.Error().Err(err).Msg("archive snapshot: commit failed")
		return
	}
	s.log.Info().Int("posts", len(posts)).Msg("wall snapshot archived")
}

// RecordOutcomes appends one row per delete attempt, keeping the API
// error code and message when the failure carried them.
func (s *Store) RecordOutcomes(ctx context.Context, ownerID int, outcomes []wall.Outcome) {
	if s == nil || len(outcomes) == 0 {
		return
	}
	ctx, cancel := s.withContext(ctx)
	defer cancel()

	const query = `
		INSERT INTO deletions (owner_id, post_id, ok, error_code, error_msg, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()
	for _, outcome := range outcomes {
		ok := outcome.Err == nil
		code := 0
		msg := ""
		if !ok {
			msg = outcome.Err.Error()
			var apiErr *vk.APIError
			if errors.As(outcome.Err, &apiErr) {
				code = apiErr.Code
				msg = apiErr.Msg
			}
		}

		if _, err := s.db.ExecContext(ctx, query, ownerID, outcome.PostID, ok, code, msg, now); err != nil {
			s.log.Error().Err(err).Int("post_id", outcome.PostID).Msg("archive deletion failed")
			return
		}
	}
	s.log.Info().Int("outcomes", len(outcomes)).Msg("deletions archived")
}
