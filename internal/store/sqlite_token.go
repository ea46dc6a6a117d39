package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"golang.org/x/oauth2"
)

const createTokenTable = `
CREATE TABLE IF NOT EXISTS spotify_token (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	access_token  TEXT    NOT NULL,
	token_type    TEXT    NOT NULL DEFAULT '',
	refresh_token TEXT    NOT NULL DEFAULT '',
	expiry        INTEGER NOT NULL DEFAULT 0,
	updated_at    INTEGER NOT NULL
)`

const upsertToken = `
INSERT INTO spotify_token (id, access_token, token_type, refresh_token, expiry, updated_at)
VALUES (1, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	access_token  = excluded.access_token,
	token_type    = excluded.token_type,
	refresh_token = excluded.refresh_token,
	expiry        = excluded.expiry,
	updated_at    = excluded.updated_at`

const selectToken = `
SELECT access_token, token_type, refresh_token, expiry FROM spotify_token WHERE id = 1`

// SQLiteTokenStore keeps the single OAuth token in a one-row SQLite table.
type SQLiteTokenStore struct {
	db *sql.DB
}

// OpenSQLiteTokenStore opens (or creates) the database at path.
func OpenSQLiteTokenStore(ctx context.Context, path string) (*SQLiteTokenStore, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open token database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createTokenTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create token table: %w", err)
	}

	return &SQLiteTokenStore{db: db}, nil
}

// Load returns the stored token, or nil when no token has been saved yet.
func (s *SQLiteTokenStore) Load(ctx context.Context) (*oauth2.Token, error) {
	var (
		token  oauth2.Token
		expiry int64
	)
	err := s.db.QueryRowContext(ctx, selectToken).
		Scan(&token.AccessToken, &token.TokenType, &token.RefreshToken, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	if expiry != 0 {
		token.Expiry = time.Unix(expiry, 0)
	}
	return &token, nil
}

// Save replaces the stored token.
func (s *SQLiteTokenStore) Save(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return errors.New("refusing to save nil token")
	}

	var expiry int64
	if !token.Expiry.IsZero() {
		expiry = token.Expiry.Unix()
	}

	_, err := s.db.ExecContext(ctx, upsertToken,
		token.AccessToken, token.TokenType, token.RefreshToken, expiry, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (s *SQLiteTokenStore) Close() error {
	return s.db.Close()
}
