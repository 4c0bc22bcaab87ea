// Package store keeps client state (the login session) in a local SQLite
// database migrated with goose.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"storyfeed/internal/store/metadata"
	"storyfeed/internal/store/migrations"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	keyToken    = "session.token"
	keyUsername = "session.username"
)

// ErrNoCredentials is returned when no session has been saved.
var ErrNoCredentials = errors.New("no stored credentials")

// Credentials identify a saved login session.
type Credentials struct {
	Token    string
	Username string
}

// Store wraps the database and its repositories.
type Store struct {
	db       *sql.DB
	Metadata metadata.Repository
}

// Open opens (creating if needed) the database at path and applies
// migrations. ":memory:" is accepted for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	// one connection keeps ":memory:" databases from splitting per conn
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:       db,
		Metadata: metadata.NewSQLiteRepository(db),
	}, nil
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCredentials remembers the session for later restores.
func (s *Store) SaveCredentials(ctx context.Context, c Credentials) error {
	if err := s.Metadata.Set(ctx, keyToken, []byte(c.Token)); err != nil {
		return err
	}
	return s.Metadata.Set(ctx, keyUsername, []byte(c.Username))
}

// LoadCredentials returns the saved session or ErrNoCredentials.
func (s *Store) LoadCredentials(ctx context.Context) (Credentials, error) {
	token, err := s.Metadata.Get(ctx, keyToken)
	if err != nil {
		return Credentials{}, err
	}
	username, err := s.Metadata.Get(ctx, keyUsername)
	if err != nil {
		return Credentials{}, err
	}
	if len(token) == 0 || len(username) == 0 {
		return Credentials{}, ErrNoCredentials
	}
	return Credentials{Token: string(token), Username: string(username)}, nil
}

// ClearCredentials forgets the saved session.
func (s *Store) ClearCredentials(ctx context.Context) error {
	if err := s.Metadata.Delete(ctx, keyToken); err != nil {
		return err
	}
	return s.Metadata.Delete(ctx, keyUsername)
}

// TokenInfo is what the client can read from a session token without the
// server's signing key.
type TokenInfo struct {
	Username string
	IssuedAt time.Time
}

// TokenClaims decodes a session token without verifying its signature.
func TokenClaims(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to decode token: %w", err)
	}

	var info TokenInfo
	if username, ok := claims["username"].(string); ok {
		info.Username = username
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	return info, nil
}
