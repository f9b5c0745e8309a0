// Package session persists the logged-in session (bearer token and the
// serialized identity) in the local metadata store.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/officehub/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/officehub/internal/dbx"
)

// Keys under which the session is persisted.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Persisted is the raw persisted session. An empty field means the key was
// absent (or stored empty, which is treated the same way).
type Persisted struct {
	Token string
	User  string
	// SavedAt is when the token was written, zero when there is none.
	SavedAt time.Time
}

// Storage is the persistence port used by the session service.
type Storage interface {
	Load(ctx context.Context) (Persisted, error)
	// Save writes token and user together; readers never observe one without
	// the other.
	Save(ctx context.Context, token, user string) error
	SaveUser(ctx context.Context, user string) error
	Clear(ctx context.Context) error
}

// SQLiteStorage keeps the session in the metadata table.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (s *SQLiteStorage) Load(ctx context.Context) (Persisted, error) {
	records, err := s.repo(s.db).List(ctx)
	if err != nil {
		return Persisted{}, fmt.Errorf("load session: %w", err)
	}
	token := records[TokenKey]
	return Persisted{
		Token:   string(token.Value),
		User:    string(records[UserKey].Value),
		SavedAt: token.UpdatedAt,
	}, nil
}

func (s *SQLiteStorage) Save(ctx context.Context, token, user string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := r.Set(ctx, TokenKey, []byte(token)); err != nil {
			return err
		}
		return r.Set(ctx, UserKey, []byte(user))
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) SaveUser(ctx context.Context, user string) error {
	if err := s.repo(s.db).Set(ctx, UserKey, []byte(user)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Clear(ctx context.Context) error {
	if err := s.repo(s.db).Delete(ctx, TokenKey, UserKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
