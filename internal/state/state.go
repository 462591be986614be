// Package state persists the client's session snapshot across process
// restarts. The persisted subset is {user, isAuthenticated} plus the bearer
// token; transient fields never touch disk.
package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/samuelorobosa/jci-conf-client/internal/model"
)

// schemaVersion guards the serialize/deserialize boundary. A mismatch means
// the on-disk record was written by an incompatible build and is discarded.
const schemaVersion = 1

// Record is the persisted session subset.
type Record struct {
	User            *model.User
	IsAuthenticated bool
	Token           string
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the state database at path. ":memory:" is
// accepted for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single writer owns this file; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
			return err
		}
	case err != nil:
		return err
	case version != schemaVersion:
		// Incompatible state is dropped, never migrated in place: the worst
		// case is one extra login.
		if _, err := s.db.Exec(`DROP TABLE IF EXISTS session_state`); err != nil {
			return err
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, schemaVersion); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS session_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		user_json TEXT,
		is_authenticated INTEGER NOT NULL DEFAULT 0,
		token TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`)
	return err
}

// Load returns the persisted record and whether one exists. A corrupt user
// payload counts as absent: the caller starts anonymous instead of failing.
func (s *Store) Load() (Record, bool, error) {
	var userJSON sql.NullString
	var isAuthenticated int
	var token string
	err := s.db.QueryRow(
		`SELECT user_json, is_authenticated, token FROM session_state WHERE id = 1`,
	).Scan(&userJSON, &isAuthenticated, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	record := Record{
		IsAuthenticated: isAuthenticated != 0,
		Token:           token,
	}
	if userJSON.Valid && userJSON.String != "" {
		var user model.User
		if err := json.Unmarshal([]byte(userJSON.String), &user); err != nil {
			return Record{}, false, nil
		}
		record.User = &user
	}
	return record, true, nil
}

func (s *Store) Save(record Record) error {
	var userJSON any
	if record.User != nil {
		encoded, err := json.Marshal(record.User)
		if err != nil {
			return err
		}
		userJSON = string(encoded)
	}
	isAuthenticated := 0
	if record.IsAuthenticated {
		isAuthenticated = 1
	}
	_, err := s.db.Exec(`INSERT INTO session_state (id, user_json, is_authenticated, token, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_json = excluded.user_json,
			is_authenticated = excluded.is_authenticated,
			token = excluded.token,
			updated_at = excluded.updated_at`,
		userJSON, isAuthenticated, record.Token, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM session_state WHERE id = 1`)
	return err
}
