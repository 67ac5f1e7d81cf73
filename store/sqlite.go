package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps all values in a single kv table. It is the deployment
// backend; the schema is managed by the embedded migrations (see Migrate).
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(database string) (*SQLiteStore, error) {
	db, err := connection(database)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func connection(database string) (*sql.DB, error) {
	// Enable foreign keys and WAL mode
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", database))
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1)            // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)            // Keep one connection in the pool
	db.SetConnMaxLifetime(time.Hour) // Recreate connections after an hour
	db.SetConnMaxIdleTime(time.Hour) // Close idle connections after an hour

	if _, err := db.Exec(`
		PRAGMA busy_timeout = 5000;
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;
	`); err != nil {
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	return db, nil
}

func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("value").From("kv")
	sb.Where(sb.Equal("key", key))

	query, args := sb.Build()

	var value []byte
	err := s.db.QueryRow(query, args...).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	log.WithFields(log.Fields{
		"key":   key,
		"bytes": len(value),
	}).Debug("Stored value")
	return nil
}

func (s *SQLiteStore) Delete(key string) error {
	db := sqlbuilder.SQLite.NewDeleteBuilder()
	db.DeleteFrom("kv")
	db.Where(db.Equal("key", key))

	query, args := db.Build()
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Keys(prefix string) ([]string, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("key").From("kv")
	if prefix != "" {
		sb.Where(sb.Like("key", escapeLike(prefix)+"%") + ` ESCAPE '\'`)
	}
	sb.OrderBy("key")

	query, args := sb.Build()
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
