package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/turtacn/qsarflow/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	stamp      TEXT NOT NULL,
	input_sum  TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	payload    BLOB NOT NULL,
	PRIMARY KEY (stamp, input_sum)
);
`

// Store is a SQLite-backed snapshot store.  A single file holds every
// snapshot; the (stamp, input_sum) pair is the identity of one ingestion
// result.
type Store struct {
	db *sql.DB
}

// Open creates or opens the snapshot database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeCacheStoreFailed,
				fmt.Sprintf("cannot create cache directory %s", dir))
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCacheStoreFailed,
			fmt.Sprintf("cannot open cache database %s", path))
	}
	// The driver serializes access per connection; a single connection avoids
	// writer contention on the cache file.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CodeCacheStoreFailed,
			"cannot initialize cache schema")
	}
	return &Store{db: db}, nil
}

// Lookup returns the payload stored for (stamp, inputSum).  The second return
// is false when no snapshot exists.
func (s *Store) Lookup(stamp, inputSum string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRow(
		`SELECT payload FROM snapshots WHERE stamp = ? AND input_sum = ?`,
		stamp, inputSum).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.CodeCacheLookupFailed,
			"snapshot query failed")
	}
	return payload, true, nil
}

// Save stores payload under (stamp, inputSum), replacing any previous
// snapshot with the same identity.
func (s *Store) Save(stamp, inputSum string, payload []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO snapshots (stamp, input_sum, created_at, payload)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (stamp, input_sum) DO UPDATE SET
			created_at = excluded.created_at,
			payload    = excluded.payload`,
		stamp, inputSum, time.Now().Unix(), payload)
	if err != nil {
		return errors.Wrap(err, errors.CodeCacheStoreFailed,
			"snapshot insert failed")
	}
	return nil
}

// Prune removes snapshots older than the retention window.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE created_at < ?`,
		time.Now().Add(-olderThan).Unix())
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeCacheStoreFailed,
			"snapshot prune failed")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
