package snapshot

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"
	_ "modernc.org/sqlite"

	"collective/engine/library"
)

var ErrHashMismatch = errors.New("stored checkpoint does not match its hash")

type Store struct {
	db *sql.DB
	mu *deadlock.Mutex
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}
	s := &Store{db: db, mu: &deadlock.Mutex{}}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS checkpoints (
		hash TEXT PRIMARY KEY,
		height INTEGER NOT NULL,
		state TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_checkpoints_height ON checkpoints(height)`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the checkpoint and returns its hash. Saving the same checkpoint twice is a no-op.
func (s *Store) Save(c Checkpoint) (library.Sha256, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	hash := c.Hash()
	_, err = s.db.Exec(
		"INSERT OR IGNORE INTO checkpoints (hash, height, state) VALUES (?, ?, ?)",
		hash, int64(c.Height), string(b),
	)
	if err != nil {
		return "", fmt.Errorf("saving checkpoint at height %d: %w", c.Height, err)
	}
	library.LogCLI(fmt.Sprintf("saved checkpoint %s at height %d", hash, c.Height), 4)
	return hash, nil
}

// Latest returns the checkpoint with the greatest height, the most recently saved one on ties.
func (s *Store) Latest() (Checkpoint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan(s.db.QueryRow("SELECT hash, state FROM checkpoints ORDER BY height DESC, rowid DESC LIMIT 1"))
}

func (s *Store) Load(hash library.Sha256) (Checkpoint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan(s.db.QueryRow("SELECT hash, state FROM checkpoints WHERE hash = ?", hash))
}

// Heights maps the hash of every stored checkpoint to its height.
func (s *Store) Heights() (map[library.Sha256]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query("SELECT hash, height FROM checkpoints")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	heights := make(map[library.Sha256]uint64)
	for rows.Next() {
		var hash string
		var height int64
		if err := rows.Scan(&hash, &height); err != nil {
			return nil, err
		}
		heights[hash] = uint64(height)
	}
	return heights, rows.Err()
}

func (s *Store) scan(row *sql.Row) (Checkpoint, bool, error) {
	var hash, state string
	if err := row.Scan(&hash, &state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, err
	}
	var c Checkpoint
	if err := json.Unmarshal([]byte(state), &c); err != nil {
		return Checkpoint{}, false, err
	}
	if c.Hash() != hash {
		return Checkpoint{}, false, fmt.Errorf("%w: %s", ErrHashMismatch, hash)
	}
	return c, true, nil
}
