package hoststate

import (
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS view_state (
	node_id TEXT NOT NULL,
	view_id TEXT NOT NULL,
	blob    BLOB NOT NULL,
	PRIMARY KEY (node_id, view_id)
);

CREATE TABLE IF NOT EXISTS exclusions (
	node_id TEXT PRIMARY KEY,
	indices TEXT NOT NULL
);
`

// SQLiteStore persists state to a SQLite database so canvas layers and
// list exclusions survive host restarts. Safe for concurrent use; the
// driver serializes writers.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and applies the
// schema. The caller owns the returned store and must Close it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStateStore, "open state database %s", path)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrStateStore, "set journal mode")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrStateStore, "apply state schema")
	}

	logger := logging.GetLogger("hoststate")
	logger.Debug().Str("path", path).Msg("State database opened")

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, errors.ErrStateStore, "close state database")
	}
	return nil
}

// ViewState returns the blob stored for the node/view pair, or nil.
func (s *SQLiteStore) ViewState(nodeID, viewID string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow(
		"SELECT blob FROM view_state WHERE node_id = ? AND view_id = ?",
		nodeID, viewID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStateStore, "read state for %s/%s", nodeID, viewID)
	}
	return blob, nil
}

// SetViewState stores the blob for the node/view pair.
func (s *SQLiteStore) SetViewState(nodeID, viewID string, blob []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO view_state (node_id, view_id, blob) VALUES (?, ?, ?)
		 ON CONFLICT (node_id, view_id) DO UPDATE SET blob = excluded.blob`,
		nodeID, viewID, blob,
	)
	if err != nil {
		return errors.Wrapf(err, errors.ErrStateStore, "write state for %s/%s", nodeID, viewID)
	}
	return nil
}

// Exclusions returns the excluded item indices for the node.
func (s *SQLiteStore) Exclusions(nodeID string) ([]int, error) {
	var raw string
	err := s.db.QueryRow(
		"SELECT indices FROM exclusions WHERE node_id = ?", nodeID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStateStore, "read exclusions for %s", nodeID)
	}

	var indices []int
	if err := json.Unmarshal([]byte(raw), &indices); err != nil {
		return nil, errors.Wrapf(err, errors.ErrStateStore, "decode exclusions for %s", nodeID)
	}
	return indices, nil
}

// SetExclusions replaces the excluded indices for the node.
func (s *SQLiteStore) SetExclusions(nodeID string, indices []int) error {
	if indices == nil {
		indices = []int{}
	}
	raw, err := json.Marshal(indices)
	if err != nil {
		return errors.Wrapf(err, errors.ErrStateStore, "encode exclusions for %s", nodeID)
	}

	_, err = s.db.Exec(
		`INSERT INTO exclusions (node_id, indices) VALUES (?, ?)
		 ON CONFLICT (node_id) DO UPDATE SET indices = excluded.indices`,
		nodeID, string(raw),
	)
	if err != nil {
		return errors.Wrapf(err, errors.ErrStateStore, "write exclusions for %s", nodeID)
	}
	return nil
}

// PruneViewState removes the blob for the node/view pair.
func (s *SQLiteStore) PruneViewState(nodeID, viewID string) error {
	_, err := s.db.Exec(
		"DELETE FROM view_state WHERE node_id = ? AND view_id = ?",
		nodeID, viewID,
	)
	if err != nil {
		return errors.Wrapf(err, errors.ErrStateStore, "prune state for %s/%s", nodeID, viewID)
	}
	return nil
}
