package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/melodyhei/handwriten2md/constants"
)

// SQLiteStore is the opt-in database-backed ledger. Both stages share
// one database file; rows are scoped by stage name.
type SQLiteStore struct {
	db    *sql.DB
	stage string
}

// OpenSQLite opens (creating if needed) the shared ledger database.
func OpenSQLite(path string) (*sql.DB, error) {
	// Busy timeout to avoid SQLITE_BUSY when both stage ledgers share
	// the file within one run.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ledger_entries (
		stage TEXT NOT NULL,
		item_id TEXT NOT NULL,
		processed_at TEXT NOT NULL,
		PRIMARY KEY (stage, item_id)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}
	return nil
}

func NewSQLiteStore(db *sql.DB, stage string) *SQLiteStore {
	return &SQLiteStore{db: db, stage: stage}
}

func (s *SQLiteStore) Load() (Ledger, error) {
	rows, err := s.db.Query(
		`SELECT item_id, processed_at FROM ledger_entries WHERE stage = ?`, s.stage)
	if err != nil {
		return nil, fmt.Errorf("load ledger (%s): %w", s.stage, err)
	}
	defer func() { _ = rows.Close() }()

	l := Ledger{}
	for rows.Next() {
		var id, at string
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("scan ledger row (%s): %w", s.stage, err)
		}
		l[id] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger (%s): %w", s.stage, err)
	}
	return l, nil
}

func (s *SQLiteStore) Record(id string, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO ledger_entries (stage, item_id, processed_at) VALUES (?, ?, ?)
		 ON CONFLICT (stage, item_id) DO UPDATE SET processed_at = excluded.processed_at`,
		s.stage, id, at.Format(constants.TimestampLayout),
	)
	if err != nil {
		return fmt.Errorf("record ledger entry (%s, %s): %w", s.stage, id, err)
	}
	return nil
}

func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM ledger_entries WHERE stage = ?`, s.stage); err != nil {
		return fmt.Errorf("clear ledger (%s): %w", s.stage, err)
	}
	return nil
}
