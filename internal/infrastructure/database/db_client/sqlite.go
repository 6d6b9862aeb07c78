package db_client

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS transactions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  merchant_transaction_id TEXT NOT NULL UNIQUE,
  user_id TEXT,
  amount TEXT NOT NULL,
  status TEXT NOT NULL,
  provider_transaction_id TEXT,
  response_data TEXT,
  checked_at TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_status_created_at ON transactions (status, created_at);`

// OpenSQLite opens (or creates) a SQLite database at path and ensures the
// transactions table exists.
func OpenSQLite(path string) (*sql.DB, error) {
	// busy_timeout is a per-connection setting, so it goes in the DSN.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create transactions table: %w", err)
	}

	if err := addSQLiteColumn(db, "checked_at", "TEXT"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// addSQLiteColumn adds a column to transactions tables created before it existed.
func addSQLiteColumn(db *sql.DB, name, typ string) error {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('transactions') WHERE name = ?", name).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect transactions table: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err = db.Exec(fmt.Sprintf("ALTER TABLE transactions ADD COLUMN %s %s", name, typ)); err != nil {
		return fmt.Errorf("add column %s: %w", name, err)
	}
	return nil
}
