package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 1

func OpenDB(dbPath string) (*sql.DB, error) {
	parentDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return nil, fmt.Errorf("creating parent directories: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// PRAGMAs are per connection; a single connection keeps foreign keys on
	// for every statement.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrateSchema(db, dbPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func migrateSchema(db *sql.DB, dbPath string) error {
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)

	var currentVersion int
	if err == sql.ErrNoRows {
		currentVersion = 0
	} else if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	} else {
		err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&currentVersion)
		if err == sql.ErrNoRows {
			currentVersion = 0
		} else if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	if currentVersion > currentSchemaVersion {
		return fmt.Errorf(
			"database schema version %d is newer than this heal-top version supports (max: %d); upgrade heal-top or delete %s to start fresh",
			currentVersion, currentSchemaVersion, dbPath,
		)
	}

	if currentVersion < currentSchemaVersion {
		if err := applyMigrations(db, currentVersion); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
	}

	return nil
}

func applyMigrations(db *sql.DB, fromVersion int) error {
	if fromVersion == 0 {
		if err := migrateV0ToV1(db); err != nil {
			return fmt.Errorf("migration v0→v1: %w", err)
		}
	}

	return nil
}

func migrateV0ToV1(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (1)")
	if err != nil {
		return fmt.Errorf("inserting schema version: %w", err)
	}

	// Timestamps and counters are uint64 in memory and stored bit for bit.
	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS encounters (
			encounter_id TEXT PRIMARY KEY,
			saved_at INTEGER NOT NULL,
			local_subgroup INTEGER NOT NULL,
			entered_combat INTEGER NOT NULL,
			exited_combat INTEGER NOT NULL,
			last_heal_event INTEGER NOT NULL,
			last_damage_event INTEGER NOT NULL,
			total_healing INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating encounters table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS agents (
			encounter_id TEXT NOT NULL REFERENCES encounters(encounter_id) ON DELETE CASCADE,
			agent_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			subgroup INTEGER NOT NULL,
			minion INTEGER NOT NULL,
			PRIMARY KEY (encounter_id, agent_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating agents table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS skills (
			encounter_id TEXT NOT NULL REFERENCES encounters(encounter_id) ON DELETE CASCADE,
			skill_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (encounter_id, skill_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating skills table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS skill_healing (
			encounter_id TEXT NOT NULL,
			skill_id INTEGER NOT NULL,
			agent_id INTEGER NOT NULL,
			total_healing INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			PRIMARY KEY (encounter_id, skill_id, agent_id),
			FOREIGN KEY (encounter_id, skill_id) REFERENCES skills(encounter_id, skill_id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("creating skill_healing table: %w", err)
	}

	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_encounters_saved_at ON encounters(saved_at)")
	if err != nil {
		return fmt.Errorf("creating idx_encounters_saved_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
