// Package profilestore is a reference Profile storage external collaborator
// backed by modernc.org/sqlite: a versioned schema applied at open time,
// WAL pragmas tuned for a single-writer embedded database, and a
// write-through Save/Load pair demonstrating the idempotent round-trip
// save contract the core itself never implements.
package profilestore

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    learner_id     TEXT PRIMARY KEY,
    total_attempts INTEGER NOT NULL DEFAULT 0,
    total_correct  INTEGER NOT NULL DEFAULT 0,
    last_updated   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS profile_scores (
    learner_id TEXT NOT NULL,
    concept_id TEXT NOT NULL,
    score      REAL NOT NULL,
    PRIMARY KEY (learner_id, concept_id),
    FOREIGN KEY (learner_id) REFERENCES profiles(learner_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS profile_schedule (
    learner_id       TEXT NOT NULL,
    concept_id       TEXT NOT NULL,
    last_seen_at     INTEGER NOT NULL,
    next_due_at      INTEGER NOT NULL,
    interval_index   INTEGER NOT NULL,
    success_streak   INTEGER NOT NULL,
    lapses           INTEGER NOT NULL,
    rolling_accuracy REAL NOT NULL,
    observations     INTEGER NOT NULL,
    PRIMARY KEY (learner_id, concept_id),
    FOREIGN KEY (learner_id) REFERENCES profiles(learner_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS profile_history (
    learner_id      TEXT NOT NULL,
    seq             INTEGER NOT NULL,
    quiz_id         TEXT NOT NULL,
    linked_concepts TEXT NOT NULL,
    correct         INTEGER NOT NULL,
    attempted_at    INTEGER NOT NULL,
    difficulty      INTEGER NOT NULL,
    style           TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (learner_id, seq),
    FOREIGN KEY (learner_id) REFERENCES profiles(learner_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_profile_schedule_due ON profile_schedule(next_due_at);
`

func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("profilestore: failed to create schema: %w", err)
	}

	var currentVersion int
	err := db.QueryRow("SELECT value FROM schema_metadata WHERE key = 'version'").Scan(&currentVersion)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.Exec("INSERT INTO schema_metadata (key, value) VALUES ('version', ?)", schemaVersion); err != nil {
			return fmt.Errorf("profilestore: failed to set schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("profilestore: failed to query schema version: %w", err)
	case currentVersion != schemaVersion:
		return fmt.Errorf("profilestore: schema version mismatch: expected %d, got %d", schemaVersion, currentVersion)
	}
	return nil
}

func configurePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("profilestore: failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}
