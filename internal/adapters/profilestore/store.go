package profilestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"adaptivequiz/internal/domain"
	"adaptivequiz/internal/profile"
)

// Store is a single-writer, embedded SQLite-backed Profile storage
// collaborator. It has no knowledge of the core's policy, graph, or scoring
// rules; it only persists and reloads the Profile value type verbatim.
type Store struct {
	db *sql.DB
}

// Open creates or attaches to the SQLite database at path, applying the
// schema and pragmas.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("profilestore: database path cannot be empty")
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("profilestore: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer, matching the per-learner serialization discipline

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("profilestore: failed to ping database: %w", err)
	}
	if err := configurePragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists p in full, replacing any previously stored state for the
// same learner in a single transaction: idempotent, since re-saving the
// same value yields the same stored rows.
func (s *Store) Save(p *profile.Profile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("profilestore: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.Exec(`
		INSERT INTO profiles (learner_id, total_attempts, total_correct, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(learner_id) DO UPDATE SET
			total_attempts=excluded.total_attempts,
			total_correct=excluded.total_correct,
			last_updated=excluded.last_updated
	`, p.LearnerID, p.TotalAttempts, p.TotalCorrect, timeToUnixNano(p.LastUpdated)); err != nil {
		return fmt.Errorf("profilestore: upsert profile: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM profile_scores WHERE learner_id = ?`, p.LearnerID); err != nil {
		return fmt.Errorf("profilestore: clear scores: %w", err)
	}
	for concept, score := range p.Scores {
		if _, err := tx.Exec(`INSERT INTO profile_scores (learner_id, concept_id, score) VALUES (?, ?, ?)`,
			p.LearnerID, concept, score); err != nil {
			return fmt.Errorf("profilestore: insert score: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM profile_schedule WHERE learner_id = ?`, p.LearnerID); err != nil {
		return fmt.Errorf("profilestore: clear schedule: %w", err)
	}
	for concept, entry := range p.Schedule {
		if _, err := tx.Exec(`
			INSERT INTO profile_schedule (
				learner_id, concept_id, last_seen_at, next_due_at,
				interval_index, success_streak, lapses, rolling_accuracy, observations
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.LearnerID, concept,
			timeToUnixNano(entry.LastSeenAt), timeToUnixNano(entry.NextDueAt),
			entry.IntervalIndex, entry.SuccessStreak, entry.Lapses, entry.RollingAccuracy, entry.Observations()); err != nil {
			return fmt.Errorf("profilestore: insert schedule entry: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM profile_history WHERE learner_id = ?`, p.LearnerID); err != nil {
		return fmt.Errorf("profilestore: clear history: %w", err)
	}
	for i, rec := range p.History {
		linked, err := json.Marshal(rec.LinkedConcepts)
		if err != nil {
			return fmt.Errorf("profilestore: marshal linked concepts: %w", err)
		}
		correct := 0
		if rec.Correct {
			correct = 1
		}
		if _, err := tx.Exec(`
			INSERT INTO profile_history (
				learner_id, seq, quiz_id, linked_concepts, correct, attempted_at, difficulty, style
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, p.LearnerID, i, rec.QuizID, string(linked), correct, timeToUnixNano(rec.At), rec.Difficulty, rec.Style); err != nil {
			return fmt.Errorf("profilestore: insert history entry: %w", err)
		}
	}

	return tx.Commit()
}

// Load reconstructs a Profile for learnerID, or a fresh empty Profile
// (profile.New's lifecycle rule: "created on first use") if none was ever
// saved.
func (s *Store) Load(learnerID string) (*profile.Profile, error) {
	p := profile.New(learnerID)

	var totalAttempts, totalCorrect int
	var lastUpdated int64
	err := s.db.QueryRow(`SELECT total_attempts, total_correct, last_updated FROM profiles WHERE learner_id = ?`, learnerID).
		Scan(&totalAttempts, &totalCorrect, &lastUpdated)
	switch {
	case err == sql.ErrNoRows:
		return p, nil
	case err != nil:
		return nil, fmt.Errorf("profilestore: load profile: %w", err)
	}
	p.TotalAttempts = totalAttempts
	p.TotalCorrect = totalCorrect
	p.LastUpdated = unixNanoToTime(lastUpdated)

	scoreRows, err := s.db.Query(`SELECT concept_id, score FROM profile_scores WHERE learner_id = ?`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("profilestore: load scores: %w", err)
	}
	defer scoreRows.Close()
	for scoreRows.Next() {
		var concept string
		var score float64
		if err := scoreRows.Scan(&concept, &score); err != nil {
			return nil, fmt.Errorf("profilestore: scan score row: %w", err)
		}
		p.Scores[concept] = score
	}
	if err := scoreRows.Err(); err != nil {
		return nil, fmt.Errorf("profilestore: iterate score rows: %w", err)
	}

	scheduleRows, err := s.db.Query(`
		SELECT concept_id, last_seen_at, next_due_at, interval_index, success_streak, lapses, rolling_accuracy, observations
		FROM profile_schedule WHERE learner_id = ?
	`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("profilestore: load schedule: %w", err)
	}
	defer scheduleRows.Close()
	for scheduleRows.Next() {
		var concept string
		var lastSeen, nextDue int64
		var entry domain.ScheduleEntry
		var observations int
		if err := scheduleRows.Scan(&concept, &lastSeen, &nextDue, &entry.IntervalIndex, &entry.SuccessStreak, &entry.Lapses, &entry.RollingAccuracy, &observations); err != nil {
			return nil, fmt.Errorf("profilestore: scan schedule row: %w", err)
		}
		entry.LastSeenAt = unixNanoToTime(lastSeen)
		entry.NextDueAt = unixNanoToTime(nextDue)
		p.Schedule[concept] = entry.WithObservations(observations)
	}
	if err := scheduleRows.Err(); err != nil {
		return nil, fmt.Errorf("profilestore: iterate schedule rows: %w", err)
	}

	historyRows, err := s.db.Query(`
		SELECT quiz_id, linked_concepts, correct, attempted_at, difficulty, style
		FROM profile_history WHERE learner_id = ? ORDER BY seq ASC
	`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("profilestore: load history: %w", err)
	}
	defer historyRows.Close()
	for historyRows.Next() {
		var rec domain.AttemptRecord
		var linkedJSON string
		var correct int
		var at int64
		if err := historyRows.Scan(&rec.QuizID, &linkedJSON, &correct, &at, &rec.Difficulty, &rec.Style); err != nil {
			return nil, fmt.Errorf("profilestore: scan history row: %w", err)
		}
		if err := json.Unmarshal([]byte(linkedJSON), &rec.LinkedConcepts); err != nil {
			return nil, fmt.Errorf("profilestore: unmarshal linked concepts: %w", err)
		}
		rec.Correct = correct != 0
		rec.At = unixNanoToTime(at)
		p.History = append(p.History, rec)
	}
	if err := historyRows.Err(); err != nil {
		return nil, fmt.Errorf("profilestore: iterate history rows: %w", err)
	}

	return p, nil
}

func timeToUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func unixNanoToTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
