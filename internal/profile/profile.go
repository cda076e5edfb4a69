// Package profile implements the Learner Profile (C3): per-learner mutable
// state handed to the core by value each call and handed back as a new
// value. Its discipline, deep-copy on read and never hand back a live
// internal reference, keeps external modifications from affecting the
// internal state; persistence itself is left to an external collaborator.
package profile

import (
	"time"

	"adaptivequiz/internal/domain"
)

// Profile is the per-learner state the core operates on. The caller owns
// storage; the core only ever receives a Profile by value (or a pointer the
// caller guarantees is single-writer) and returns a new Profile.
type Profile struct {
	LearnerID string

	Scores   map[string]float64
	Schedule map[string]domain.ScheduleEntry

	History []domain.AttemptRecord // most recent last; capped at HISTORY_CAP

	TotalAttempts int
	TotalCorrect  int

	LastUpdated time.Time
}

// New returns an empty profile for learnerID with all aggregates zero and
// empty maps.
func New(learnerID string) *Profile {
	return &Profile{
		LearnerID: learnerID,
		Scores:    make(map[string]float64),
		Schedule:  make(map[string]domain.ScheduleEntry),
		History:   nil,
	}
}

// Score returns the learner's score for concept c, or 0.0 if unset.
func (p *Profile) Score(c string) float64 {
	return p.Scores[c]
}

// Clone returns a deep copy of p so callers (and the core's own pure
// transformations) never alias maps or slices across profile values.
func (p *Profile) Clone() *Profile {
	cp := &Profile{
		LearnerID:     p.LearnerID,
		TotalAttempts: p.TotalAttempts,
		TotalCorrect:  p.TotalCorrect,
		LastUpdated:   p.LastUpdated,
	}
	cp.Scores = make(map[string]float64, len(p.Scores))
	for k, v := range p.Scores {
		cp.Scores[k] = v
	}
	cp.Schedule = make(map[string]domain.ScheduleEntry, len(p.Schedule))
	for k, v := range p.Schedule {
		cp.Schedule[k] = v
	}
	cp.History = append([]domain.AttemptRecord(nil), p.History...)
	return cp
}

// AppendAttempt appends rec to the history, discarding the oldest entry if
// the result would exceed cap. Discard is FIFO regardless of concept
// overlap.
func (p *Profile) AppendAttempt(rec domain.AttemptRecord, cap int) {
	p.History = append(p.History, rec)
	if len(p.History) > cap {
		p.History = p.History[len(p.History)-cap:]
	}
}

// RecentAttempts returns up to k most-recent attempts (most recent first),
// optionally filtered to those linked to conceptID. A zero conceptID means
// no filter.
func (p *Profile) RecentAttempts(conceptID string, k int) []domain.AttemptRecord {
	out := make([]domain.AttemptRecord, 0, k)
	for i := len(p.History) - 1; i >= 0 && len(out) < k; i-- {
		rec := p.History[i]
		if conceptID != "" && !containsString(rec.LinkedConcepts, conceptID) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// ResetAll zeroes every score and clears the schedule and history, for a
// reset with no concept_ids argument. Aggregates (TotalAttempts,
// TotalCorrect) are untouched by design; this reset operates on
// scores/schedule/history, not on the monotonically non-decreasing
// counters.
func (p *Profile) ResetAll() {
	p.Scores = make(map[string]float64)
	p.Schedule = make(map[string]domain.ScheduleEntry)
	p.History = nil
}

// ResetConcepts removes only the named concepts from Scores and Schedule,
// preserving history and aggregates.
func (p *Profile) ResetConcepts(conceptIDs []string) {
	for _, id := range conceptIDs {
		delete(p.Scores, id)
		delete(p.Schedule, id)
	}
}
