// Package quizcore is the Public Facade (C6): the five synchronous
// operations the core exposes, wired over the Knowledge Graph, Learner
// Profile, Scoring System, and Selection Engine. It is the only package
// callers outside this module are expected to import.
package quizcore

import (
	"time"

	"adaptivequiz/internal/corelog"
	"adaptivequiz/internal/domain"
	"adaptivequiz/internal/knowledgegraph"
	"adaptivequiz/internal/policy"
	"adaptivequiz/internal/profile"
	"adaptivequiz/internal/quizerr"
	"adaptivequiz/internal/scoring"
	"adaptivequiz/internal/selection"
)

// Kind re-exports quizerr's error-kind enum at the facade boundary so
// callers depend only on this package.
type Kind = quizerr.Kind

const (
	CycleDetected   = quizerr.CycleDetected
	UnknownConcept  = quizerr.UnknownConcept
	NoQuizAvailable = quizerr.NoQuizAvailable
	StaleProfile    = quizerr.StaleProfile
	InvalidPolicy   = quizerr.InvalidPolicy
)

// CoreError is the discriminated error value every facade operation returns
// on failure. It is quizerr.Error under a facade-local name so callers
// never need to import internal/quizerr directly.
type CoreError = quizerr.Error

// Core bundles the frozen policy and logger every operation is evaluated
// against, passed as a single frozen value.
type Core struct {
	Policy *policy.Policy
	Logger corelog.Logger
}

// New validates pol (nil means policy.Default()) and returns a ready Core.
// A nil logger defaults to corelog.NewStandard().
func New(pol *policy.Policy, logger corelog.Logger) (*Core, error) {
	validated, err := policy.New(pol)
	if err != nil {
		return nil, quizerr.New(quizerr.InvalidPolicy, err.Error()).WithCause(err)
	}
	if logger == nil {
		logger = corelog.NewStandard()
	}
	return &Core{Policy: validated, Logger: logger}, nil
}

// SuggestNextQuiz chooses the next quiz to present for a learner.
func (c *Core) SuggestNextQuiz(p *profile.Profile, g *knowledgegraph.Graph, quizzes []*domain.QuizItem, now time.Time) (*domain.QuizItem, error) {
	return selection.Suggest(p, g, quizzes, now, c.Policy, c.Logger)
}

// UpdateScores records a quiz attempt and advances the learner's scores and
// review schedule. If now precedes p's LastUpdated, the write is rejected
// with StaleProfile rather than silently applying an out-of-order mutation.
func (c *Core) UpdateScores(p *profile.Profile, quiz *domain.QuizItem, correct bool, g *knowledgegraph.Graph, now time.Time) (*profile.Profile, error) {
	if !p.LastUpdated.IsZero() && now.Before(p.LastUpdated) {
		return nil, quizerr.Newf(quizerr.StaleProfile, "update_scores: now (%s) precedes profile's last_updated (%s)", now, p.LastUpdated).WithDetails(p.LearnerID)
	}
	return scoring.Apply(p, quiz, correct, g, c.Policy, now, c.Logger)
}

// GetLearningProgress summarizes a learner's mastery, weak concepts, and
// due reviews. It never mutates p.
func (c *Core) GetLearningProgress(p *profile.Profile, g *knowledgegraph.Graph, now time.Time) *Progress {
	return computeProgress(p, g, c.Policy, now)
}

// ResetUserProgress clears a learner's progress. A nil conceptIDs resets
// every score, schedule entry, and history entry; a non-nil (including
// empty) conceptIDs removes only the named concepts from scores and
// schedule, leaving history and aggregates untouched, so passing an
// explicitly empty slice is a no-op.
func (c *Core) ResetUserProgress(p *profile.Profile, conceptIDs []string) *profile.Profile {
	next := p.Clone()
	if conceptIDs == nil {
		next.ResetAll()
		return next
	}
	next.ResetConcepts(conceptIDs)
	return next
}

// RecentAttempts returns up to k of a learner's most recent quiz attempts,
// optionally filtered to those linked to conceptID.
func (c *Core) RecentAttempts(p *profile.Profile, conceptID string, k int) []domain.AttemptRecord {
	return p.RecentAttempts(conceptID, k)
}
