// Package scoring implements the Scoring System (C4): a pure transformation
// (profile, quiz, correctness, graph, clock) -> profile' applying bounded
// score deltas, prerequisite bonuses, and spaced-repetition schedule
// transitions.
package scoring

import (
	"time"

	"adaptivequiz/internal/corelog"
	"adaptivequiz/internal/domain"
	"adaptivequiz/internal/knowledgegraph"
	"adaptivequiz/internal/policy"
	"adaptivequiz/internal/profile"
	"adaptivequiz/internal/quizerr"
)

// Apply runs the scoring algorithm and returns a new profile value; p is
// never mutated. On UnknownConcept validation failure, the returned profile
// is nil and p is left entirely unchanged: no partial mutation occurs when
// update_scores fails validation.
func Apply(p *profile.Profile, quiz *domain.QuizItem, correct bool, g *knowledgegraph.Graph, pol *policy.Policy, now time.Time, logger corelog.Logger) (*profile.Profile, error) {
	if logger == nil {
		logger = corelog.NewStandard()
	}

	// Step 1: validate every linked concept is known to the graph.
	for _, c := range quiz.LinkedConcepts {
		if !g.Contains(c) {
			return nil, quizerr.Newf(quizerr.UnknownConcept, "update_scores: quiz %q links unknown concept %q", quiz.ID, c).WithDetails(c)
		}
	}

	next := p.Clone()

	// Step 2: score deltas.
	if correct {
		applyCorrectDeltas(next, quiz, g, pol, logger)
	} else {
		applyIncorrectDeltas(next, quiz, pol, logger)
	}

	// Step 3: schedule update, one per linked concept.
	for _, c := range quiz.LinkedConcepts {
		updateSchedule(next, c, correct, pol, now, logger)
	}

	// Step 4: history.
	next.AppendAttempt(domain.AttemptRecord{
		QuizID:         quiz.ID,
		LinkedConcepts: append([]string(nil), quiz.LinkedConcepts...),
		Correct:        correct,
		At:             now,
		Difficulty:     quiz.Difficulty,
		Style:          quiz.Style,
	}, pol.HistoryCap)

	// Step 5: aggregates.
	next.TotalAttempts++
	if correct {
		next.TotalCorrect++
	}

	// Step 6.
	next.LastUpdated = now

	return next, nil
}

func applyCorrectDeltas(p *profile.Profile, quiz *domain.QuizItem, g *knowledgegraph.Graph, pol *policy.Policy, logger corelog.Logger) {
	linked := make(map[string]bool, len(quiz.LinkedConcepts))
	for _, c := range quiz.LinkedConcepts {
		linked[c] = true
	}

	for _, c := range quiz.LinkedConcepts {
		before := p.Scores[c]
		after := pol.Clamp(before + pol.CorrectDelta)
		p.Scores[c] = after
		logger.Debug("score-delta", corelog.F("concept", c), corelog.F("before", before), corelog.F("after", after), corelog.F("correct", true))
	}

	// Union of direct prerequisites of every linked concept, minus the
	// linked set itself, each bonused once regardless of multiplicity.
	bonused := make(map[string]bool)
	for _, c := range quiz.LinkedConcepts {
		prereqs, err := g.DirectPrerequisites(c)
		if err != nil {
			continue // c is already known to exist; defensive only.
		}
		for _, pr := range prereqs {
			if linked[pr] || bonused[pr] {
				continue
			}
			bonused[pr] = true
			before := p.Scores[pr]
			after := pol.Clamp(before + pol.PrereqBonus)
			p.Scores[pr] = after
			logger.Debug("prereq-bonus", corelog.F("concept", pr), corelog.F("before", before), corelog.F("after", after))
		}
	}
}

func applyIncorrectDeltas(p *profile.Profile, quiz *domain.QuizItem, pol *policy.Policy, logger corelog.Logger) {
	for _, c := range quiz.LinkedConcepts {
		before := p.Scores[c]
		after := pol.Clamp(before + pol.IncorrectDelta)
		p.Scores[c] = after
		logger.Debug("score-delta", corelog.F("concept", c), corelog.F("before", before), corelog.F("after", after), corelog.F("correct", false))
	}
}

// updateSchedule advances the spaced-repetition state for one linked
// concept. The rolling_accuracy recurrence is a running mean until
// RECENT_WINDOW observations exist for the concept, and from then on an
// exponentially weighted update with weight 1/RECENT_WINDOW.
func updateSchedule(p *profile.Profile, c string, correct bool, pol *policy.Policy, now time.Time, logger corelog.Logger) {
	entry, existed := p.Schedule[c]
	if !existed {
		entry = domain.ScheduleEntry{IntervalIndex: 0, SuccessStreak: 0, Lapses: 0, RollingAccuracy: 0.0}
	}

	n := entry.Observations() + 1
	if pol.RecentWindow > 0 && n > pol.RecentWindow {
		n = pol.RecentWindow
	}
	if pol.RecentWindow == 0 {
		n = 1
	}
	hit := 0.0
	if correct {
		hit = 1.0
	}
	entry.RollingAccuracy = (entry.RollingAccuracy*float64(n-1) + hit) / float64(n)
	entry = entry.WithObservations(n)

	lastLen := len(pol.ReviewIntervals)
	if correct {
		entry.SuccessStreak++
		if entry.IntervalIndex+1 < lastLen {
			entry.IntervalIndex++
		} else {
			entry.IntervalIndex = lastLen - 1
		}
	} else {
		entry.Lapses++
		entry.SuccessStreak = 0
		entry.IntervalIndex = 0
	}

	if correct && entry.RollingAccuracy < 0.5 && entry.IntervalIndex > 0 {
		entry.IntervalIndex--
	}

	entry.LastSeenAt = now
	entry.NextDueAt = now.Add(time.Duration(pol.ReviewIntervals[entry.IntervalIndex]) * 24 * time.Hour)

	p.Schedule[c] = entry

	logger.Debug("schedule-transition",
		corelog.F("concept", c),
		corelog.F("interval_index", entry.IntervalIndex),
		corelog.F("next_due_at", entry.NextDueAt),
		corelog.F("rolling_accuracy", entry.RollingAccuracy),
	)
}
