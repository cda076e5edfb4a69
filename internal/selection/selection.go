// Package selection implements the Selection Engine (C5): given a learner
// profile, the knowledge graph, and a quiz bank, it chooses the single next
// quiz to present. The engine is read-only over all three inputs; it never
// mutates the profile.
package selection

import (
	"sort"
	"time"

	"adaptivequiz/internal/corelog"
	"adaptivequiz/internal/domain"
	"adaptivequiz/internal/knowledgegraph"
	"adaptivequiz/internal/policy"
	"adaptivequiz/internal/profile"
	"adaptivequiz/internal/quizerr"
)

// band is a [low, high] difficulty sub-range of [1,5].
type band struct{ low, high int }

var bandTable = []band{{1, 2}, {2, 3}, {3, 4}, {4, 5}}

// Suggest runs the selection algorithm and returns the next quiz to
// present. When pol.RNGSeed is set, tie-breaking among otherwise-equivalent
// candidates (the final lexicographic tiebreak, and the "random" fallback)
// is reproducible; a fresh seeded source is built per call so repeated
// calls with identical inputs always draw the same sequence of tie-break
// choices.
func Suggest(p *profile.Profile, g *knowledgegraph.Graph, quizzes []*domain.QuizItem, now time.Time, pol *policy.Policy, logger corelog.Logger) (*domain.QuizItem, error) {
	if logger == nil {
		logger = corelog.NewStandard()
	}

	var rng *seededRNG
	if pol.RNGSeed != nil {
		rng = newSeededRNG(*pol.RNGSeed)
	}

	byConcept, universe := buildIndex(quizzes, g, logger)

	weak, inProgress, mastered := partition(p, universe, pol)

	if quiz := walkPrimaryQueue(p, g, byConcept, weak, inProgress, pol, now, rng, logger); quiz != nil {
		return quiz, nil
	}

	if quiz := reviewPool(p, byConcept, weak, pol, now, rng, logger); quiz != nil {
		return quiz, nil
	}

	return fallback(p, g, byConcept, weak, mastered, universe, pol, now, rng, logger)
}

// buildIndex maps each known concept referenced by some quiz to the quizzes
// that reference it. Unknown concepts are filtered and logged at WARN.
func buildIndex(quizzes []*domain.QuizItem, g *knowledgegraph.Graph, logger corelog.Logger) (map[string][]*domain.QuizItem, []string) {
	byConcept := make(map[string][]*domain.QuizItem)
	warned := make(map[string]bool)
	for _, q := range quizzes {
		for _, c := range q.LinkedConcepts {
			if !g.Contains(c) {
				if !warned[c] {
					warned[c] = true
					logger.Warn("unknown-concept-filtered", corelog.F("concept", c), corelog.F("quiz", q.ID))
				}
				continue
			}
			byConcept[c] = append(byConcept[c], q)
		}
	}
	universe := make([]string, 0, len(byConcept))
	for c := range byConcept {
		universe = append(universe, c)
	}
	sort.Strings(universe)
	return byConcept, universe
}

// partition buckets the concept universe into weak, in-progress, and
// mastered sets.
func partition(p *profile.Profile, universe []string, pol *policy.Policy) (weak, inProgress, mastered []string) {
	for _, c := range universe {
		score := p.Score(c)
		switch {
		case score <= pol.WeakThreshold:
			weak = append(weak, c)
		case score >= pol.MasteryThreshold:
			mastered = append(mastered, c)
		case score > pol.InProgressRangeLower && score < pol.MasteryThreshold:
			inProgress = append(inProgress, c)
		default:
			// Falls strictly between WeakThreshold and InProgressRangeLower
			// when an override widens the gap between them; treated as weak
			// since it is not yet in-progress.
			weak = append(weak, c)
		}
	}
	return weak, inProgress, mastered
}

func primaryQueue(p *profile.Profile, weak, inProgress []string) []string {
	queue := append(append([]string(nil), weak...), inProgress...)
	sort.Slice(queue, func(i, j int) bool {
		si, sj := p.Score(queue[i]), p.Score(queue[j])
		if si != sj {
			return si < sj
		}
		return queue[i] < queue[j]
	})
	return queue
}

// walkPrimaryQueue walks the primary queue and applies prerequisite-gating
// walk-up: a locked candidate is replaced by its own unmet direct
// prerequisites, which are pushed to the front of the queue.
func walkPrimaryQueue(p *profile.Profile, g *knowledgegraph.Graph, byConcept map[string][]*domain.QuizItem, weak, inProgress []string, pol *policy.Policy, now time.Time, rng *seededRNG, logger corelog.Logger) *domain.QuizItem {
	weakSet := make(map[string]bool, len(weak))
	for _, w := range weak {
		weakSet[w] = true
	}

	queue := primaryQueue(p, weak, inProgress)
	seen := make(map[string]bool)

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if seen[c] {
			continue
		}
		seen[c] = true

		unmet := unmetPrerequisites(p, g, c)
		if len(unmet) > 0 {
			sort.Slice(unmet, func(i, j int) bool {
				si, sj := p.Score(unmet[i]), p.Score(unmet[j])
				if si != sj {
					return si < sj
				}
				return unmet[i] < unmet[j]
			})
			queue = append(unmet, queue...)
			continue
		}

		quiz, band := selectForTarget(p, byConcept[c], c, weakSet, pol, now, nil, rng)
		if quiz != nil {
			logger.Info("suggestion-chosen", corelog.F("target", c), corelog.F("band_low", band.low), corelog.F("band_high", band.high), corelog.F("quiz", quiz.ID))
			return quiz
		}
	}
	return nil
}

// unmetPrerequisites returns c's direct prerequisites with score < 0, i.e.
// the prerequisites that make c locked. An unknown or edge-free concept has
// none and is therefore always unlocked.
func unmetPrerequisites(p *profile.Profile, g *knowledgegraph.Graph, c string) []string {
	prereqs, err := g.DirectPrerequisites(c)
	if err != nil {
		return nil
	}
	var unmet []string
	for _, pr := range prereqs {
		if p.Score(pr) < 0 {
			unmet = append(unmet, pr)
		}
	}
	return unmet
}

// reviewPool finds concepts due for spaced-repetition review, each tried as
// a target in next_due_at/score order, capped at MaxDueReviewsPerSuggest.
func reviewPool(p *profile.Profile, byConcept map[string][]*domain.QuizItem, weak []string, pol *policy.Policy, now time.Time, rng *seededRNG, logger corelog.Logger) *domain.QuizItem {
	lo, hi := pol.ReviewWindow()

	type due struct {
		concept string
		entry   domain.ScheduleEntry
	}
	var candidates []due
	for c := range byConcept {
		score := p.Score(c)
		if score < lo || score >= hi {
			continue
		}
		entry, ok := p.Schedule[c]
		if !ok || entry.NextDueAt.After(now) {
			continue
		}
		candidates = append(candidates, due{c, entry})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].entry.NextDueAt.Equal(candidates[j].entry.NextDueAt) {
			return candidates[i].entry.NextDueAt.Before(candidates[j].entry.NextDueAt)
		}
		si, sj := p.Score(candidates[i].concept), p.Score(candidates[j].concept)
		if si != sj {
			return si < sj
		}
		return candidates[i].concept < candidates[j].concept
	})

	weakSet := make(map[string]bool, len(weak))
	for _, w := range weak {
		weakSet[w] = true
	}

	maxReviews := pol.MaxDueReviewsPerSuggest
	for i, d := range candidates {
		if i >= maxReviews {
			break
		}
		quiz, b := selectForTarget(p, byConcept[d.concept], d.concept, weakSet, pol, now, nil, rng)
		if quiz != nil {
			logger.Info("suggestion-chosen", corelog.F("target", d.concept), corelog.F("band_low", b.low), corelog.F("band_high", b.high), corelog.F("quiz", quiz.ID), corelog.F("reason", "review-due"))
			return quiz
		}
	}
	return nil
}

// fallback runs the three-tier strategy cascade plus the final
// topological-order fallback.
func fallback(p *profile.Profile, g *knowledgegraph.Graph, byConcept map[string][]*domain.QuizItem, weak, mastered, universe []string, pol *policy.Policy, now time.Time, rng *seededRNG, logger corelog.Logger) (*domain.QuizItem, error) {
	weakSet := make(map[string]bool, len(weak))
	for _, w := range weak {
		weakSet[w] = true
	}

	switch pol.FallbackStrategy {
	case policy.FallbackRaise:
		logger.Warn("fallback-used", corelog.F("strategy", "raise"))
		return nil, quizerr.New(quizerr.NoQuizAvailable, "suggest_next_quiz: no quiz matched primary or review criteria")

	case policy.FallbackEasiest:
		logger.Warn("fallback-used", corelog.F("strategy", "easiest"))
		if c := earliestDue(p, mastered); c != "" {
			forced := &bandTable[0]
			if quiz, _ := selectForTarget(p, byConcept[c], c, weakSet, pol, now, forced, rng); quiz != nil {
				return quiz, nil
			}
		}
		for _, c := range sortedCopy(mastered) {
			forced := &bandTable[0]
			if quiz, _ := selectForTarget(p, byConcept[c], c, weakSet, pol, now, forced, rng); quiz != nil {
				return quiz, nil
			}
		}

	case policy.FallbackRandom:
		logger.Warn("fallback-used", corelog.F("strategy", "random"))
		if len(universe) > 0 {
			idx := 0
			if rng != nil {
				idx = rng.pick(len(universe))
			}
			c := universe[idx]
			if quiz, _ := selectForTarget(p, byConcept[c], c, weakSet, pol, now, nil, rng); quiz != nil {
				return quiz, nil
			}
		}
	}

	if quiz := topologicalFallback(p, g, byConcept, weakSet, pol, now, rng); quiz != nil {
		return quiz, nil
	}

	return nil, quizerr.New(quizerr.NoQuizAvailable, "suggest_next_quiz: exhausted primary queue, review pool, and fallback cascade")
}

func earliestDue(p *profile.Profile, mastered []string) string {
	best := ""
	var bestTime time.Time
	for _, c := range mastered {
		entry, ok := p.Schedule[c]
		if !ok {
			continue
		}
		if best == "" || entry.NextDueAt.Before(bestTime) {
			best, bestTime = c, entry.NextDueAt
		}
	}
	return best
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

// topologicalFallback tries the topologically earliest unmastered concept
// with at least one quiz, the last resort before NoQuizAvailable.
func topologicalFallback(p *profile.Profile, g *knowledgegraph.Graph, byConcept map[string][]*domain.QuizItem, weakSet map[string]bool, pol *policy.Policy, now time.Time, rng *seededRNG) *domain.QuizItem {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil
	}
	for _, c := range order {
		if p.Score(c) >= pol.MasteryThreshold {
			continue
		}
		if len(byConcept[c]) == 0 {
			continue
		}
		if quiz, _ := selectForTarget(p, byConcept[c], c, weakSet, pol, now, nil, rng); quiz != nil {
			return quiz
		}
	}
	return nil
}
