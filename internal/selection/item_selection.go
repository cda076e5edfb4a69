package selection

import (
	"sort"
	"time"

	"adaptivequiz/internal/domain"
	"adaptivequiz/internal/policy"
	"adaptivequiz/internal/profile"
)

// selectForTarget chooses a single quiz item for target concept t out of
// the quizzes that reference it. forcedBand, when non-nil, bypasses the
// score/accuracy band calculation (used by the "easiest" fallback, which
// always applies band [1,2]). Returns (nil, band) if no item survives band
// widening.
func selectForTarget(p *profile.Profile, candidates []*domain.QuizItem, t string, weak map[string]bool, pol *policy.Policy, now time.Time, forcedBand *band, rng *seededRNG) (*domain.QuizItem, band) {
	if len(candidates) == 0 {
		return nil, band{}
	}

	recentForT := p.RecentAttempts(t, pol.RecentWindow)
	accuracy := recentAccuracy(recentForT)

	var b band
	if forcedBand != nil {
		b = *forcedBand
	} else {
		b = difficultyBand(p.Score(t), accuracy, pol)
	}

	item := pickFromBand(p, candidates, b, weak, pol, rng)
	if item != nil {
		return item, b
	}

	widened := band{max(1, b.low-1), min(5, b.high+1)}
	if item := pickFromBand(p, candidates, widened, weak, pol, rng); item != nil {
		return item, widened
	}

	full := band{1, 5}
	if item := pickFromBand(p, candidates, full, weak, pol, rng); item != nil {
		return item, full
	}

	return nil, b
}

// recentAccuracy computes (correct/total) over a recent-attempt window, or
// 0.5 when the window is empty, including the RECENT_WINDOW=0 degenerate
// case which always yields an empty window.
func recentAccuracy(recent []domain.AttemptRecord) float64 {
	if len(recent) == 0 {
		return 0.5
	}
	correct := 0
	for _, r := range recent {
		if r.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(recent))
}

// difficultyBand maps (score, accuracy) to a band index, taking the higher
// (harder) of the two bands. The named score cutoffs leave small gaps
// between them (e.g. score in (-1,0) or (1,2)); this implementation closes
// them with contiguous half-open intervals so every real score maps to
// exactly one band.
func difficultyBand(score, accuracy float64, pol *policy.Policy) band {
	return bandTable[BandIndex(score, accuracy)]
}

// BandIndex resolves (score, accuracy) to one of the four band indices
// (0 == [1,2], 3 == [4,5]), exported so internal/quizcore's
// get_learning_progress can bucket overdue reviews by the same cutoffs
// used to pick quiz difficulty, without duplicating them.
func BandIndex(score, accuracy float64) int {
	scoreIdx := 0
	switch {
	case score <= -1:
		scoreIdx = 0
	case score <= 1:
		scoreIdx = 1
	case score <= 2:
		scoreIdx = 2
	default:
		scoreIdx = 3
	}

	accIdx := 0
	switch {
	case accuracy < 0.50:
		accIdx = 0
	case accuracy < 0.70:
		accIdx = 1
	case accuracy < 0.85:
		accIdx = 2
	default:
		accIdx = 3
	}

	if accIdx > scoreIdx {
		return accIdx
	}
	return scoreIdx
}

// pickFromBand filters candidates to b's difficulty range and, if any
// survive, applies the tie-break chain.
func pickFromBand(p *profile.Profile, candidates []*domain.QuizItem, b band, weak map[string]bool, pol *policy.Policy, rng *seededRNG) *domain.QuizItem {
	filtered := make([]*domain.QuizItem, 0, len(candidates))
	for _, c := range candidates {
		if c.Difficulty >= b.low && c.Difficulty <= b.high {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return breakTies(p, filtered, weak, pol, rng)
}

// breakTies applies the strict, left-to-right tie-break chain until one
// candidate remains.
func breakTies(p *profile.Profile, candidates []*domain.QuizItem, weak map[string]bool, pol *policy.Policy, rng *seededRNG) *domain.QuizItem {
	recent := p.RecentAttempts("", pol.RecentWindow)

	recentStyles := make(map[string]bool)
	recentQuizIDs := make(map[string]bool)
	for _, r := range recent {
		recentQuizIDs[r.QuizID] = true
		if r.Style != "" {
			recentStyles[r.Style] = true
		}
	}

	candidates = filterMaxBool(candidates, func(q *domain.QuizItem) bool {
		return !recentStyles[q.Style]
	})
	if len(candidates) == 1 {
		return candidates[0]
	}

	candidates = filterMaxBool(candidates, func(q *domain.QuizItem) bool {
		return !recentQuizIDs[q.ID]
	})
	if len(candidates) == 1 {
		return candidates[0]
	}

	candidates = filterMaxInt(candidates, func(q *domain.QuizItem) int {
		count := 0
		for _, lc := range q.LinkedConcepts {
			if weak[lc] {
				count++
			}
		}
		return count
	})
	if len(candidates) == 1 {
		return candidates[0]
	}

	candidates = filterMaxInt(candidates, func(q *domain.QuizItem) int {
		return -q.Difficulty
	})
	if len(candidates) == 1 {
		return candidates[0]
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	if len(candidates) > 1 && rng != nil {
		return candidates[rng.pick(len(candidates))]
	}
	return candidates[0]
}

func filterMaxBool(items []*domain.QuizItem, pred func(*domain.QuizItem) bool) []*domain.QuizItem {
	var yes, no []*domain.QuizItem
	for _, it := range items {
		if pred(it) {
			yes = append(yes, it)
		} else {
			no = append(no, it)
		}
	}
	if len(yes) > 0 {
		return yes
	}
	return no
}

func filterMaxInt(items []*domain.QuizItem, key func(*domain.QuizItem) int) []*domain.QuizItem {
	best := key(items[0])
	for _, it := range items[1:] {
		if k := key(it); k > best {
			best = k
		}
	}
	out := make([]*domain.QuizItem, 0, len(items))
	for _, it := range items {
		if key(it) == best {
			out = append(out, it)
		}
	}
	return out
}
