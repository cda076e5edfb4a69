package quizcore

import (
	"time"

	"adaptivequiz/internal/knowledgegraph"
	"adaptivequiz/internal/policy"
	"adaptivequiz/internal/profile"
	"adaptivequiz/internal/selection"
)

// Progress is the read-only result of get_learning_progress. It never
// aliases the profile's internal maps or slices.
type Progress struct {
	Mastered   []string
	InProgress []string
	Weak       []string

	CoveragePercentage float64 // concepts with any nonzero score / total concepts in graph
	TotalAttempts      int
	OverallAccuracy    float64 // total_correct/total_attempts, or 0.0 when zero

	ReviewsDue int // count of schedule entries with next_due_at <= now

	// OverdueByBand buckets overdue reviews by the difficulty band index
	// (0..3) that would apply to each overdue concept, a finer-grained
	// breakdown of ReviewsDue for callers that want to know how hard the
	// backlog skews.
	OverdueByBand map[int]int
}

func computeProgress(p *profile.Profile, g *knowledgegraph.Graph, pol *policy.Policy, now time.Time) *Progress {
	prog := &Progress{OverdueByBand: make(map[int]int)}

	total := g.Order()
	nonZero := 0
	for _, id := range g.ConceptIDs() {
		score := p.Score(id)
		if score != 0 {
			nonZero++
		}
		switch {
		case score >= pol.MasteryThreshold:
			prog.Mastered = append(prog.Mastered, id)
		case score <= pol.WeakThreshold:
			prog.Weak = append(prog.Weak, id)
		case score > pol.InProgressRangeLower && score < pol.MasteryThreshold:
			prog.InProgress = append(prog.InProgress, id)
		}
	}
	if total > 0 {
		prog.CoveragePercentage = float64(nonZero) / float64(total)
	}

	prog.TotalAttempts = p.TotalAttempts
	if p.TotalAttempts > 0 {
		prog.OverallAccuracy = float64(p.TotalCorrect) / float64(p.TotalAttempts)
	}

	for concept, entry := range p.Schedule {
		if entry.NextDueAt.After(now) {
			continue
		}
		prog.ReviewsDue++
		recent := p.RecentAttempts(concept, pol.RecentWindow)
		acc := 0.5
		if len(recent) > 0 {
			correct := 0
			for _, r := range recent {
				if r.Correct {
					correct++
				}
			}
			acc = float64(correct) / float64(len(recent))
		}
		prog.OverdueByBand[selection.BandIndex(p.Score(concept), acc)]++
	}

	return prog
}
