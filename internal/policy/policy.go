// Package policy holds the named constants and tunables consumed by the
// scoring and selection engines. It is constructed once, validated, and then
// treated as a frozen value: loaded once at startup and never mutated
// afterward, substituting a field-by-field validity check for env-var
// precedence.
package policy

import "fmt"

// FallbackStrategy names the strategy used by the Selection Engine when the
// primary queue and the review pool both yield nothing.
type FallbackStrategy string

const (
	FallbackEasiest FallbackStrategy = "easiest"
	FallbackRandom  FallbackStrategy = "random"
	FallbackRaise   FallbackStrategy = "raise"
)

// Policy is the frozen set of tunables governing scoring deltas, schedule
// intervals, and selection thresholds. Zero value is not valid; use New or
// Default.
type Policy struct {
	ScoreMin, ScoreMax float64

	MasteryThreshold float64
	WeakThreshold    float64

	// InProgressRangeLower/Upper bound the in-progress partition P and,
	// by default, the review pool window. Upper is always MasteryThreshold;
	// Lower defaults to 0 but may be overridden by ReviewTriggerMin/Max
	// without affecting the mastery/weak partitions.
	InProgressRangeLower float64

	CorrectDelta   float64
	IncorrectDelta float64
	PrereqBonus    float64

	ReviewIntervals []int // days, ascending, indexed by ScheduleEntry.IntervalIndex

	RecentWindow            int
	HistoryCap              int
	MaxDueReviewsPerSuggest int

	FallbackStrategy FallbackStrategy

	// RNGSeed, when non-nil, replaces the final lexicographic tie-break and
	// the "random" fallback's pick with draws from a source seeded by this
	// value, reproducible for identical inputs. A nil seed keeps both fully
	// deterministic: the lowest quiz id wins the final tie-break and the
	// "random" fallback takes the first concept by id.
	RNGSeed *int64

	// ReviewTriggerMin/Max optionally narrow the review pool window below
	// the broad default. Zero values mean "use
	// InProgressRangeLower..MasteryThreshold".
	ReviewTriggerMin *float64
	ReviewTriggerMax *float64
}

// Default returns the policy table with every documented default.
func Default() *Policy {
	return &Policy{
		ScoreMin:                -5.0,
		ScoreMax:                10.0,
		MasteryThreshold:        3.0,
		WeakThreshold:           0.0,
		InProgressRangeLower:    0.0,
		CorrectDelta:            1.0,
		IncorrectDelta:          -1.0,
		PrereqBonus:             0.1,
		ReviewIntervals:         []int{1, 3, 7, 14, 30, 60, 120},
		RecentWindow:            10,
		HistoryCap:              15,
		MaxDueReviewsPerSuggest: 1,
		FallbackStrategy:        FallbackEasiest,
	}
}

// New validates p and returns it, or an InvalidPolicy condition described
// via a plain error; quizcore wraps it with the CoreError kind at the
// facade boundary so this package stays error-kind agnostic.
func New(p *Policy) (*Policy, error) {
	if p == nil {
		return Default(), nil
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

func validate(p *Policy) error {
	if p.ScoreMin >= p.ScoreMax {
		return fmt.Errorf("policy: score_min (%v) must be less than score_max (%v)", p.ScoreMin, p.ScoreMax)
	}
	if p.WeakThreshold > p.MasteryThreshold {
		return fmt.Errorf("policy: weak_threshold (%v) must not exceed mastery_threshold (%v)", p.WeakThreshold, p.MasteryThreshold)
	}
	if p.InProgressRangeLower > p.MasteryThreshold {
		return fmt.Errorf("policy: in_progress_range lower bound (%v) must not exceed mastery_threshold (%v)", p.InProgressRangeLower, p.MasteryThreshold)
	}
	if len(p.ReviewIntervals) == 0 {
		return fmt.Errorf("policy: review_intervals must be non-empty")
	}
	for i := 1; i < len(p.ReviewIntervals); i++ {
		if p.ReviewIntervals[i] <= p.ReviewIntervals[i-1] {
			return fmt.Errorf("policy: review_intervals must be strictly ascending, got %v", p.ReviewIntervals)
		}
	}
	if p.RecentWindow < 0 {
		return fmt.Errorf("policy: recent_window must be >= 0")
	}
	if p.HistoryCap <= 0 {
		return fmt.Errorf("policy: history_cap must be > 0")
	}
	if p.MaxDueReviewsPerSuggest < 0 {
		return fmt.Errorf("policy: max_due_reviews_per_suggestion must be >= 0")
	}
	switch p.FallbackStrategy {
	case FallbackEasiest, FallbackRandom, FallbackRaise:
	default:
		return fmt.Errorf("policy: unknown fallback_strategy %q", p.FallbackStrategy)
	}
	if p.ReviewTriggerMin != nil && p.ReviewTriggerMax != nil && *p.ReviewTriggerMin > *p.ReviewTriggerMax {
		return fmt.Errorf("policy: review_trigger_min (%v) must not exceed review_trigger_max (%v)", *p.ReviewTriggerMin, *p.ReviewTriggerMax)
	}
	return nil
}

// Clamp bounds x to [ScoreMin, ScoreMax].
func (p *Policy) Clamp(x float64) float64 {
	if x < p.ScoreMin {
		return p.ScoreMin
	}
	if x > p.ScoreMax {
		return p.ScoreMax
	}
	return x
}

// ReviewWindow returns the [min,max) score window used to build the review
// pool, honoring the ReviewTriggerMin/Max override.
func (p *Policy) ReviewWindow() (min, max float64) {
	min, max = p.InProgressRangeLower, p.MasteryThreshold
	if p.ReviewTriggerMin != nil {
		min = *p.ReviewTriggerMin
	}
	if p.ReviewTriggerMax != nil {
		max = *p.ReviewTriggerMax
	}
	return min, max
}

// WithOverrides returns a new frozen Policy with fn applied to a copy of p,
// composing per-learner overrides at call time without mutating the base.
func (p *Policy) WithOverrides(fn func(*Policy)) (*Policy, error) {
	cp := *p
	cp.ReviewIntervals = append([]int(nil), p.ReviewIntervals...)
	fn(&cp)
	return New(&cp)
}
