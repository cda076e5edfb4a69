package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	p, err := New(Default())
	require.NoError(t, err)
	assert.Equal(t, -5.0, p.ScoreMin)
	assert.Equal(t, 10.0, p.ScoreMax)
	assert.Equal(t, []int{1, 3, 7, 14, 30, 60, 120}, p.ReviewIntervals)
}

func TestNew_NilUsesDefault(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestValidate_RejectsInvertedThresholds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr string
	}{
		{
			name:    "score bounds inverted",
			mutate:  func(p *Policy) { p.ScoreMin = 5; p.ScoreMax = -5 },
			wantErr: "score_min",
		},
		{
			name:    "weak exceeds mastery",
			mutate:  func(p *Policy) { p.WeakThreshold = 5; p.MasteryThreshold = 3 },
			wantErr: "weak_threshold",
		},
		{
			name:    "empty review intervals",
			mutate:  func(p *Policy) { p.ReviewIntervals = nil },
			wantErr: "review_intervals must be non-empty",
		},
		{
			name:    "non-ascending review intervals",
			mutate:  func(p *Policy) { p.ReviewIntervals = []int{3, 1, 7} },
			wantErr: "strictly ascending",
		},
		{
			name:    "zero history cap",
			mutate:  func(p *Policy) { p.HistoryCap = 0 },
			wantErr: "history_cap",
		},
		{
			name:    "unknown fallback strategy",
			mutate:  func(p *Policy) { p.FallbackStrategy = "quantum" },
			wantErr: "unknown fallback_strategy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(p)
			_, err := New(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClamp(t *testing.T) {
	p := Default()
	assert.Equal(t, p.ScoreMax, p.Clamp(100))
	assert.Equal(t, p.ScoreMin, p.Clamp(-100))
	assert.Equal(t, 2.5, p.Clamp(2.5))
}

func TestReviewWindow_DefaultsToInProgressRange(t *testing.T) {
	p := Default()
	min, max := p.ReviewWindow()
	assert.Equal(t, p.InProgressRangeLower, min)
	assert.Equal(t, p.MasteryThreshold, max)
}

func TestReviewWindow_HonorsOverride(t *testing.T) {
	p := Default()
	lo, hi := 1.0, 2.0
	p.ReviewTriggerMin = &lo
	p.ReviewTriggerMax = &hi
	min, max := p.ReviewWindow()
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 2.0, max)
}

func TestWithOverrides_DoesNotMutateBase(t *testing.T) {
	base := Default()
	overridden, err := base.WithOverrides(func(p *Policy) {
		p.MasteryThreshold = 4.0
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, base.MasteryThreshold)
	assert.Equal(t, 4.0, overridden.MasteryThreshold)
}

func TestWithOverrides_PropagatesValidationError(t *testing.T) {
	base := Default()
	_, err := base.WithOverrides(func(p *Policy) {
		p.FallbackStrategy = "bogus"
	})
	require.Error(t, err)
}
