package quizcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptivequiz/internal/corelog"
	"adaptivequiz/internal/domain"
	"adaptivequiz/internal/knowledgegraph"
	"adaptivequiz/internal/policy"
	"adaptivequiz/internal/profile"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func mustBuild(t *testing.T, ids []string, edges []domain.Edge) *knowledgegraph.Graph {
	t.Helper()
	cs := make([]*domain.Concept, len(ids))
	for i, id := range ids {
		cs[i] = &domain.Concept{ID: id}
	}
	g, err := knowledgegraph.Build(cs, edges)
	require.NoError(t, err)
	return g
}

func TestNew_NilPolicyAndLoggerUseDefaults(t *testing.T) {
	core, err := New(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, core.Policy)
	assert.NotNil(t, core.Logger)
}

func TestNew_InvalidPolicyFailsWithInvalidPolicyKind(t *testing.T) {
	bad := policy.Default()
	bad.ScoreMin = bad.ScoreMax // invalid: min must be < max

	_, err := New(bad, nil)
	require.Error(t, err)
	ce, ok := err.(*CoreError)
	require.True(t, ok)
	assert.Equal(t, InvalidPolicy, ce.Kind)
}

func TestCore_UpdateScores_And_SuggestNextQuiz_EndToEnd(t *testing.T) {
	core, err := New(nil, corelog.NewRecorder())
	require.NoError(t, err)

	g := mustBuild(t, []string{"A", "B"}, []domain.Edge{{Tail: "A", Head: "B"}})
	p := profile.New("learner-1")
	quiz := &domain.QuizItem{ID: "Q1", LinkedConcepts: []string{"B"}, Difficulty: 3}

	next, err := core.UpdateScores(p, quiz, true, g, t0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, next.Scores["B"])
	assert.Equal(t, 0.1, next.Scores["A"])

	quizzes := []*domain.QuizItem{quiz, {ID: "Q_A", LinkedConcepts: []string{"A"}, Difficulty: 1}}
	suggested, err := core.SuggestNextQuiz(next, g, quizzes, t0)
	require.NoError(t, err)
	assert.NotNil(t, suggested)
}

func TestCore_UpdateScores_RejectsStaleWrite(t *testing.T) {
	core, err := New(nil, nil)
	require.NoError(t, err)

	g := mustBuild(t, []string{"A"}, nil)
	p := profile.New("learner-1")
	p.LastUpdated = t0

	quiz := &domain.QuizItem{ID: "Q1", LinkedConcepts: []string{"A"}, Difficulty: 3}
	_, err = core.UpdateScores(p, quiz, true, g, t0.Add(-time.Hour))
	require.Error(t, err)
	ce, ok := err.(*CoreError)
	require.True(t, ok)
	assert.Equal(t, StaleProfile, ce.Kind)
}

func TestCore_GetLearningProgress_NeverMutatesProfile(t *testing.T) {
	core, err := New(nil, nil)
	require.NoError(t, err)

	g := mustBuild(t, []string{"A", "B", "C"}, nil)
	p := profile.New("learner-1")
	p.Scores["A"] = 5.0
	p.Scores["B"] = -2.0
	p.TotalAttempts = 10
	p.TotalCorrect = 7

	snapshot := p.Clone()
	progress := core.GetLearningProgress(p, g, t0)

	assert.Equal(t, snapshot.Scores, p.Scores)
	assert.Contains(t, progress.Mastered, "A")
	assert.Contains(t, progress.Weak, "B")
	assert.InDelta(t, 2.0/3.0, progress.CoveragePercentage, 1e-9)
	assert.InDelta(t, 0.7, progress.OverallAccuracy, 1e-9)
}

func TestCore_ResetUserProgress_NilMeansResetAll(t *testing.T) {
	core, err := New(nil, nil)
	require.NoError(t, err)

	p := profile.New("learner-1")
	p.Scores["A"] = 3.0
	p.TotalAttempts = 5

	next := core.ResetUserProgress(p, nil)
	assert.Empty(t, next.Scores)
	assert.Equal(t, 5, next.TotalAttempts)
	assert.Equal(t, 3.0, p.Scores["A"]) // original untouched
}

func TestCore_ResetUserProgress_EmptySliceIsNoOp(t *testing.T) {
	core, err := New(nil, nil)
	require.NoError(t, err)

	p := profile.New("learner-1")
	p.Scores["A"] = 3.0

	next := core.ResetUserProgress(p, []string{})
	assert.Equal(t, 3.0, next.Scores["A"])
}

func TestCore_RecentAttempts_DelegatesToProfile(t *testing.T) {
	core, err := New(nil, nil)
	require.NoError(t, err)

	p := profile.New("learner-1")
	p.AppendAttempt(domain.AttemptRecord{QuizID: "q1", At: t0}, 15)
	p.AppendAttempt(domain.AttemptRecord{QuizID: "q2", At: t0.Add(time.Minute)}, 15)

	attempts := core.RecentAttempts(p, "", 1)
	require.Len(t, attempts, 1)
	assert.Equal(t, "q2", attempts[0].QuizID)
}
