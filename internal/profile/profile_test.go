package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptivequiz/internal/domain"
)

func TestNew_EmptyProfile(t *testing.T) {
	p := New("learner-1")
	assert.Equal(t, "learner-1", p.LearnerID)
	assert.Equal(t, 0.0, p.Score("anything"))
	assert.Empty(t, p.History)
	assert.Equal(t, 0, p.TotalAttempts)
	assert.Equal(t, 0, p.TotalCorrect)
}

func TestClone_IsDeep(t *testing.T) {
	p := New("learner-1")
	p.Scores["A"] = 2.0
	p.Schedule["A"] = domain.ScheduleEntry{IntervalIndex: 1}
	p.AppendAttempt(domain.AttemptRecord{QuizID: "q1"}, 15)

	cp := p.Clone()
	cp.Scores["A"] = 99.0
	cp.Schedule["A"] = domain.ScheduleEntry{IntervalIndex: 5}
	cp.History[0].QuizID = "mutated"

	assert.Equal(t, 2.0, p.Scores["A"])
	assert.Equal(t, 1, p.Schedule["A"].IntervalIndex)
	assert.Equal(t, "q1", p.History[0].QuizID)
}

func TestAppendAttempt_CapsHistory(t *testing.T) {
	p := New("learner-1")
	for i := 0; i < 20; i++ {
		p.AppendAttempt(domain.AttemptRecord{QuizID: string(rune('a' + i))}, 15)
	}
	require.Len(t, p.History, 15)
	// oldest discarded first: history should end with the last 15 inserted
	assert.Equal(t, string(rune('a'+19)), p.History[len(p.History)-1].QuizID)
	assert.Equal(t, string(rune('a'+5)), p.History[0].QuizID)
}

func TestRecentAttempts_MostRecentFirstAndFiltered(t *testing.T) {
	p := New("learner-1")
	p.AppendAttempt(domain.AttemptRecord{QuizID: "q1", LinkedConcepts: []string{"A"}, At: time.Unix(1, 0)}, 15)
	p.AppendAttempt(domain.AttemptRecord{QuizID: "q2", LinkedConcepts: []string{"B"}, At: time.Unix(2, 0)}, 15)
	p.AppendAttempt(domain.AttemptRecord{QuizID: "q3", LinkedConcepts: []string{"A"}, At: time.Unix(3, 0)}, 15)

	all := p.RecentAttempts("", 10)
	require.Len(t, all, 3)
	assert.Equal(t, "q3", all[0].QuizID)
	assert.Equal(t, "q1", all[2].QuizID)

	onlyA := p.RecentAttempts("A", 10)
	require.Len(t, onlyA, 2)
	assert.Equal(t, "q3", onlyA[0].QuizID)
	assert.Equal(t, "q1", onlyA[1].QuizID)

	limited := p.RecentAttempts("", 1)
	require.Len(t, limited, 1)
	assert.Equal(t, "q3", limited[0].QuizID)
}

func TestResetAll_ClearsScoresScheduleHistoryButNotAggregates(t *testing.T) {
	p := New("learner-1")
	p.Scores["A"] = 3.0
	p.Schedule["A"] = domain.ScheduleEntry{IntervalIndex: 2}
	p.AppendAttempt(domain.AttemptRecord{QuizID: "q1"}, 15)
	p.TotalAttempts, p.TotalCorrect = 5, 4

	p.ResetAll()

	assert.Empty(t, p.Scores)
	assert.Empty(t, p.Schedule)
	assert.Empty(t, p.History)
	assert.Equal(t, 5, p.TotalAttempts)
	assert.Equal(t, 4, p.TotalCorrect)
}

func TestResetConcepts_PreservesHistoryAndAggregatesAndOtherConcepts(t *testing.T) {
	p := New("learner-1")
	p.Scores["A"] = 3.0
	p.Scores["B"] = -1.0
	p.Schedule["A"] = domain.ScheduleEntry{IntervalIndex: 2}
	p.AppendAttempt(domain.AttemptRecord{QuizID: "q1"}, 15)
	p.TotalAttempts = 5

	p.ResetConcepts([]string{"A"})

	_, hasA := p.Scores["A"]
	assert.False(t, hasA)
	assert.Equal(t, -1.0, p.Scores["B"])
	_, hasScheduleA := p.Schedule["A"]
	assert.False(t, hasScheduleA)
	assert.Len(t, p.History, 1)
	assert.Equal(t, 5, p.TotalAttempts)
}

func TestResetConcepts_Empty_IsNoOp(t *testing.T) {
	p := New("learner-1")
	p.Scores["A"] = 3.0
	before := p.Clone()

	p.ResetConcepts(nil)

	assert.Equal(t, before.Scores, p.Scores)
	assert.Equal(t, before.Schedule, p.Schedule)
}
