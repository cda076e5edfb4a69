package mcpserver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptivequiz/internal/adapters/profilestore"
	"adaptivequiz/internal/domain"
	"adaptivequiz/internal/knowledgegraph"
	"adaptivequiz/internal/quizcore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	profiles, err := profilestore.Open(filepath.Join(t.TempDir(), "profiles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = profiles.Close() })

	concepts := []*domain.Concept{{ID: "A"}, {ID: "B"}}
	g, err := knowledgegraph.Build(concepts, []domain.Edge{{Tail: "A", Head: "B"}})
	require.NoError(t, err)

	quizzes := []*domain.QuizItem{
		{ID: "Q_A", LinkedConcepts: []string{"A"}, Difficulty: 1, Style: "multiple-choice"},
		{ID: "Q_B", LinkedConcepts: []string{"B"}, Difficulty: 2, Style: "free-response"},
	}

	core, err := quizcore.New(nil, nil)
	require.NoError(t, err)

	return New(core, profiles, g, quizzes)
}

func TestRegisterTools_DoesNotPanic(t *testing.T) {
	srv := newTestServer(t)
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: "1.0"}, nil)

	require.NotPanics(t, func() {
		srv.RegisterTools(mcpServer)
	})
}

func TestHandleSuggestNextQuiz_RequiresLearnerID(t *testing.T) {
	srv := newTestServer(t)
	_, _, err := srv.handleSuggestNextQuiz(context.Background(), nil, SuggestNextQuizRequest{})
	require.Error(t, err)
}

func TestHandleUpdateScoresThenSuggest_EndToEnd(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, updateResp, err := srv.handleUpdateScores(ctx, nil, UpdateScoresRequest{
		LearnerID: "learner-1",
		QuizID:    "Q_A",
		Correct:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, updateResp.Scores["A"])

	_, suggestResp, err := srv.handleSuggestNextQuiz(ctx, nil, SuggestNextQuizRequest{LearnerID: "learner-1"})
	require.NoError(t, err)
	require.NotNil(t, suggestResp.Quiz)
}

func TestHandleUpdateScores_RejectsUnknownQuiz(t *testing.T) {
	srv := newTestServer(t)
	_, _, err := srv.handleUpdateScores(context.Background(), nil, UpdateScoresRequest{
		LearnerID: "learner-1",
		QuizID:    "does-not-exist",
		Correct:   true,
	})
	require.Error(t, err)
}

func TestHandleGetLearningProgress_ReflectsPersistedScores(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, _, err := srv.handleUpdateScores(ctx, nil, UpdateScoresRequest{LearnerID: "learner-1", QuizID: "Q_A", Correct: true})
	require.NoError(t, err)

	_, progress, err := srv.handleGetLearningProgress(ctx, nil, GetLearningProgressRequest{LearnerID: "learner-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, progress.TotalAttempts)
}

func TestHandleResetUserProgress_NilConceptIDsResetsAll(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, _, err := srv.handleUpdateScores(ctx, nil, UpdateScoresRequest{LearnerID: "learner-1", QuizID: "Q_A", Correct: true})
	require.NoError(t, err)

	_, resetResp, err := srv.handleResetUserProgress(ctx, nil, ResetUserProgressRequest{LearnerID: "learner-1"})
	require.NoError(t, err)
	assert.Empty(t, resetResp.Scores)
}

func TestHandleRecentAttempts_DefaultsCountTo10(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := srv.handleUpdateScores(ctx, nil, UpdateScoresRequest{LearnerID: "learner-1", QuizID: "Q_A", Correct: true})
		require.NoError(t, err)
	}

	_, attemptsResp, err := srv.handleRecentAttempts(ctx, nil, RecentAttemptsRequest{LearnerID: "learner-1"})
	require.NoError(t, err)
	assert.Len(t, attemptsResp.Attempts, 3)
}
