package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"adaptivequiz/internal/domain"
	"adaptivequiz/internal/quizcore"
)

// SuggestNextQuizRequest identifies the learner to suggest a quiz for.
type SuggestNextQuizRequest struct {
	LearnerID string `json:"learner_id"`
}

// SuggestNextQuizResponse carries the suggested quiz, or nil if the cascade
// was exhausted (reported as an MCP tool error instead, per convention).
type SuggestNextQuizResponse struct {
	Quiz *domain.QuizItem `json:"quiz"`
}

func (s *Server) handleSuggestNextQuiz(ctx context.Context, req *mcp.CallToolRequest, input SuggestNextQuizRequest) (*mcp.CallToolResult, *SuggestNextQuizResponse, error) {
	if input.LearnerID == "" {
		return nil, nil, fmt.Errorf("learner_id is required")
	}

	profile, err := s.profiles.Load(input.LearnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}

	quiz, err := s.core.SuggestNextQuiz(profile, s.graph, s.quizzes, time.Now().UTC())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to suggest next quiz: %w", err)
	}

	response := &SuggestNextQuizResponse{Quiz: quiz}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

// UpdateScoresRequest records the outcome of a single quiz attempt.
type UpdateScoresRequest struct {
	LearnerID string `json:"learner_id"`
	QuizID    string `json:"quiz_id"`
	Correct   bool   `json:"correct"`
}

// UpdateScoresResponse summarizes the learner's scores after the update.
type UpdateScoresResponse struct {
	Scores map[string]float64 `json:"scores"`
}

func (s *Server) handleUpdateScores(ctx context.Context, req *mcp.CallToolRequest, input UpdateScoresRequest) (*mcp.CallToolResult, *UpdateScoresResponse, error) {
	if input.LearnerID == "" {
		return nil, nil, fmt.Errorf("learner_id is required")
	}
	quiz := s.quizByID(input.QuizID)
	if quiz == nil {
		return nil, nil, fmt.Errorf("unknown quiz_id %q", input.QuizID)
	}

	profile, err := s.profiles.Load(input.LearnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}

	next, err := s.core.UpdateScores(profile, quiz, input.Correct, s.graph, time.Now().UTC())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update scores: %w", err)
	}

	if err := s.profiles.Save(next); err != nil {
		return nil, nil, fmt.Errorf("failed to persist profile: %w", err)
	}

	response := &UpdateScoresResponse{Scores: next.Scores}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

// GetLearningProgressRequest identifies the learner to summarize.
type GetLearningProgressRequest struct {
	LearnerID string `json:"learner_id"`
}

func (s *Server) handleGetLearningProgress(ctx context.Context, req *mcp.CallToolRequest, input GetLearningProgressRequest) (*mcp.CallToolResult, *quizcore.Progress, error) {
	if input.LearnerID == "" {
		return nil, nil, fmt.Errorf("learner_id is required")
	}

	profile, err := s.profiles.Load(input.LearnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}

	progress := s.core.GetLearningProgress(profile, s.graph, time.Now().UTC())
	return &mcp.CallToolResult{Content: toJSONContent(progress)}, progress, nil
}

// ResetUserProgressRequest resets a learner's progress. A nil ConceptIDs
// resets everything; an empty (non-nil) slice is a no-op, mirroring
// quizcore.Core.ResetUserProgress's L2 semantics.
type ResetUserProgressRequest struct {
	LearnerID  string   `json:"learner_id"`
	ConceptIDs []string `json:"concept_ids,omitempty"`
}

type ResetUserProgressResponse struct {
	Scores map[string]float64 `json:"scores"`
}

func (s *Server) handleResetUserProgress(ctx context.Context, req *mcp.CallToolRequest, input ResetUserProgressRequest) (*mcp.CallToolResult, *ResetUserProgressResponse, error) {
	if input.LearnerID == "" {
		return nil, nil, fmt.Errorf("learner_id is required")
	}

	profile, err := s.profiles.Load(input.LearnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}

	next := s.core.ResetUserProgress(profile, input.ConceptIDs)

	if err := s.profiles.Save(next); err != nil {
		return nil, nil, fmt.Errorf("failed to persist profile: %w", err)
	}

	response := &ResetUserProgressResponse{Scores: next.Scores}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

// RecentAttemptsRequest lists a learner's most recent attempts, optionally
// restricted to a single concept.
type RecentAttemptsRequest struct {
	LearnerID string `json:"learner_id"`
	ConceptID string `json:"concept_id,omitempty"`
	Count     int    `json:"count,omitempty"`
}

type RecentAttemptsResponse struct {
	Attempts []domain.AttemptRecord `json:"attempts"`
}

func (s *Server) handleRecentAttempts(ctx context.Context, req *mcp.CallToolRequest, input RecentAttemptsRequest) (*mcp.CallToolResult, *RecentAttemptsResponse, error) {
	if input.LearnerID == "" {
		return nil, nil, fmt.Errorf("learner_id is required")
	}
	count := input.Count
	if count <= 0 {
		count = 10
	}

	profile, err := s.profiles.Load(input.LearnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}

	attempts := s.core.RecentAttempts(profile, input.ConceptID, count)
	response := &RecentAttemptsResponse{Attempts: attempts}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}
