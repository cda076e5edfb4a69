// Package mcpserver exposes quizcore.Core's five operations as MCP tools:
// one struct holding the wired collaborators, a RegisterTools method that
// calls mcp.AddTool once per operation, and per-tool request/response types
// marshaled to mcp.TextContent JSON.
package mcpserver

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"adaptivequiz/internal/adapters/profilestore"
	"adaptivequiz/internal/domain"
	"adaptivequiz/internal/knowledgegraph"
	"adaptivequiz/internal/quizcore"
)

// Server coordinates the quiz core, the persisted Profile store, and an
// in-memory knowledge graph / quiz bank to answer MCP tool calls.
type Server struct {
	core     *quizcore.Core
	profiles *profilestore.Store
	graph    *knowledgegraph.Graph
	quizzes  []*domain.QuizItem
}

// New wires a Server from its collaborators. quizzes is the static quiz
// bank; the knowledge graph and Profile store are expected to already be
// open.
func New(core *quizcore.Core, profiles *profilestore.Store, graph *knowledgegraph.Graph, quizzes []*domain.QuizItem) *Server {
	return &Server{core: core, profiles: profiles, graph: graph, quizzes: quizzes}
}

// RegisterTools registers the five core operations as MCP tools on mcpServer.
func (s *Server) RegisterTools(mcpServer *mcp.Server) {
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "suggest-next-quiz",
		Description: "Suggest the next quiz item for a learner given their current profile",
	}, s.handleSuggestNextQuiz)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "update-scores",
		Description: "Record a quiz attempt and update the learner's scores and review schedule",
	}, s.handleUpdateScores)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "get-learning-progress",
		Description: "Summarize a learner's mastery, weak concepts, and due reviews",
	}, s.handleGetLearningProgress)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "reset-user-progress",
		Description: "Reset a learner's progress, either entirely or for specific concepts",
	}, s.handleResetUserProgress)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "recent-attempts",
		Description: "List a learner's most recent quiz attempts, optionally filtered by concept",
	}, s.handleRecentAttempts)
}

func toJSONContent(data any) []mcp.Content {
	jsonData, err := json.Marshal(data)
	if err != nil {
		errData, _ := json.Marshal(map[string]string{"error": err.Error()})
		jsonData = errData
	}
	return []mcp.Content{&mcp.TextContent{Text: string(jsonData)}}
}

func (s *Server) quizByID(id string) *domain.QuizItem {
	for _, q := range s.quizzes {
		if q.ID == id {
			return q
		}
	}
	return nil
}
