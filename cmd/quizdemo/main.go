// Command quizdemo is the entry point for the Adaptive Quiz Selection and
// Scoring MCP server.
//
// It is designed to be spawned as a child process by an MCP client and
// communicates via stdio. It exposes five tools backed by the quizcore
// engine: suggest-next-quiz, update-scores, get-learning-progress,
// reset-user-progress, and recent-attempts.
//
// Environment variables:
//   - DEBUG: set to "true" to enable debug logging
//   - QUIZDEMO_SQLITE_PATH: path to the SQLite Profile store (default "./quizdemo-profiles.db")
//   - NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD, NEO4J_DATABASE, NEO4J_TIMEOUT_MS: Concept store connection
package main

import (
	"context"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"adaptivequiz/internal/adapters/conceptstore/neo4jstore"
	"adaptivequiz/internal/adapters/profilestore"
	"adaptivequiz/internal/domain"
	"adaptivequiz/internal/knowledgegraph"
	"adaptivequiz/internal/mcpserver"
	"adaptivequiz/internal/policy"
	"adaptivequiz/internal/quizcore"
)

func main() {
	if os.Getenv("DEBUG") == "true" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Println("Starting quizdemo server in debug mode...")
	}

	sqlitePath := os.Getenv("QUIZDEMO_SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "./quizdemo-profiles.db"
	}
	profiles, err := profilestore.Open(sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open profile store: %v", err)
	}
	defer func() {
		if err := profiles.Close(); err != nil {
			log.Printf("Warning: failed to close profile store: %v", err)
		}
	}()
	log.Println("Opened profile store at", sqlitePath)

	concepts, quizzes, err := loadConceptGraphAndQuizBank()
	if err != nil {
		log.Fatalf("Failed to load concept graph and quiz bank: %v", err)
	}
	log.Printf("Loaded knowledge graph with %d concepts and a bank of %d quizzes", concepts.Order(), len(quizzes))

	pol := policy.Default()
	core, err := quizcore.New(pol, nil)
	if err != nil {
		log.Fatalf("Failed to initialize quiz core: %v", err)
	}
	log.Println("Initialized quiz core with default policy")

	srv := mcpserver.New(core, profiles, concepts, quizzes)
	log.Println("Created quiz MCP server")

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "adaptive-quiz-server",
		Version: "1.0.0",
	}, nil)
	log.Println("Created MCP server")

	srv.RegisterTools(mcpServer)
	log.Println("Registered tools: suggest-next-quiz, update-scores, get-learning-progress, reset-user-progress, recent-attempts")

	transport := &mcp.StdioTransport{}
	log.Println("Created stdio transport")

	ctx := context.Background()
	log.Println("Starting MCP server...")
	if err := mcpServer.Run(ctx, transport); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// loadConceptGraphAndQuizBank attempts to load concepts, prerequisite edges,
// and the quiz bank from Neo4j when NEO4J_URI is configured, falling back to
// a small built-in sample graph so the demo runs with zero external
// dependencies out of the box.
func loadConceptGraphAndQuizBank() (*knowledgegraph.Graph, []*domain.QuizItem, error) {
	if os.Getenv("NEO4J_URI") != "" {
		store, err := neo4jstore.Open(neo4jstore.DefaultConfig())
		if err != nil {
			log.Printf("Warning: failed to connect to Neo4j, falling back to sample graph: %v", err)
		} else {
			defer func() { _ = store.Close(context.Background()) }()
			cs, edges, err := store.LoadGraph(context.Background())
			if err != nil {
				log.Printf("Warning: failed to load graph from Neo4j, falling back to sample graph: %v", err)
			} else {
				g, err := knowledgegraph.Build(cs, edges)
				if err != nil {
					return nil, nil, err
				}
				return g, sampleQuizBank(), nil
			}
		}
	}

	g, err := knowledgegraph.Build(sampleConcepts(), sampleEdges())
	if err != nil {
		return nil, nil, err
	}
	return g, sampleQuizBank(), nil
}

func sampleConcepts() []*domain.Concept {
	return []*domain.Concept{
		{ID: "arithmetic", Name: "Arithmetic"},
		{ID: "algebra-1", Name: "Algebra I"},
		{ID: "algebra-2", Name: "Algebra II"},
		{ID: "geometry", Name: "Geometry"},
		{ID: "trigonometry", Name: "Trigonometry"},
	}
}

func sampleEdges() []domain.Edge {
	return []domain.Edge{
		{Tail: "arithmetic", Head: "algebra-1"},
		{Tail: "algebra-1", Head: "algebra-2"},
		{Tail: "algebra-1", Head: "geometry"},
		{Tail: "geometry", Head: "trigonometry"},
	}
}

func sampleQuizBank() []*domain.QuizItem {
	return []*domain.QuizItem{
		{ID: "arith-1", LinkedConcepts: []string{"arithmetic"}, Difficulty: 1, Style: "multiple-choice"},
		{ID: "arith-2", LinkedConcepts: []string{"arithmetic"}, Difficulty: 2, Style: "free-response"},
		{ID: "alg1-1", LinkedConcepts: []string{"algebra-1"}, Difficulty: 2, Style: "multiple-choice"},
		{ID: "alg1-2", LinkedConcepts: []string{"algebra-1"}, Difficulty: 3, Style: "free-response"},
		{ID: "alg2-1", LinkedConcepts: []string{"algebra-2"}, Difficulty: 3, Style: "multiple-choice"},
		{ID: "geom-1", LinkedConcepts: []string{"geometry"}, Difficulty: 3, Style: "diagram"},
		{ID: "trig-1", LinkedConcepts: []string{"trigonometry"}, Difficulty: 4, Style: "free-response"},
		{ID: "review-1", LinkedConcepts: []string{"algebra-1", "geometry"}, Difficulty: 3, Style: "multiple-choice"},
	}
}
