package neo4jstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptivequiz/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected Config
	}{
		{
			name: "default values",
			env:  map[string]string{},
			expected: Config{
				URI:      "bolt://localhost:7687",
				Username: "neo4j",
				Password: "password",
				Database: "neo4j",
				Timeout:  5 * time.Second,
			},
		},
		{
			name: "custom values from env",
			env: map[string]string{
				"NEO4J_URI":        "bolt://remote:7687",
				"NEO4J_USERNAME":   "admin",
				"NEO4J_PASSWORD":   "secret",
				"NEO4J_DATABASE":   "graph",
				"NEO4J_TIMEOUT_MS": "10000",
			},
			expected: Config{
				URI:      "bolt://remote:7687",
				Username: "admin",
				Password: "secret",
				Database: "graph",
				Timeout:  10 * time.Second,
			},
		},
		{
			name: "invalid timeout falls back to default",
			env: map[string]string{
				"NEO4J_TIMEOUT_MS": "not-a-number",
			},
			expected: Config{
				URI:      "bolt://localhost:7687",
				Username: "neo4j",
				Password: "password",
				Database: "neo4j",
				Timeout:  5 * time.Second,
			},
		},
	}

	vars := []string{"NEO4J_URI", "NEO4J_USERNAME", "NEO4J_PASSWORD", "NEO4J_DATABASE", "NEO4J_TIMEOUT_MS"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := make(map[string]string)
			for _, k := range vars {
				original[k] = os.Getenv(k)
				os.Unsetenv(k)
			}
			defer func() {
				for k, v := range original {
					if v != "" {
						os.Setenv(k, v)
					} else {
						os.Unsetenv(k)
					}
				}
			}()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			cfg := DefaultConfig()
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

// TestOpen_ConnectionFailure exercises the connectivity check against an
// address nothing listens on; it never reaches a real Neo4j instance, so it
// runs unconditionally unlike the round-trip tests below.
func TestOpen_ConnectionFailure(t *testing.T) {
	cfg := Config{
		URI:      "bolt://127.0.0.1:1",
		Username: "neo4j",
		Password: "password",
		Timeout:  200 * time.Millisecond,
	}
	_, err := Open(cfg)
	require.Error(t, err)
}

// openLiveStore connects to a real Neo4j instance for integration coverage
// of LoadGraph/UpsertConcept/UpsertEdge; skipped unless NEO4J_URI names a
// reachable instance.
func openLiveStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cfg := DefaultConfig()
	s, err := Open(cfg)
	if err != nil {
		t.Skipf("neo4j not available: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestLoadGraph_RoundTripsUpsertedConceptsAndEdges(t *testing.T) {
	s := openLiveStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertConcept(ctx, &domain.Concept{ID: "algebra-1", Name: "Algebra I"}))
	require.NoError(t, s.UpsertConcept(ctx, &domain.Concept{ID: "algebra-2", Name: "Algebra II"}))
	require.NoError(t, s.UpsertEdge(ctx, domain.Edge{Tail: "algebra-1", Head: "algebra-2"}))

	concepts, edges, err := s.LoadGraph(ctx)
	require.NoError(t, err)

	var foundTail, foundHead bool
	for _, c := range concepts {
		if c.ID == "algebra-1" {
			foundTail = true
		}
		if c.ID == "algebra-2" {
			foundHead = true
		}
	}
	assert.True(t, foundTail)
	assert.True(t, foundHead)

	var foundEdge bool
	for _, e := range edges {
		if e.Tail == "algebra-1" && e.Head == "algebra-2" {
			foundEdge = true
		}
	}
	assert.True(t, foundEdge)
}
