// Package neo4jstore is a reference Concept store external collaborator
// that loads concepts and prerequisite edges from a Neo4j database, using
// a driver-wrapper pattern (NewDriverWithContext plus ExecuteRead/
// ExecuteWrite sessions). It is explicitly not part of the core graph:
// internal/knowledgegraph never imports this package, and this package
// never imports internal/knowledgegraph's Graph type; it only returns the
// plain domain.Concept / domain.Edge values knowledgegraph.Build already
// accepts.
package neo4jstore

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"adaptivequiz/internal/domain"
)

// Config holds the connection parameters.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// DefaultConfig builds a Config from NEO4J_* environment variables, falling
// back to local-dev defaults.
func DefaultConfig() Config {
	cfg := Config{
		URI:      "bolt://localhost:7687",
		Username: "neo4j",
		Password: "password",
		Database: "neo4j",
		Timeout:  5 * time.Second,
	}
	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.URI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("NEO4J_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("NEO4J_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg
}

// Store wraps a Neo4j driver and exposes read/write operations over
// :Concept nodes and :PREREQUISITE_OF relationships.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// Open connects to Neo4j and verifies connectivity before returning.
func Open(cfg Config) (*Store, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *config.Config) {
			c.MaxConnectionPoolSize = 50
			c.ConnectionAcquisitionTimeout = cfg.Timeout
			c.SocketConnectTimeout = cfg.Timeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("neo4jstore: failed to create driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4jstore: failed to verify connectivity: %w", err)
	}

	return &Store{driver: driver, database: cfg.Database, timeout: cfg.Timeout}, nil
}

// Close releases the driver's connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// LoadGraph returns every concept and prerequisite edge currently stored,
// sufficient to call knowledgegraph.Build. Acyclicity is enforced by
// knowledgegraph.Build itself, not re-verified here; identifiers are stable
// across calls.
func (s *Store) LoadGraph(ctx context.Context) ([]*domain.Concept, []domain.Edge, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database, AccessMode: neo4j.AccessModeRead})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransactionContext) (any, error) {
		records, err := tx.Run(ctx, `
			MATCH (c:Concept)
			RETURN c.id AS id, c.name AS name, c.description AS description
		`, nil)
		if err != nil {
			return nil, err
		}
		var concepts []*domain.Concept
		for records.Next(ctx) {
			rec := records.Record()
			id, _ := rec.Get("id")
			name, _ := rec.Get("name")
			desc, _ := rec.Get("description")
			concepts = append(concepts, &domain.Concept{
				ID:          fmt.Sprint(id),
				Name:        fmt.Sprint(name),
				Description: fmt.Sprint(desc),
			})
		}
		if err := records.Err(); err != nil {
			return nil, err
		}

		edgeRecords, err := tx.Run(ctx, `
			MATCH (p:Concept)-[:PREREQUISITE_OF]->(c:Concept)
			RETURN p.id AS tail, c.id AS head
		`, nil)
		if err != nil {
			return nil, err
		}
		var edges []domain.Edge
		for edgeRecords.Next(ctx) {
			rec := edgeRecords.Record()
			tail, _ := rec.Get("tail")
			head, _ := rec.Get("head")
			edges = append(edges, domain.Edge{Tail: fmt.Sprint(tail), Head: fmt.Sprint(head)})
		}
		if err := edgeRecords.Err(); err != nil {
			return nil, err
		}

		return [2]any{concepts, edges}, nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("neo4jstore: load graph: %w", err)
	}

	pair := result.([2]any)
	return pair[0].([]*domain.Concept), pair[1].([]domain.Edge), nil
}

// UpsertConcept writes a single concept node, used by the demo to seed or
// update the graph without a full reload.
func (s *Store) UpsertConcept(ctx context.Context, c *domain.Concept) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database, AccessMode: neo4j.AccessModeWrite})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransactionContext) (any, error) {
		return tx.Run(ctx, `
			MERGE (c:Concept {id: $id})
			SET c.name = $name, c.description = $description
		`, map[string]any{"id": c.ID, "name": c.Name, "description": c.Description})
	})
	if err != nil {
		return fmt.Errorf("neo4jstore: upsert concept %q: %w", c.ID, err)
	}
	return nil
}

// UpsertEdge writes a single prerequisite-of relationship.
func (s *Store) UpsertEdge(ctx context.Context, e domain.Edge) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database, AccessMode: neo4j.AccessModeWrite})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransactionContext) (any, error) {
		return tx.Run(ctx, `
			MATCH (p:Concept {id: $tail}), (c:Concept {id: $head})
			MERGE (p)-[:PREREQUISITE_OF]->(c)
		`, map[string]any{"tail": e.Tail, "head": e.Head})
	})
	if err != nil {
		return fmt.Errorf("neo4jstore: upsert edge %s->%s: %w", e.Tail, e.Head, err)
	}
	return nil
}
