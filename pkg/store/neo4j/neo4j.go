package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/reaia/docgraph/pkg/graph"
	"github.com/reaia/docgraph/pkg/logger"
	"github.com/reaia/docgraph/pkg/store"
)

// Store persists graph documents to Neo4j and serves triple reads. It
// does not own the driver: the caller opens it once per process, injects
// it here, and closes it on shutdown.
type Store struct {
	driver        neo4j.DriverWithContext
	database      string
	includeSource bool
}

// NewStoreParams defines the configuration for creating a new Store.
// Database may be empty for the server default. IncludeSource controls
// whether each chunk is persisted as a provenance node with MENTIONS
// links to its entities.
type NewStoreParams struct {
	Database      string
	IncludeSource bool
}

// NewStore creates a Store on top of an existing driver.
func NewStore(driver neo4j.DriverWithContext, params NewStoreParams) *Store {
	return &Store{
		driver:        driver,
		database:      params.Database,
		includeSource: params.IncludeSource,
	}
}

// NewDriver opens a Neo4j driver and verifies connectivity. An
// unreachable server is reported as a retryable store.ErrUnavailable.
func NewDriver(ctx context.Context, uri string, username string, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return driver, nil
}

func wrapNeo4jErr(err error) error {
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}

// SaveDocuments upserts each document in its own write transaction:
// nodes by (label, id), relationships by (source, target, type), both
// with property merge, plus the provenance node and MENTIONS links when
// include-source is enabled.
func (s *Store) SaveDocuments(ctx context.Context, documents []graph.Document) (store.StoreResult, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	result := store.StoreResult{}
	for _, doc := range documents {
		if err := doc.Validate(); err != nil {
			return result, err
		}

		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return nil, s.writeDocument(ctx, tx, doc)
		})
		if err != nil {
			return result, fmt.Errorf("failed to store graph document from chunk %d: %w",
				doc.Source.Index, wrapNeo4jErr(err))
		}

		result.Documents++
		result.Nodes += len(doc.Nodes)
		result.Relationships += len(doc.Relationships)
	}

	logger.Info("[Store] Graph documents stored",
		"documents", result.Documents,
		"nodes", result.Nodes,
		"relationships", result.Relationships,
	)
	return result, nil
}

func (s *Store) writeDocument(ctx context.Context, tx neo4j.ManagedTransaction, doc graph.Document) error {
	chunkID := sourceID(doc.Source.Text)

	if s.includeSource {
		props := map[string]any{
			"text":        doc.Source.Text,
			"chunk_index": doc.Source.Index,
		}
		for k, v := range doc.Source.Metadata {
			props[k] = v
		}
		if _, err := tx.Run(ctx, sourceMergeQuery(), map[string]any{
			"id":    chunkID,
			"props": props,
		}); err != nil {
			return err
		}
	}

	labelByID := make(map[string]string, len(doc.Nodes))
	for _, node := range doc.Nodes {
		labelByID[node.ID] = node.Label

		query, err := nodeMergeQuery(node.Label)
		if err != nil {
			return err
		}
		props := map[string]any{"id": node.ID}
		for k, v := range node.Properties {
			props[k] = v
		}
		if _, err := tx.Run(ctx, query, map[string]any{
			"id":    node.ID,
			"props": props,
		}); err != nil {
			return err
		}

		if s.includeSource {
			mentions, err := mentionsMergeQuery(node.Label)
			if err != nil {
				return err
			}
			if _, err := tx.Run(ctx, mentions, map[string]any{
				"source_id": chunkID,
				"node_id":   node.ID,
			}); err != nil {
				return err
			}
		}
	}

	for _, rel := range doc.Relationships {
		query, err := relationshipMergeQuery(labelByID[rel.SourceID], rel.Type, labelByID[rel.TargetID])
		if err != nil {
			return err
		}
		props := map[string]any{}
		for k, v := range rel.Properties {
			props[k] = v
		}
		if _, err := tx.Run(ctx, query, map[string]any{
			"source_id": rel.SourceID,
			"target_id": rel.TargetID,
			"props":     props,
		}); err != nil {
			return err
		}
	}

	return nil
}

// DefaultTripleQuery returns a Cypher query fetching a bounded sample
// of the entity graph, excluding provenance MENTIONS edges.
func (s *Store) DefaultTripleQuery(limit int) string {
	if limit <= 0 {
		limit = store.DefaultQueryLimit
	}
	return fmt.Sprintf("MATCH (s)-[r:!MENTIONS]->(t) RETURN s, r, t LIMIT %d", limit)
}

// QueryTriples runs a read-only query expected to return rows of
// (source node, relationship, target node) and converts them to
// store.Triple records. Rows of any other shape fail the whole query.
func (s *Store) QueryTriples(ctx context.Context, query string) ([]store.Triple, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}

		var triples []store.Triple
		for result.Next(ctx) {
			record := result.Record()
			triple, err := tripleFromRecord(record.Values)
			if err != nil {
				return nil, &store.QueryError{
					Query:  query,
					Reason: fmt.Sprintf("row %d: %v", len(triples), err),
				}
			}
			triples = append(triples, triple)
		}
		if err := result.Err(); err != nil {
			return nil, err
		}
		return triples, nil
	})
	if err != nil {
		if qErr, ok := err.(*store.QueryError); ok {
			return nil, qErr
		}
		if neo4j.IsConnectivityError(err) {
			return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		return nil, &store.QueryError{Query: query, Reason: "query failed", Err: err}
	}

	return rows.([]store.Triple), nil
}

func tripleFromRecord(values []any) (store.Triple, error) {
	if len(values) != 3 {
		return store.Triple{}, fmt.Errorf("expected 3 values (source, relationship, target), got %d", len(values))
	}

	source, ok := values[0].(neo4j.Node)
	if !ok {
		return store.Triple{}, fmt.Errorf("first value is not a node")
	}
	rel, ok := values[1].(neo4j.Relationship)
	if !ok {
		return store.Triple{}, fmt.Errorf("second value is not a relationship")
	}
	target, ok := values[2].(neo4j.Node)
	if !ok {
		return store.Triple{}, fmt.Errorf("third value is not a node")
	}

	return store.Triple{
		Source:     nodeRecord(source),
		Type:       rel.Type,
		Properties: rel.Props,
		Target:     nodeRecord(target),
	}, nil
}

func nodeRecord(node neo4j.Node) store.NodeRecord {
	return store.NodeRecord{
		Key:        node.ElementId,
		Labels:     node.Labels,
		Properties: node.Props,
	}
}
