package pgx

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/reaia/docgraph/pkg/graph"
	"github.com/reaia/docgraph/pkg/logger"
	"github.com/reaia/docgraph/pkg/store"
)

// Conn is the subset of a pgx connection pool the store needs.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgxv5.Rows, error)
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// Store persists graph documents into Postgres tables that model a
// property graph: nodes keyed by (label, id), relationships keyed by
// (source, target, type), JSONB property bags merged on conflict.
//
// The connection is injected; its lifecycle belongs to the caller.
type Store struct {
	conn          Conn
	includeSource bool
}

// NewStoreParams defines the configuration for creating a new Store.
type NewStoreParams struct {
	IncludeSource bool
}

// NewStore creates a Store on top of an existing connection or pool.
func NewStore(conn Conn, params NewStoreParams) *Store {
	return &Store{
		conn:          conn,
		includeSource: params.IncludeSource,
	}
}

func wrapPgErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}

// sourceID derives a stable identity for a chunk's provenance row from
// its text, so re-running the pipeline on the same input upserts instead
// of duplicating.
func sourceID(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

const upsertNodeSQL = `
	INSERT INTO graph_nodes (label, id, base_label, props)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (label, id)
	DO UPDATE SET props = graph_nodes.props || EXCLUDED.props`

const upsertRelationshipSQL = `
	INSERT INTO graph_relationships (source_label, source_id, target_label, target_id, type, props)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (source_label, source_id, target_label, target_id, type)
	DO UPDATE SET props = graph_relationships.props || EXCLUDED.props`

const upsertSourceSQL = `
	INSERT INTO graph_sources (id, text, chunk_index, metadata)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id)
	DO UPDATE SET text = EXCLUDED.text, chunk_index = EXCLUDED.chunk_index, metadata = EXCLUDED.metadata`

const upsertMentionSQL = `
	INSERT INTO graph_mentions (source_id, node_label, node_id)
	VALUES ($1, $2, $3)
	ON CONFLICT DO NOTHING`

// SaveDocuments upserts each document in its own transaction.
func (s *Store) SaveDocuments(ctx context.Context, documents []graph.Document) (store.StoreResult, error) {
	result := store.StoreResult{}
	for _, doc := range documents {
		if err := doc.Validate(); err != nil {
			return result, err
		}

		if err := s.saveDocument(ctx, doc); err != nil {
			return result, fmt.Errorf("failed to store graph document from chunk %d: %w",
				doc.Source.Index, wrapPgErr(err))
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

func (s *Store) saveDocument(ctx context.Context, doc graph.Document) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	chunkID := sourceID(doc.Source.Text)

	if s.includeSource {
		metadata := map[string]any{}
		for k, v := range doc.Source.Metadata {
			metadata[k] = v
		}
		if _, err := tx.Exec(ctx, upsertSourceSQL, chunkID, doc.Source.Text, doc.Source.Index, metadata); err != nil {
			return err
		}
	}

	labelByID := make(map[string]string, len(doc.Nodes))
	for _, node := range doc.Nodes {
		labelByID[node.ID] = node.Label

		props := map[string]any{"id": node.ID}
		for k, v := range node.Properties {
			props[k] = v
		}
		if _, err := tx.Exec(ctx, upsertNodeSQL, node.Label, node.ID, node.BaseLabel, props); err != nil {
			return err
		}

		if s.includeSource {
			if _, err := tx.Exec(ctx, upsertMentionSQL, chunkID, node.Label, node.ID); err != nil {
				return err
			}
		}
	}

	for _, rel := range doc.Relationships {
		props := map[string]any{}
		for k, v := range rel.Properties {
			props[k] = v
		}
		if _, err := tx.Exec(ctx, upsertRelationshipSQL,
			labelByID[rel.SourceID], rel.SourceID,
			labelByID[rel.TargetID], rel.TargetID,
			rel.Type, props,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DefaultTripleQuery returns a SQL query fetching a bounded sample of
// the entity graph. Provenance lives in graph_mentions, so plain
// relationship rows are already mention-free.
func (s *Store) DefaultTripleQuery(limit int) string {
	if limit <= 0 {
		limit = store.DefaultQueryLimit
	}
	return fmt.Sprintf(`SELECT sn.label, sn.id, sn.props, r.type, tn.label, tn.id, tn.props
		FROM graph_relationships r
		JOIN graph_nodes sn ON sn.label = r.source_label AND sn.id = r.source_id
		JOIN graph_nodes tn ON tn.label = r.target_label AND tn.id = r.target_id
		LIMIT %d`, limit)
}

// QueryTriples runs a read-only SQL query expected to return rows of
// exactly seven columns: source_label, source_id, source_props,
// rel_type, target_label, target_id, target_props.
func (s *Store) QueryTriples(ctx context.Context, query string) ([]store.Triple, error) {
	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		if wrapped := wrapPgErr(err); store.IsRetryable(wrapped) {
			return nil, wrapped
		}
		return nil, &store.QueryError{Query: query, Reason: "query failed", Err: err}
	}
	defer rows.Close()

	if len(rows.FieldDescriptions()) != 7 {
		return nil, &store.QueryError{
			Query:  query,
			Reason: fmt.Sprintf("expected 7 columns, got %d", len(rows.FieldDescriptions())),
		}
	}

	var triples []store.Triple
	for rows.Next() {
		var (
			sourceLabel, sourceID string
			sourceProps           map[string]any
			relType               string
			targetLabel, targetID string
			targetProps           map[string]any
		)
		if err := rows.Scan(&sourceLabel, &sourceID, &sourceProps, &relType, &targetLabel, &targetID, &targetProps); err != nil {
			return nil, &store.QueryError{
				Query:  query,
				Reason: fmt.Sprintf("row %d has unexpected shape", len(triples)),
				Err:    err,
			}
		}

		triples = append(triples, store.Triple{
			Source: store.NodeRecord{
				Key:        sourceLabel + ":" + sourceID,
				Labels:     []string{sourceLabel},
				Properties: sourceProps,
			},
			Type: relType,
			Target: store.NodeRecord{
				Key:        targetLabel + ":" + targetID,
				Labels:     []string{targetLabel},
				Properties: targetProps,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &store.QueryError{Query: query, Reason: "query failed", Err: err}
	}

	return triples, nil
}
