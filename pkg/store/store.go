package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/reaia/docgraph/pkg/graph"
)

// ErrUnavailable marks the backing database as unreachable. Errors
// wrapping it are retryable; everything else is not.
var ErrUnavailable = errors.New("graph store unavailable")

// IsRetryable reports whether err is worth retrying against the same
// store.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// QueryError reports a malformed visualization query or a result row that
// does not have the expected (source, relationship, target) shape.
type QueryError struct {
	Query  string
	Reason string
	Err    error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graph query failed: %s: %v (query: %s)", e.Reason, e.Err, e.Query)
	}
	return fmt.Sprintf("graph query failed: %s (query: %s)", e.Reason, e.Query)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// StoreResult summarizes a completed SaveDocuments call.
type StoreResult struct {
	Documents     int `json:"documents"`
	Nodes         int `json:"nodes"`
	Relationships int `json:"relationships"`
}

// NodeRecord is a stored node as returned by triple queries.
type NodeRecord struct {
	// Key is the backend identity of the node, distinct from the id
	// property (element id for Neo4j, label:id for Postgres).
	Key        string
	Labels     []string
	Properties map[string]any
}

// Triple is one (source)-[relationship]->(target) row of a read query.
type Triple struct {
	Source     NodeRecord
	Type       string
	Properties map[string]any
	Target     NodeRecord
}

// GraphWriter persists extracted graph documents. One Document is one
// transaction: either all its nodes, relationships and provenance links
// commit, or none do.
type GraphWriter interface {
	SaveDocuments(ctx context.Context, documents []graph.Document) (StoreResult, error)
}

// DefaultQueryLimit bounds a backend's default triple query when the
// caller gives no limit of its own.
const DefaultQueryLimit = 50

// TripleQuerier runs a read-only query expected to return
// (source, relationship, target) rows. DefaultTripleQuery returns a
// bounded sample query in the backend's own query language, used when
// a caller has no query of its own; non-positive limits fall back to
// DefaultQueryLimit.
type TripleQuerier interface {
	QueryTriples(ctx context.Context, query string) ([]Triple, error)
	DefaultTripleQuery(limit int) string
}

// GraphStorage is the full storage contract: writes and triple reads.
type GraphStorage interface {
	GraphWriter
	TripleQuerier
}
