package viz

import (
	"context"
	"errors"
	"testing"

	"github.com/reaia/docgraph/pkg/store"
)

func node(id string, extra map[string]any) store.NodeRecord {
	props := map[string]any{"id": id}
	for k, v := range extra {
		props[k] = v
	}
	return store.NodeRecord{Key: "key-" + id, Properties: props}
}

func TestBuild(t *testing.T) {
	triples := []store.Triple{
		{
			Source: node("1", map[string]any{"name": "Alice"}),
			Type:   "WORKS_AT",
			Target: node("2", map[string]any{"title": "Acme"}),
		},
	}

	g, err := Build(triples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	want := []VisualizationNode{
		{ID: "1", Label: "Alice", HoverTitle: "1"},
		{ID: "2", Label: "Acme", HoverTitle: "2"},
	}
	for i, wantNode := range want {
		if g.Nodes[i] != wantNode {
			t.Fatalf("node %d: expected %+v, got %+v", i, wantNode, g.Nodes[i])
		}
	}

	if len(g.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(g.Edges))
	}
	edge := g.Edges[0]
	if edge.SourceID != "1" || edge.TargetID != "2" || edge.Label != "WORKS_AT" {
		t.Fatalf("unexpected edge: %+v", edge)
	}
}

func TestBuildHoverTitleIsAlwaysTheID(t *testing.T) {
	triples := []store.Triple{
		{
			Source: node("smith_01", map[string]any{"name": "Dr. Smith"}),
			Type:   "KNOWS",
			Target: node("anon_02", nil),
		},
	}

	g, err := Build(triples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, n := range g.Nodes {
		if n.HoverTitle != n.ID {
			t.Fatalf("hover title must carry the id, got %+v", n)
		}
	}
}

func TestBuildDeduplicatesNodes(t *testing.T) {
	triples := []store.Triple{
		{Source: node("Alice", nil), Type: "KNOWS", Target: node("Bob", nil)},
		{Source: node("Alice", nil), Type: "KNOWS", Target: node("Carol", nil)},
		{Source: node("Bob", nil), Type: "KNOWS", Target: node("Alice", nil)},
	}

	g, err := Build(triples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(g.Nodes) != 3 {
		t.Fatalf("expected 3 unique nodes, got %d", len(g.Nodes))
	}
	// First-seen order.
	order := []string{"Alice", "Bob", "Carol"}
	for i, want := range order {
		if g.Nodes[i].ID != want {
			t.Fatalf("node %d: expected %q, got %q", i, want, g.Nodes[i].ID)
		}
	}
	if len(g.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(g.Edges))
	}
}

func TestDisplayLabelFallback(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		want  string
	}{
		{"name wins", map[string]any{"name": "Dr. Smith", "title": "Professor"}, "Dr. Smith"},
		{"title next", map[string]any{"title": "Professor"}, "Professor"},
		{"id last", map[string]any{}, "smith_01"},
		{"empty name skipped", map[string]any{"name": "", "title": "Professor"}, "Professor"},
		{"non-string name skipped", map[string]any{"name": 42}, "smith_01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayLabel(tt.props, "smith_01"); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBuildRejectsNodeWithoutID(t *testing.T) {
	triples := []store.Triple{
		{
			Source: store.NodeRecord{Key: "4:abc:0", Properties: map[string]any{"name": "Mystery"}},
			Type:   "KNOWS",
			Target: node("Bob", nil),
		},
	}

	_, err := Build(triples)
	var qErr *store.QueryError
	if !errors.As(err, &qErr) {
		t.Fatalf("expected QueryError, got %v", err)
	}
}

func TestBuildEmpty(t *testing.T) {
	g, err := Build(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Nodes == nil || g.Edges == nil {
		t.Fatal("empty build must return empty slices, not nil")
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Fatalf("expected empty graph, got %+v", g)
	}
}

type fakeQuerier struct {
	query   string
	limit   int
	triples []store.Triple
	err     error
}

func (f *fakeQuerier) QueryTriples(_ context.Context, query string) ([]store.Triple, error) {
	f.query = query
	return f.triples, f.err
}

func (f *fakeQuerier) DefaultTripleQuery(limit int) string {
	f.limit = limit
	return "backend default query"
}

func TestVisualizeDefaultsToStoreQuery(t *testing.T) {
	querier := &fakeQuerier{}
	viewer := NewViewer(NewViewerParams{Querier: querier})

	if _, err := viewer.Visualize(context.Background(), "", 25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if querier.query != "backend default query" {
		t.Fatalf("expected the store's default query, got %q", querier.query)
	}
	if querier.limit != 25 {
		t.Fatalf("expected limit 25 handed to the store, got %d", querier.limit)
	}
}

func TestVisualizeExplicitQueryWins(t *testing.T) {
	querier := &fakeQuerier{}
	viewer := NewViewer(NewViewerParams{Querier: querier})

	if _, err := viewer.Visualize(context.Background(), "MATCH (s)-[r]->(t) RETURN s, r, t", 25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if querier.query != "MATCH (s)-[r]->(t) RETURN s, r, t" {
		t.Fatalf("explicit query must be passed through, got %q", querier.query)
	}
}

func TestVisualizePropagatesStoreErrors(t *testing.T) {
	querier := &fakeQuerier{err: store.ErrUnavailable}
	viewer := NewViewer(NewViewerParams{Querier: querier})

	_, err := viewer.Visualize(context.Background(), "MATCH (s)-[r]->(t) RETURN s, r, t", 0)
	if !store.IsRetryable(err) {
		t.Fatalf("expected retryable store error, got %v", err)
	}
}
