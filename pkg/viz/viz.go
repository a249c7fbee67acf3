// Package viz shapes stored graph triples into a renderer-agnostic
// node/edge structure for front-end visualization.
package viz

import (
	"context"
	"fmt"

	"github.com/reaia/docgraph/pkg/store"
)

// VisualizationNode is one renderable node. Label is the short display
// text; HoverTitle carries only the node's id, shown on hover.
type VisualizationNode struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	HoverTitle string `json:"title"`
}

// VisualizationEdge is one renderable directed edge between node ids.
type VisualizationEdge struct {
	SourceID string `json:"source"`
	TargetID string `json:"target"`
	Label    string `json:"label"`
}

// VisualizationGraph is the complete payload handed to a renderer.
type VisualizationGraph struct {
	Nodes []VisualizationNode `json:"nodes"`
	Edges []VisualizationEdge `json:"edges"`
}

// displayLabel picks the node's display text: the name property, then
// title, then the id itself. Extracted nodes always carry an id
// property, so the fallback is total.
func displayLabel(props map[string]any, id string) string {
	if name, ok := props["name"].(string); ok && name != "" {
		return name
	}
	if title, ok := props["title"].(string); ok && title != "" {
		return title
	}
	return id
}

// Build shapes query triples into a visualization graph. Nodes are
// deduplicated by their id property in first-seen order; every triple
// contributes one edge. A node without a string id property fails the
// whole build.
func Build(triples []store.Triple) (VisualizationGraph, error) {
	g := VisualizationGraph{
		Nodes: []VisualizationNode{},
		Edges: []VisualizationEdge{},
	}
	seen := map[string]struct{}{}

	addNode := func(record store.NodeRecord) (string, error) {
		id, ok := record.Properties["id"].(string)
		if !ok || id == "" {
			return "", &store.QueryError{
				Reason: fmt.Sprintf("node %s has no id property", record.Key),
			}
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			g.Nodes = append(g.Nodes, VisualizationNode{
				ID:         id,
				Label:      displayLabel(record.Properties, id),
				HoverTitle: id,
			})
		}
		return id, nil
	}

	for _, triple := range triples {
		sourceID, err := addNode(triple.Source)
		if err != nil {
			return VisualizationGraph{}, err
		}
		targetID, err := addNode(triple.Target)
		if err != nil {
			return VisualizationGraph{}, err
		}
		g.Edges = append(g.Edges, VisualizationEdge{
			SourceID: sourceID,
			TargetID: targetID,
			Label:    triple.Type,
		})
	}

	return g, nil
}

// Viewer runs triple queries against a store and shapes the results.
type Viewer struct {
	querier store.TripleQuerier
}

// NewViewerParams defines the configuration for creating a new Viewer.
type NewViewerParams struct {
	Querier store.TripleQuerier
}

// NewViewer creates a Viewer backed by the given triple querier.
func NewViewer(params NewViewerParams) *Viewer {
	return &Viewer{querier: params.Querier}
}

// Visualize runs the query and returns the shaped graph. An empty query
// falls back to the store's own default triple query, bounded by limit;
// limit is ignored when a query is given.
func (v *Viewer) Visualize(ctx context.Context, query string, limit int) (VisualizationGraph, error) {
	if query == "" {
		query = v.querier.DefaultTripleQuery(limit)
	}
	triples, err := v.querier.QueryTriples(ctx, query)
	if err != nil {
		return VisualizationGraph{}, err
	}
	return Build(triples)
}
