package graph

import (
	"fmt"

	"github.com/reaia/docgraph/pkg/chunker"
)

// Labels and relationship types shared between extraction and storage.
const (
	// BaseEntityLabel tags every extracted node so storage can address
	// pipeline-extracted nodes uniformly, regardless of entity type.
	BaseEntityLabel = "__Entity__"
	// SourceLabel is the label of the provenance node persisted per chunk.
	SourceLabel = "Document"
	// MentionsType links a provenance node to the entities extracted
	// from its chunk.
	MentionsType = "MENTIONS"
)

// Node is one extracted entity. Identity is (Label, ID) and must be
// stable across re-runs on the same input so storage can upsert.
type Node struct {
	ID         string
	Label      string
	BaseLabel  string
	Properties map[string]any
}

// Relationship is a directed, typed edge between two nodes of the same
// Document.
type Relationship struct {
	SourceID   string
	TargetID   string
	Type       string
	Properties map[string]any
}

// Document is the extraction output for one chunk: the unit of storage
// transaction. Source is the chunk the nodes and relationships were
// extracted from.
type Document struct {
	Nodes         []Node
	Relationships []Relationship
	Source        chunker.Chunk
}

// MalformedGraphError reports extraction output that violates the
// document's internal consistency. The whole Document is rejected;
// nothing from the offending chunk is stored.
type MalformedGraphError struct {
	ChunkIndex int
	Reason     string
}

func (e *MalformedGraphError) Error() string {
	return fmt.Sprintf("malformed graph document from chunk %d: %s", e.ChunkIndex, e.Reason)
}

// Validate checks the document's referential integrity: every node has an
// id and a label, and every relationship references node ids present in
// the same document.
func (d *Document) Validate() error {
	ids := make(map[string]struct{}, len(d.Nodes))
	for _, node := range d.Nodes {
		if node.ID == "" {
			return &MalformedGraphError{ChunkIndex: d.Source.Index, Reason: "node with empty id"}
		}
		if node.Label == "" {
			return &MalformedGraphError{ChunkIndex: d.Source.Index, Reason: fmt.Sprintf("node %q with empty label", node.ID)}
		}
		ids[node.ID] = struct{}{}
	}

	for _, rel := range d.Relationships {
		if rel.Type == "" {
			return &MalformedGraphError{ChunkIndex: d.Source.Index, Reason: "relationship with empty type"}
		}
		if _, ok := ids[rel.SourceID]; !ok {
			return &MalformedGraphError{
				ChunkIndex: d.Source.Index,
				Reason:     fmt.Sprintf("relationship %q references unknown source node %q", rel.Type, rel.SourceID),
			}
		}
		if _, ok := ids[rel.TargetID]; !ok {
			return &MalformedGraphError{
				ChunkIndex: d.Source.Index,
				Reason:     fmt.Sprintf("relationship %q references unknown target node %q", rel.Type, rel.TargetID),
			}
		}
	}

	return nil
}
