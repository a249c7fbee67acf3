package neo4j

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/reaia/docgraph/pkg/graph"
)

// identRe restricts labels and relationship types to plain identifiers so
// they can be spliced into Cypher safely (parameters cannot carry them).
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdent(s string) error {
	if !identRe.MatchString(s) {
		return fmt.Errorf("invalid graph identifier %q", s)
	}
	return nil
}

// sourceID derives a stable identity for a chunk's provenance node from
// its text, so re-running the pipeline on the same input upserts instead
// of duplicating.
func sourceID(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// nodeMergeQuery upserts a node by (label, id), merging properties and
// adding the base entity label.
func nodeMergeQuery(label string) (string, error) {
	if err := validIdent(label); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"MERGE (n:`%s` {id: $id}) SET n += $props SET n:`%s`",
		label, graph.BaseEntityLabel,
	), nil
}

// relationshipMergeQuery upserts a relationship by
// (source, target, type), merging properties.
func relationshipMergeQuery(sourceLabel string, relType string, targetLabel string) (string, error) {
	for _, ident := range []string{sourceLabel, relType, targetLabel} {
		if err := validIdent(ident); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf(
		"MATCH (s:`%s` {id: $source_id}) MATCH (t:`%s` {id: $target_id}) MERGE (s)-[r:`%s`]->(t) SET r += $props",
		sourceLabel, targetLabel, relType,
	), nil
}

// sourceMergeQuery upserts the provenance node for a chunk.
func sourceMergeQuery() string {
	return fmt.Sprintf("MERGE (d:`%s` {id: $id}) SET d += $props", graph.SourceLabel)
}

// mentionsMergeQuery links a provenance node to one extracted entity.
func mentionsMergeQuery(label string) (string, error) {
	if err := validIdent(label); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"MATCH (d:`%s` {id: $source_id}) MATCH (n:`%s` {id: $node_id}) MERGE (d)-[:`%s`]->(n)",
		graph.SourceLabel, label, graph.MentionsType,
	), nil
}
