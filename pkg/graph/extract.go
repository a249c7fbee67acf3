package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/reaia/docgraph/pkg/ai"
	"github.com/reaia/docgraph/pkg/chunker"
)

var defaultEntityTypes = []string{
	"PERSON", "ORGANIZATION", "LOCATION", "CONCEPT", "CREATIVE_WORK", "DATE", "PRODUCT", "EVENT",
}

type extractNode struct {
	ID          string `json:"id" jsonschema_description:"Canonical name of the entity, all letters capitalized"`
	Type        string `json:"type" jsonschema_description:"One of the provided entity types"`
	Description string `json:"description" jsonschema_description:"Description of the entity based only on the passage"`
}

type extractRelationship struct {
	SourceID    string `json:"source_id" jsonschema_description:"Id of the source entity, as identified above"`
	TargetID    string `json:"target_id" jsonschema_description:"Id of the target entity, as identified above"`
	Type        string `json:"type" jsonschema_description:"Relationship type in UPPER_SNAKE_CASE"`
	Description string `json:"description" jsonschema_description:"Why the source and target entity are related"`
}

type extractResponse struct {
	Nodes         []extractNode         `json:"nodes" jsonschema_description:"Entities identified in the passage"`
	Relationships []extractRelationship `json:"relationships" jsonschema_description:"Relationships identified in the passage"`
}

// Extractor turns chunks into graph Documents using an AI client.
//
// An Extractor should be created using NewExtractor.
type Extractor struct {
	client      ai.GraphAIClient
	entityTypes []string
}

// NewExtractorParams defines the configuration for creating a new
// Extractor. EntityTypes restricts the node labels the model may produce;
// when empty a default set is used.
type NewExtractorParams struct {
	Client      ai.GraphAIClient
	EntityTypes []string
}

// NewExtractor creates an Extractor bound to the given AI client.
func NewExtractor(params NewExtractorParams) *Extractor {
	entityTypes := params.EntityTypes
	if len(entityTypes) == 0 {
		entityTypes = defaultEntityTypes
	}
	return &Extractor{
		client:      params.Client,
		entityTypes: entityTypes,
	}
}

// Extract asks the model for the entities and relationships of one chunk
// and returns them as a Document. Every node is tagged with
// BaseEntityLabel and the Document keeps the chunk as its source.
//
// Model output that fails referential integrity is rejected in full with
// a MalformedGraphError; a Document is never partially usable.
func (e *Extractor) Extract(ctx context.Context, chunk chunker.Chunk) (Document, error) {
	systemPrompt := fmt.Sprintf(
		ai.ExtractPrompt,
		strings.Join(e.entityTypes, ","),
		chunk.Metadata["source"],
		strings.Join(e.entityTypes, ","),
	)

	var res extractResponse
	err := e.client.GenerateCompletionWithFormat(
		ctx,
		"extract_entities_and_relationships",
		"Extract entities and relationships from a provided document.",
		chunk.Text,
		&res,
		ai.WithSystemPrompts(systemPrompt),
	)
	if err != nil {
		return Document{}, fmt.Errorf("extraction failed for chunk %d: %w", chunk.Index, err)
	}

	doc := Document{
		Nodes:         make([]Node, 0, len(res.Nodes)),
		Relationships: make([]Relationship, 0, len(res.Relationships)),
		Source:        chunk,
	}

	for _, node := range res.Nodes {
		properties := map[string]any{}
		if desc := strings.TrimSpace(node.Description); desc != "" {
			properties["description"] = desc
		}
		doc.Nodes = append(doc.Nodes, Node{
			ID:         strings.TrimSpace(node.ID),
			Label:      normalizeType(node.Type),
			BaseLabel:  BaseEntityLabel,
			Properties: properties,
		})
	}

	for _, rel := range res.Relationships {
		properties := map[string]any{}
		if desc := strings.TrimSpace(rel.Description); desc != "" {
			properties["description"] = desc
		}
		doc.Relationships = append(doc.Relationships, Relationship{
			SourceID:   strings.TrimSpace(rel.SourceID),
			TargetID:   strings.TrimSpace(rel.TargetID),
			Type:       normalizeType(rel.Type),
			Properties: properties,
		})
	}

	if err := doc.Validate(); err != nil {
		return Document{}, err
	}

	return doc, nil
}

// normalizeType maps model-produced labels and relationship types to a
// single form: trimmed, uppercased, spaces and dashes as underscores.
func normalizeType(t string) string {
	t = strings.TrimSpace(t)
	t = strings.ToUpper(t)
	t = strings.ReplaceAll(t, " ", "_")
	t = strings.ReplaceAll(t, "-", "_")
	return t
}
