package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/reaia/docgraph/pkg/ai"
	"github.com/reaia/docgraph/pkg/chunker"
)

type fakeAIClient struct {
	response extractResponse
	err      error
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", f.err
}

func (f *fakeAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if f.err != nil {
		return f.err
	}
	*(out.(*extractResponse)) = f.response
	return nil
}

func (f *fakeAIClient) Metrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func (f *fakeAIClient) ResetMetrics() {}

func testChunk() chunker.Chunk {
	return chunker.Chunk{
		Text:     "Alice works at Acme.",
		Index:    2,
		Metadata: map[string]string{"source": "docs/acme.pdf", "page": "1"},
	}
}

func TestExtractTagsAndSource(t *testing.T) {
	client := &fakeAIClient{response: extractResponse{
		Nodes: []extractNode{
			{ID: "ALICE", Type: "Person", Description: "An employee"},
			{ID: "ACME", Type: "organization"},
		},
		Relationships: []extractRelationship{
			{SourceID: "ALICE", TargetID: "ACME", Type: "works at", Description: "Employment"},
		},
	}}

	e := NewExtractor(NewExtractorParams{Client: client})
	doc, err := e.Extract(context.Background(), testChunk())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(doc.Nodes) != 2 || len(doc.Relationships) != 1 {
		t.Fatalf("unexpected document shape: %d nodes, %d relationships", len(doc.Nodes), len(doc.Relationships))
	}
	for _, node := range doc.Nodes {
		if node.BaseLabel != BaseEntityLabel {
			t.Fatalf("node %q missing base label, got %q", node.ID, node.BaseLabel)
		}
	}
	if doc.Nodes[0].Label != "PERSON" || doc.Nodes[1].Label != "ORGANIZATION" {
		t.Fatalf("labels not normalized: %q, %q", doc.Nodes[0].Label, doc.Nodes[1].Label)
	}
	if doc.Relationships[0].Type != "WORKS_AT" {
		t.Fatalf("relationship type not normalized: %q", doc.Relationships[0].Type)
	}
	if doc.Nodes[0].Properties["description"] != "An employee" {
		t.Fatalf("description not carried: %v", doc.Nodes[0].Properties)
	}
	if doc.Source.Index != 2 || doc.Source.Metadata["source"] != "docs/acme.pdf" {
		t.Fatalf("source chunk not preserved: %+v", doc.Source)
	}
}

func TestExtractRejectsDanglingRelationship(t *testing.T) {
	client := &fakeAIClient{response: extractResponse{
		Nodes: []extractNode{
			{ID: "ALICE", Type: "PERSON"},
		},
		Relationships: []extractRelationship{
			{SourceID: "ALICE", TargetID: "NOBODY", Type: "KNOWS"},
		},
	}}

	e := NewExtractor(NewExtractorParams{Client: client})
	_, err := e.Extract(context.Background(), testChunk())

	var malformed *MalformedGraphError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedGraphError, got %v", err)
	}
	if malformed.ChunkIndex != 2 {
		t.Fatalf("expected chunk index 2 in error, got %d", malformed.ChunkIndex)
	}
}

func TestExtractRejectsEmptyNodeID(t *testing.T) {
	client := &fakeAIClient{response: extractResponse{
		Nodes: []extractNode{{ID: "   ", Type: "PERSON"}},
	}}

	e := NewExtractor(NewExtractorParams{Client: client})
	_, err := e.Extract(context.Background(), testChunk())

	var malformed *MalformedGraphError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedGraphError, got %v", err)
	}
}

func TestExtractPropagatesClientError(t *testing.T) {
	want := errors.New("model unavailable")
	e := NewExtractor(NewExtractorParams{Client: &fakeAIClient{err: want}})

	_, err := e.Extract(context.Background(), testChunk())
	if !errors.Is(err, want) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{
			name: "valid",
			doc: Document{
				Nodes: []Node{{ID: "A", Label: "PERSON"}, {ID: "B", Label: "ORGANIZATION"}},
				Relationships: []Relationship{
					{SourceID: "A", TargetID: "B", Type: "WORKS_AT"},
				},
			},
		},
		{
			name: "empty relationship type",
			doc: Document{
				Nodes:         []Node{{ID: "A", Label: "PERSON"}},
				Relationships: []Relationship{{SourceID: "A", TargetID: "A"}},
			},
			wantErr: true,
		},
		{
			name: "missing node label",
			doc: Document{
				Nodes: []Node{{ID: "A"}},
			},
			wantErr: true,
		},
		{
			name: "unknown source reference",
			doc: Document{
				Nodes: []Node{{ID: "B", Label: "ORGANIZATION"}},
				Relationships: []Relationship{
					{SourceID: "A", TargetID: "B", Type: "WORKS_AT"},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
