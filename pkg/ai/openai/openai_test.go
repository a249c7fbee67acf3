package openai

import (
	"testing"

	"github.com/reaia/docgraph/pkg/ai"
)

func TestMetricsAccumulateAndReset(t *testing.T) {
	c := NewGraphOpenAIClient(NewGraphOpenAIClientParams{ExtractionModel: "gpt-4o-mini"})

	c.modifyMetrics(ai.ModelMetrics{InputTokens: 10, OutputTokens: 4, TotalTokens: 14, DurationMs: 120})
	c.modifyMetrics(ai.ModelMetrics{InputTokens: 5, OutputTokens: 1, TotalTokens: 6, DurationMs: 80})

	// Metrics and ResetMetrics are part of the ai.GraphAIClient contract.
	var client ai.GraphAIClient = c
	got := client.Metrics()
	if got.InputTokens != 15 || got.OutputTokens != 5 || got.TotalTokens != 20 || got.DurationMs != 200 {
		t.Fatalf("unexpected metrics: %+v", got)
	}

	client.ResetMetrics()
	if m := client.Metrics(); m != (ai.ModelMetrics{}) {
		t.Fatalf("expected zeroed metrics, got %+v", m)
	}
}
