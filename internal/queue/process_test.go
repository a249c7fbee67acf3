package queue

import (
	"context"
	"testing"
)

func TestProcessIngestMessageRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{"not json", "source_dir=/data"},
		{"missing source dir", `{"message":"Ingestion requested"}`},
		{"empty source dir", `{"source_dir":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ProcessIngestMessage(context.Background(), nil, tt.msg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
