package normalizer

import (
	"encoding/json"
	"testing"
)

func payloadWith(field, raw string) *AnswerPayload {
	p := &AnswerPayload{Answer: "answer"}
	switch field {
	case "sources":
		p.Sources = json.RawMessage(raw)
	case "context":
		p.Context = json.RawMessage(raw)
	case "retrieved_chunks":
		p.RetrievedChunks = json.RawMessage(raw)
	}
	return p
}

func TestExtractSources(t *testing.T) {
	tests := []struct {
		name      string
		field     string
		raw       string
		wantCount int
		wantNil   bool
	}{
		{
			name:      "canonical sources pass through",
			field:     "sources",
			raw:       `[{"content":"chunk one","pageNumber":2,"score":0.91}]`,
			wantCount: 1,
		},
		{
			name:    "empty sources array yields nil",
			field:   "sources",
			raw:     `[]`,
			wantNil: true,
		},
		{
			name:    "json null sources yields nil",
			field:   "sources",
			raw:     `null`,
			wantNil: true,
		},
		{
			name:    "sources entries without content are dropped",
			field:   "sources",
			raw:     `[{"pageNumber":4}]`,
			wantNil: true,
		},
		{
			name:      "context array of chunk objects",
			field:     "context",
			raw:       `[{"text":"a","page_number":3},{"content":"b"}]`,
			wantCount: 2,
		},
		{
			name:      "context array of bare strings",
			field:     "context",
			raw:       `["first passage","second passage"]`,
			wantCount: 2,
		},
		{
			name:      "context plain string wraps into one reference",
			field:     "context",
			raw:       `"the whole retrieved context"`,
			wantCount: 1,
		},
		{
			name:    "context empty string yields nil",
			field:   "context",
			raw:     `""`,
			wantNil: true,
		},
		{
			name:      "retrieved chunks with camelCase fields",
			field:     "retrieved_chunks",
			raw:       `[{"text":"chunk","pageNumber":7,"similarity":0.5}]`,
			wantCount: 1,
		},
		{
			name:    "retrieved chunks malformed yields nil",
			field:   "retrieved_chunks",
			raw:     `{"not":"an array"}`,
			wantNil: true,
		},
		{
			name:    "no shape present yields nil",
			field:   "",
			raw:     "",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSources(payloadWith(tt.field, tt.raw))
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if len(got) != tt.wantCount {
				t.Fatalf("expected %d references, got %d (%v)", tt.wantCount, len(got), got)
			}
		})
	}
}

func TestExtractSourcesFieldMapping(t *testing.T) {
	payload := payloadWith("context", `[{"text":"a","page_number":3}]`)

	refs := ExtractSources(payload)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}

	ref := refs[0]
	if ref.Content != "a" {
		t.Errorf("content = %q, want %q", ref.Content, "a")
	}
	if ref.PageNumber == nil || *ref.PageNumber != 3 {
		t.Errorf("pageNumber = %v, want 3", ref.PageNumber)
	}
	if ref.Score != nil {
		t.Errorf("score = %v, want absent", ref.Score)
	}
}

func TestExtractSourcesSnakeCaseWinsOverCamel(t *testing.T) {
	payload := payloadWith("retrieved_chunks", `[{"content":"snake","text":"camel","page_number":1,"pageNumber":9,"score":0.8,"similarity":0.1}]`)

	refs := ExtractSources(payload)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}

	ref := refs[0]
	if ref.Content != "snake" {
		t.Errorf("content = %q, want %q", ref.Content, "snake")
	}
	if ref.PageNumber == nil || *ref.PageNumber != 1 {
		t.Errorf("pageNumber = %v, want 1", ref.PageNumber)
	}
	if ref.Score == nil || *ref.Score != 0.8 {
		t.Errorf("score = %v, want 0.8", ref.Score)
	}
}

func TestExtractSourcesPriorityOrder(t *testing.T) {
	// All three shapes present at once is out of contract; sources wins.
	payload := &AnswerPayload{
		Answer:          "answer",
		Sources:         json.RawMessage(`[{"content":"from sources"}]`),
		Context:         json.RawMessage(`["from context"]`),
		RetrievedChunks: json.RawMessage(`[{"text":"from chunks"}]`),
	}

	refs := ExtractSources(payload)
	if len(refs) != 1 || refs[0].Content != "from sources" {
		t.Fatalf("expected sources shape to win, got %v", refs)
	}
}

func TestExtractSourcesNilPayload(t *testing.T) {
	if got := ExtractSources(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
