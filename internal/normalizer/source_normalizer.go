// Package normalizer reconciles the heterogeneous citation shapes the QA
// engine returns into one canonical list of source references. The engine has
// shipped (at least) three mutually exclusive layouts for "the evidence behind
// an answer"; matching is priority ordered and never merges across shapes.
package normalizer

import (
	"encoding/json"

	"docchat-be/internal/entity"
)

// AnswerPayload is the raw "response" object of a /api/custom-chat reply.
// Exactly zero or one of Sources, Context and RetrievedChunks is expected to
// be present; the others stay nil.
type AnswerPayload struct {
	Answer          string          `json:"answer"`
	RequestId       string          `json:"request_id,omitempty"`
	Sources         json.RawMessage `json:"sources,omitempty"`
	Context         json.RawMessage `json:"context,omitempty"`
	RetrievedChunks json.RawMessage `json:"retrieved_chunks,omitempty"`
}

// rawChunk tolerates both casings the engine has used for the same fields.
// Snake_case is checked before camelCase, fixed order, no guessing.
type rawChunk struct {
	Content        string                 `json:"content"`
	Text           string                 `json:"text"`
	PageNumber     *int                   `json:"page_number"`
	PageNumberCaml *int                   `json:"pageNumber"`
	Score          *float64               `json:"score"`
	Similarity     *float64               `json:"similarity"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// ExtractSources resolves the payload's citation shape and returns the
// canonical reference list. A nil return means "no sources": consumers use
// presence/absence to decide whether to render a Sources affordance, so an
// empty match yields nil rather than an empty slice. Malformed shapes degrade
// silently to nil; a broken citation must never block the answer itself.
func ExtractSources(payload *AnswerPayload) []entity.SourceReference {
	if payload == nil {
		return nil
	}

	switch {
	case len(payload.Sources) > 0 && !isJSONNull(payload.Sources):
		return fromSources(payload.Sources)
	case len(payload.Context) > 0 && !isJSONNull(payload.Context):
		return fromContext(payload.Context)
	case len(payload.RetrievedChunks) > 0 && !isJSONNull(payload.RetrievedChunks):
		return fromChunkArray(payload.RetrievedChunks)
	}
	return nil
}

// fromSources passes an already-canonical array through, dropping entries
// with empty content.
func fromSources(raw json.RawMessage) []entity.SourceReference {
	var refs []entity.SourceReference
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil
	}
	var out []entity.SourceReference
	for _, ref := range refs {
		if ref.Content == "" {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// fromContext handles both documented context layouts: an array of chunk
// objects (or bare strings), or one plain string wrapped as a single
// reference.
func fromContext(raw json.RawMessage) []entity.SourceReference {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err == nil {
		var out []entity.SourceReference
		for _, el := range elements {
			if ref, ok := mapElement(el); ok {
				out = append(out, ref)
			}
		}
		return out
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return []entity.SourceReference{{Content: s}}
	}
	return nil
}

func fromChunkArray(raw json.RawMessage) []entity.SourceReference {
	var chunks []rawChunk
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return nil
	}
	var out []entity.SourceReference
	for _, c := range chunks {
		if ref, ok := mapChunk(c); ok {
			out = append(out, ref)
		}
	}
	return out
}

// mapElement maps one context array element, which may be a chunk object or
// a bare string.
func mapElement(el json.RawMessage) (entity.SourceReference, bool) {
	var c rawChunk
	if err := json.Unmarshal(el, &c); err == nil {
		return mapChunk(c)
	}

	var s string
	if err := json.Unmarshal(el, &s); err == nil && s != "" {
		return entity.SourceReference{Content: s}, true
	}
	return entity.SourceReference{}, false
}

func mapChunk(c rawChunk) (entity.SourceReference, bool) {
	content := c.Content
	if content == "" {
		content = c.Text
	}
	if content == "" {
		return entity.SourceReference{}, false
	}

	page := c.PageNumber
	if page == nil {
		page = c.PageNumberCaml
	}
	score := c.Score
	if score == nil {
		score = c.Similarity
	}

	return entity.SourceReference{
		Content:    content,
		PageNumber: page,
		Score:      score,
		Metadata:   c.Metadata,
	}, true
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
