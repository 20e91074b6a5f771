package entity

// SourceReference is a single retrieved evidence snippet backing an answer.
// Content is never empty once constructed; references without content are
// dropped by the normalizer instead of being kept as blank citations.
type SourceReference struct {
	Content    string                 `json:"content"`
	PageNumber *int                   `json:"pageNumber,omitempty"`
	Score      *float64               `json:"score,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
