package models

// AnswerPackage is the outcome of answer synthesis. It is always well formed: a failed
// completion yields a degraded package (apology text, ChunksUsed 0, ErrorDetail set)
// instead of an error.
type AnswerPackage struct {
	Answer      string        `json:"answer"`
	ChunksUsed  int           `json:"context_chunks_used"`
	Cited       []ScoredChunk `json:"cited_references"`
	Additional  []ScoredChunk `json:"additional_references"`
	Model       string        `json:"model"`
	ErrorDetail string        `json:"generation_error,omitempty"`
	// Cause is the completion error behind a degraded package.
	Cause error `json:"-"`
}

// Degraded reports whether generation failed and Answer holds the apology text.
func (p *AnswerPackage) Degraded() bool {
	return p.Cause != nil
}

// QueryResponse is the response for a query request. The embedded answer fields are
// present only when an answer was requested.
type QueryResponse struct {
	QueryID    string        `json:"query_id"`
	Query      string        `json:"query"`
	NumResults int           `json:"num_results"`
	Results    []ScoredChunk `json:"results"`
	QueryTime  int64         `json:"query_time_ms"`
	*AnswerPackage
}

// Stats describes the loaded corpus and index. Read-only introspection.
type Stats struct {
	TotalChunks         int    `json:"total_chunks"`
	TotalDocuments      int    `json:"total_documents"`
	IndexVectors        int    `json:"index_vectors"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
	Metric              string `json:"metric"`
	IndexType           string `json:"index_type"`
	DiskUsageBytes      *int64 `json:"disk_usage_bytes,omitempty"`
}
