package models

// SearchRequest is the inbound body. TopK is a pointer so an absent value
// can be told apart from an explicit zero.
type SearchRequest struct {
	Text      string                 `json:"text"`
	ID        string                 `json:"id,omitempty"`
	IndexName string                 `json:"indexName,omitempty"`
	ModelID   string                 `json:"modelId"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TopK      *int                   `json:"topK,omitempty"`
}

// SearchResult carries text and metadata exactly as the index stored them.
type SearchResult struct {
	ID       string      `json:"id"`
	Score    float64     `json:"score"`
	Text     interface{} `json:"text"`
	Metadata interface{} `json:"metadata"`
}

type UpsertResult struct {
	ID      string `json:"id"`
	Result  string `json:"result"`
	Version int64  `json:"version"`
}

type SearchResponse struct {
	Success          bool           `json:"success"`
	SimilarDocuments []SearchResult `json:"similarDocuments"`
	UpsertResult     *UpsertResult  `json:"upsertResult,omitempty"`
}

type HealthResponse struct {
	Status    string          `json:"status"`
	Service   string          `json:"service"`
	Timestamp string          `json:"timestamp"`
	Services  []ServiceHealth `json:"services"`
	Uptime    string          `json:"uptime"`
}

type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}
