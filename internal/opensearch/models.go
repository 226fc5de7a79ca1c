package opensearch

// Request models
type NeuralQuery struct {
	Index   string
	Text    string
	ModelID string
	K       int
}

// searchBody is the neural query sent to <index>/_search. The domain embeds
// query_text with model_id and runs k-NN against the vector field.
type searchBody struct {
	Size   int                                   `json:"size"`
	Source bool                                  `json:"_source"`
	Query  map[string]map[string]neuralFieldQuery `json:"query"`
}

type neuralFieldQuery struct {
	QueryText string `json:"query_text"`
	ModelID   string `json:"model_id"`
	K         int    `json:"k"`
}

func newSearchBody(vectorField string, q NeuralQuery) searchBody {
	return searchBody{
		Size:   q.K,
		Source: true,
		Query: map[string]map[string]neuralFieldQuery{
			"neural": {
				vectorField: {
					QueryText: q.Text,
					ModelID:   q.ModelID,
					K:         q.K,
				},
			},
		},
	}
}

// Document is what gets indexed through the ingest pipeline; the pipeline
// adds the embedding.
type Document struct {
	Text      string                 `json:"text"`
	Metadata  map[string]interface{} `json:"metadata"`
	Timestamp *string                `json:"timestamp"`
}

// Response models
type searchResponse struct {
	Hits struct {
		Hits []rawHit `json:"hits"`
	} `json:"hits"`
}

type rawHit struct {
	ID     string    `json:"_id"`
	Score  float64   `json:"_score"`
	Source hitSource `json:"_source"`
}

// hitSource keeps text and metadata as stored, whatever their JSON type.
type hitSource struct {
	Text     interface{} `json:"text"`
	Metadata interface{} `json:"metadata"`
}

type Hit struct {
	ID       string
	Score    float64
	Text     interface{}
	Metadata interface{}
}

// toHit defaults metadata to {} only when it is absent or null.
func (h rawHit) toHit() Hit {
	metadata := h.Source.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return Hit{
		ID:       h.ID,
		Score:    h.Score,
		Text:     h.Source.Text,
		Metadata: metadata,
	}
}

type IndexResult struct {
	ID      string `json:"_id"`
	Result  string `json:"result"`
	Version int64  `json:"_version"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}
