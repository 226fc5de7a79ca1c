package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/altura-labs/recommendation/internal/cache"
	"github.com/altura-labs/recommendation/internal/metrics"
	"github.com/altura-labs/recommendation/internal/models"
	"github.com/altura-labs/recommendation/internal/opensearch"
	"github.com/altura-labs/recommendation/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Searcher is the managed search capability.
type Searcher interface {
	NeuralSearch(ctx context.Context, q opensearch.NeuralQuery) ([]opensearch.Hit, error)
	UpsertDocument(ctx context.Context, index, id string, doc opensearch.Document) (*opensearch.IndexResult, error)
}

// ResultCache stores converted search results. Get returns cache.ErrMiss
// when nothing is cached.
type ResultCache interface {
	GetCachedSearchResults(ctx context.Context, key string, result interface{}) error
	CacheSearchResults(ctx context.Context, key string, results interface{}, expiration time.Duration) error
}

type Options struct {
	DefaultIndex  string
	DefaultTopK   int
	UpsertEnabled bool
	CacheTTL      time.Duration
}

type RecommendationService struct {
	searcher Searcher
	cache    ResultCache
	opts     Options
	logger   *logrus.Logger
}

// NewRecommendationService wires the search flow. A nil resultCache disables
// caching, so every request reaches the domain.
func NewRecommendationService(searcher Searcher, resultCache ResultCache, opts Options, logger *logrus.Logger) *RecommendationService {
	if opts.DefaultIndex == "" {
		opts.DefaultIndex = "neural-search-index"
	}
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 5
	}
	return &RecommendationService{
		searcher: searcher,
		cache:    resultCache,
		opts:     opts,
		logger:   logger,
	}
}

// Validate checks required fields in order: text, then modelId.
func (s *RecommendationService) Validate(req *models.SearchRequest) error {
	if req.Text == "" {
		return requiredField("text")
	}
	if req.ModelID == "" {
		return requiredField("modelId")
	}
	return nil
}

// Recommend finds the documents most similar to req.Text. requestID is
// stored with the upserted document when upserts are enabled.
func (s *RecommendationService) Recommend(ctx context.Context, req models.SearchRequest, requestID string) (*models.SearchResponse, error) {
	if err := s.Validate(&req); err != nil {
		return nil, err
	}

	query := opensearch.NeuralQuery{
		Index:   req.IndexName,
		Text:    req.Text,
		ModelID: req.ModelID,
		K:       s.opts.DefaultTopK,
	}
	if query.Index == "" {
		query.Index = s.opts.DefaultIndex
	}
	if req.TopK != nil {
		query.K = *req.TopK
	}

	s.logger.WithFields(logrus.Fields{
		"query":      utils.Truncate(req.Text, 100),
		"index":      query.Index,
		"top_k":      query.K,
		"request_id": requestID,
	}).Info("Performing neural search")

	results, err := s.search(ctx, query)
	if err != nil {
		return nil, err
	}

	response := &models.SearchResponse{
		Success:          true,
		SimilarDocuments: results,
	}

	if s.opts.UpsertEnabled {
		upsert, err := s.upsert(ctx, query.Index, req, requestID)
		if err != nil {
			return nil, err
		}
		response.UpsertResult = upsert
	}

	return response, nil
}

func (s *RecommendationService) search(ctx context.Context, query opensearch.NeuralQuery) ([]models.SearchResult, error) {
	cacheKey := utils.HashKey(query.Index, query.ModelID, strconv.Itoa(query.K), query.Text)

	if s.cache != nil {
		var cached []models.SearchResult
		err := s.cache.GetCachedSearchResults(ctx, cacheKey, &cached)
		switch {
		case err == nil:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			s.logger.Debug("Search results served from cache")
			return cached, nil
		case errors.Is(err, cache.ErrMiss):
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		default:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			s.logger.WithError(err).Warn("Failed to read search cache")
		}
	}

	hits, err := s.searcher.NeuralSearch(ctx, query)
	if err != nil {
		return nil, &UpstreamError{Op: "search", Err: err}
	}

	results := convertHits(hits)

	s.logger.WithField("results_count", len(results)).Debug("Neural search completed")

	if s.cache != nil {
		if err := s.cache.CacheSearchResults(ctx, cacheKey, results, s.opts.CacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache search results")
		}
	}

	return results, nil
}

func (s *RecommendationService) upsert(ctx context.Context, index string, req models.SearchRequest, requestID string) (*models.UpsertResult, error) {
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	doc := opensearch.Document{
		Text:     req.Text,
		Metadata: metadata,
	}
	if requestID != "" {
		doc.Timestamp = &requestID
	}

	s.logger.WithFields(logrus.Fields{
		"index": index,
		"id":    req.ID,
	}).Info("Upserting document")

	result, err := s.searcher.UpsertDocument(ctx, index, req.ID, doc)
	if err != nil {
		return nil, &UpstreamError{Op: "index", Err: err}
	}

	return &models.UpsertResult{
		ID:      result.ID,
		Result:  result.Result,
		Version: result.Version,
	}, nil
}

// convertHits keeps the domain's ranking order.
func convertHits(hits []opensearch.Hit) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, models.SearchResult{
			ID:       hit.ID,
			Score:    hit.Score,
			Text:     hit.Text,
			Metadata: hit.Metadata,
		})
	}
	return results
}
