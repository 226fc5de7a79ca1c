package opensearch

import (
	"context"
	"errors"
	"time"

	"github.com/altura-labs/recommendation/internal/metrics"
	"github.com/sirupsen/logrus"
)

type Service struct {
	provider *Provider
	breaker  CircuitBreaker
	logger   *logrus.Logger
}

func NewService(provider *Provider, breaker CircuitBreaker, logger *logrus.Logger) *Service {
	if breaker == nil {
		breaker = noopBreaker{}
	}
	return &Service{
		provider: provider,
		breaker:  breaker,
		logger:   logger,
	}
}

func (s *Service) NeuralSearch(ctx context.Context, q NeuralQuery) ([]Hit, error) {
	var hits []Hit
	err := s.call(ctx, "search", func(client *Client) error {
		var err error
		hits, err = client.NeuralSearch(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (s *Service) UpsertDocument(ctx context.Context, index, id string, doc Document) (*IndexResult, error) {
	var result *IndexResult
	err := s.call(ctx, "index", func(client *Client) error {
		var err error
		result, err = client.Index(ctx, index, id, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) Ping(ctx context.Context) error {
	client, err := s.provider.Get(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx)
}

func (s *Service) call(ctx context.Context, op string, fn func(*Client) error) error {
	start := time.Now()

	err := s.breaker.Execute(func() error {
		client, err := s.provider.Get(ctx)
		if err != nil {
			return err
		}

		err = fn(client)

		var transportErr *TransportError
		if errors.As(err, &transportErr) && ctx.Err() == nil {
			// The connection may be stale; rebuild on the next call.
			s.provider.Invalidate()
		}
		return err
	})

	metrics.ObserveUpstream(op, time.Since(start), err)

	if err != nil {
		s.logger.WithError(err).WithField("op", op).Error("OpenSearch call failed")
	}
	return err
}
