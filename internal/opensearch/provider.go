package opensearch

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Factory builds a fresh client.
type Factory func(ctx context.Context) (*Client, error)

// Provider creates the client on first use and keeps it for later requests,
// the way a warm function instance reuses its connection. Invalidate drops
// the cached client so the next Get builds a new one.
type Provider struct {
	mu      sync.Mutex
	factory Factory
	client  *Client
	builds  int
	logger  *logrus.Logger
}

func NewProvider(factory Factory, logger *logrus.Logger) *Provider {
	return &Provider{
		factory: factory,
		logger:  logger,
	}
}

func (p *Provider) Get(ctx context.Context) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	client, err := p.factory(ctx)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	p.client = client
	p.builds++
	p.logger.WithField("builds", p.builds).Debug("OpenSearch client initialized")

	return client, nil
}

func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		p.logger.Warn("Dropping cached OpenSearch client")
	}
	p.client = nil
}

// Builds reports how many clients have been created so far.
func (p *Provider) Builds() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.builds
}
