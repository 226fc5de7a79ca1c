package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/altura-labs/recommendation/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	opensearchgo "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	requestsigner "github.com/opensearch-project/opensearch-go/v2/signer/awsv2"
	"github.com/sirupsen/logrus"
)

type Client struct {
	transport   opensearchapi.Transport
	vectorField string
	pipeline    string
	timeout     time.Duration
	logger      *logrus.Logger
}

type apiRequest interface {
	Do(ctx context.Context, transport opensearchapi.Transport) (*opensearchapi.Response, error)
}

// NewClient builds a client for the configured domain. With AWS auth every
// request is SigV4 signed for cfg.Service in cfg.Region.
func NewClient(ctx context.Context, cfg config.OpenSearchConfig, logger *logrus.Logger) (*Client, error) {
	httpTransport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		httpTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local clusters
	}

	osConfig := opensearchgo.Config{
		Addresses:    []string{cfg.Endpoint},
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    httpTransport,
		DisableRetry: true,
	}

	if cfg.AWSAuth {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		signer, err := requestsigner.NewSignerWithService(awsCfg, cfg.Service)
		if err != nil {
			return nil, fmt.Errorf("failed to create request signer: %w", err)
		}
		osConfig.Signer = signer
	}

	osClient, err := opensearchgo.NewClient(osConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"endpoint": cfg.Endpoint,
		"aws_auth": cfg.AWSAuth,
		"region":   cfg.Region,
	}).Info("OpenSearch client created")

	return newClient(osClient, cfg, logger), nil
}

func newClient(transport opensearchapi.Transport, cfg config.OpenSearchConfig, logger *logrus.Logger) *Client {
	return &Client{
		transport:   transport,
		vectorField: cfg.VectorField,
		pipeline:    cfg.IngestPipeline,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

func loadAWSConfig(ctx context.Context, cfg config.OpenSearchConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     cfg.AccessKeyID,
					SecretAccessKey: cfg.SecretAccessKey,
					SessionToken:    cfg.SessionToken,
				}, nil
			},
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

func (c *Client) NeuralSearch(ctx context.Context, q NeuralQuery) ([]Hit, error) {
	payload, err := json.Marshal(newSearchBody(c.vectorField, q))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search body: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{q.Index},
		Body:  bytes.NewReader(payload),
	}

	var response searchResponse
	if err := c.makeRequest(ctx, "search", req, payload, &response); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(response.Hits.Hits))
	for _, h := range response.Hits.Hits {
		hits = append(hits, h.toHit())
	}
	return hits, nil
}

// Index writes doc through the ingest pipeline and refreshes the index so the
// document is searchable immediately. An empty id lets the domain assign one.
func (c *Client) Index(ctx context.Context, index, id string, doc Document) (*IndexResult, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(payload),
		Pipeline:   c.pipeline,
		Refresh:    "true",
	}

	var result IndexResult
	if err := c.makeRequest(ctx, "index", req, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.makeRequest(ctx, "ping", opensearchapi.PingRequest{}, nil, nil)
}

func (c *Client) makeRequest(ctx context.Context, op string, req apiRequest, payload []byte, result interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.WithFields(logrus.Fields{
		"op":           op,
		"payload_size": len(payload),
	}).Debug("Making OpenSearch request")

	// Only log full payload for small requests to avoid spam
	if len(payload) > 0 && len(payload) < 1000 {
		c.logger.WithFields(logrus.Fields{
			"op":           op,
			"payload_json": string(payload),
		}).Debug("Request payload")
	}

	res, err := req.Do(ctx, c.transport)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.WithFields(logrus.Fields{
		"op":            op,
		"status_code":   res.StatusCode,
		"response_size": len(responseBody),
	}).Debug("OpenSearch response received")

	if res.IsError() {
		c.logger.WithFields(logrus.Fields{
			"op":            op,
			"status_code":   res.StatusCode,
			"response_body": string(responseBody),
		}).Debug("Response body")
		return newResponseError(res.StatusCode, responseBody)
	}

	if result != nil && len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, result); err != nil {
			return &DecodeError{Op: op, Err: err}
		}
	}

	return nil
}
