package sdk

import (
	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/usecase/retrieval"
)

type clientConfig struct {
	addrs    []string
	password string

	apiKey     string
	baseURL    string
	chatModel  string
	embedModel string
	dimensions int

	collection string
	keyPrefix  string
	limits     retrieval.Limits

	logger *zap.Logger
}

// Option configures the Client.
type Option func(*clientConfig)

// WithRedis sets the database addresses.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) { c.addrs = addrs }
}

// WithRedisPassword sets the database password.
func WithRedisPassword(password string) Option {
	return func(c *clientConfig) { c.password = password }
}

// WithOpenAI sets the provider credentials. baseURL may be empty for the
// default endpoint.
func WithOpenAI(apiKey, baseURL string) Option {
	return func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
	}
}

// WithModels overrides the completion and embedding models.
func WithModels(chatModel, embedModel string, dimensions int) Option {
	return func(c *clientConfig) {
		c.chatModel = chatModel
		c.embedModel = embedModel
		c.dimensions = dimensions
	}
}

// WithCollection sets the index namespace documents are stored and
// searched under.
func WithCollection(collection string) Option {
	return func(c *clientConfig) { c.collection = collection }
}

// WithKeyPrefix overrides the global storage key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) { c.keyPrefix = prefix }
}

// WithRetrievalLimits overrides retrieval fan-out and pooling limits.
func WithRetrievalLimits(limits retrieval.Limits) Option {
	return func(c *clientConfig) { c.limits = limits }
}

// WithLogger attaches a logger; the default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}
