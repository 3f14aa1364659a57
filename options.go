package foundry

import (
	"time"

	"github.com/foundry-app/foundry/internal/domain"
)

// Re-exported domain types so SDK users never import internal packages.
type (
	// Item is a reported lost or found item.
	Item = domain.Item
	// Contact is the reporter's contact information.
	Contact = domain.Contact
	// ReportType distinguishes lost reports from found reports.
	ReportType = domain.ReportType
	// Status is the lifecycle state of an item.
	Status = domain.Status
	// RegisterPayload is the item description sent to a similarity backend.
	RegisterPayload = domain.RegisterPayload
	// Registration is a similarity backend's receipt for a registered item.
	Registration = domain.Registration
	// Candidate is a single similarity hit.
	Candidate = domain.Candidate
)

// Report type and status values.
const (
	ReportLost  = domain.ReportLost
	ReportFound = domain.ReportFound

	StatusActive  = domain.StatusActive
	StatusMatched = domain.StatusMatched
	StatusClosed  = domain.StatusClosed
)

// Sentinel errors surfaced by the SDK.
var (
	ErrNotFound   = domain.ErrNotFound
	ErrValidation = domain.ErrValidation
	ErrUpstream   = domain.ErrUpstream
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs     []string
	password  string
	keyPrefix string

	matcherBaseURL string
	matcherAPIKey  string
	matcherTimeout time.Duration

	similarity SimilarityClient
	notifier   Notifier
}

// WithRedis stores items in Redis instead of the in-memory default.
func WithRedis(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
		c.password = password
	}
}

// WithKeyPrefix overrides the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithMatcher enables matching via an external similarity service.
func WithMatcher(baseURL, apiKey string) Option {
	return func(c *clientConfig) {
		c.matcherBaseURL = baseURL
		c.matcherAPIKey = apiKey
	}
}

// WithMatcherTimeout sets the request timeout for the external service.
func WithMatcherTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.matcherTimeout = d
	}
}

// WithSimilarity plugs in a custom similarity backend. Takes precedence
// over WithMatcher.
func WithSimilarity(s SimilarityClient) Option {
	return func(c *clientConfig) {
		c.similarity = s
	}
}

// WithNotifier sets the match notification dispatcher. Without one,
// matches are still recorded but nothing is dispatched.
func WithNotifier(n Notifier) Option {
	return func(c *clientConfig) {
		c.notifier = n
	}
}
