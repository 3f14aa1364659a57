// Package foundry is the embedded SDK for the lost and found item
// service: report items, query the corpus, and resolve matches without
// running the HTTP server.
package foundry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/foundry-app/foundry/internal/db/redis"
	itemrepo "github.com/foundry-app/foundry/internal/repository/item"
	"github.com/foundry-app/foundry/internal/transport/matcher"
	discoveruc "github.com/foundry-app/foundry/internal/usecase/discover"
	matchuc "github.com/foundry-app/foundry/internal/usecase/match"
	reportuc "github.com/foundry-app/foundry/internal/usecase/report"
)

const defaultReadinessTimeout = 10 * time.Second

// SimilarityClient is a pluggable similarity backend.
type SimilarityClient interface {
	Register(ctx context.Context, payload RegisterPayload) (Registration, error)
	FindSimilar(ctx context.Context, embeddingRef string, topK int) ([]Candidate, error)
}

// Notifier dispatches match notifications.
type Notifier interface {
	Notify(ctx context.Context, lost, found Item, score float64) error
}

// ReportInput is a new lost or found report.
type ReportInput = reportuc.Input

// ReportResult is the outcome of creating a report.
type ReportResult = reportuc.Result

// Query holds discovery filters.
type Query = discoveruc.Query

// Page is a discovery result.
type Page = discoveruc.Page

// itemStore is the union of store slices the services consume.
type itemStore interface {
	reportuc.Store
	discoveruc.Corpus
	matchuc.ItemStore
	Ping(ctx context.Context) error
}

// Client is the foundry SDK entry point.
type Client struct {
	dbStore   *dbRedis.Store
	items     itemStore
	reports   *reportuc.Service
	discovery *discoveruc.Service
}

// New creates a foundry Client. Without options it keeps items in memory
// with similarity matching disabled.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	c := &Client{}

	if len(cfg.addrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("foundry: create redis store: %w", err)
		}
		if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("foundry: database not ready: %w", err)
		}
		c.dbStore = store
		c.items = itemrepo.New(store, cfg.keyPrefix)
	} else {
		c.items = itemrepo.NewMemory()
	}

	similarity := cfg.similarity
	if similarity == nil && cfg.matcherBaseURL != "" {
		similarity = matcher.NewClient(&matcher.Config{
			BaseURL: cfg.matcherBaseURL,
			APIKey:  cfg.matcherAPIKey,
			Timeout: cfg.matcherTimeout,
		})
	}

	var notifier matchuc.Notifier = noopNotifier{}
	if cfg.notifier != nil {
		notifier = cfg.notifier
	}

	var simClient reportuc.SimilarityClient
	var resolver reportuc.Resolver
	if similarity != nil {
		simClient = similarity
		resolver = matchuc.New(similarity, c.items, notifier, zap.NewNop())
	}

	c.reports = reportuc.New(c.items, simClient, resolver, zap.NewNop())
	c.discovery = discoveruc.New(c.items)
	return c, nil
}

// Close releases the database connection, if any.
func (c *Client) Close() {
	if c.dbStore != nil {
		c.dbStore.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.items.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// ReportLost files a lost item report.
func (c *Client) ReportLost(ctx context.Context, in ReportInput) (ReportResult, error) {
	return c.reports.Create(ctx, ReportLost, in)
}

// ReportFound files a found item report and resolves matches against open
// lost reports.
func (c *Client) ReportFound(ctx context.Context, in ReportInput) (ReportResult, error) {
	return c.reports.Create(ctx, ReportFound, in)
}

// Get returns a single item by id.
func (c *Client) Get(ctx context.Context, id string) (Item, error) {
	return c.reports.Get(ctx, id)
}

// Delete removes an item and returns the removed record.
func (c *Client) Delete(ctx context.Context, id string) (Item, error) {
	return c.reports.Delete(ctx, id)
}

// Discover answers a filtered, sorted query over the item corpus.
func (c *Client) Discover(ctx context.Context, q Query) (Page, error) {
	return c.discovery.Do(ctx, q)
}

// noopNotifier drops notifications when no dispatcher is configured.
type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Item, Item, float64) error { return nil }
