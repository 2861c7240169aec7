// Package redis provides a read-through cache decorator for flow documents.
// The flow tree is shared by every user of an organization and read on every
// interpreter request, so it is the one hot document worth caching.
package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"
	"gottadoit/internal/domain/models/onboarding"
	"gottadoit/internal/domain/repositories"
)

// FlowCache wraps a FlowRepository with a Redis read-through cache.
// Cache failures are never surfaced: a broken cache degrades to the inner
// repository, a broken inner repository is reported as usual.
type FlowCache struct {
	inner  repositories.FlowRepository
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*FlowCache)

// WithTTL sets the expiration for cached flow documents.
func WithTTL(ttl time.Duration) Option {
	return func(c *FlowCache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the cache key prefix.
func WithPrefix(prefix string) Option {
	return func(c *FlowCache) {
		c.prefix = prefix
	}
}

// NewFlowCache creates a cache decorator from an existing client.
func NewFlowCache(inner repositories.FlowRepository, client *backend.Client, logger *slog.Logger, opts ...Option) repositories.FlowRepository {
	c := &FlowCache{
		inner:  inner,
		client: client,
		prefix: "gottadoit:flow:",
		ttl:    5 * time.Minute,
		logger: logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *FlowCache) key(orgID string) string {
	return c.prefix + orgID
}

// GetFlow returns the cached document when present, falling back to the
// inner repository and repopulating the cache on a miss.
func (c *FlowCache) GetFlow(ctx context.Context, orgID string) (*onboarding.FlowDocument, error) {
	val, err := c.client.Get(ctx, c.key(orgID)).Result()
	if err == nil {
		var doc onboarding.FlowDocument
		if err := json.Unmarshal([]byte(val), &doc); err == nil {
			return &doc, nil
		}
		c.logger.Warn("discarding undecodable cached flow", "org_id", orgID)
	} else if err != backend.Nil {
		c.logger.Warn("flow cache read failed", "org_id", orgID, "error", err)
	}

	doc, err := c.inner.GetFlow(ctx, orgID)
	if err != nil || doc == nil {
		return doc, err
	}

	c.set(ctx, doc)
	return doc, nil
}

// SaveFlow writes through to the inner repository, then refreshes the cache
// so every reader sees the new version immediately.
func (c *FlowCache) SaveFlow(ctx context.Context, doc *onboarding.FlowDocument, baseVersion *int64) error {
	if err := c.inner.SaveFlow(ctx, doc, baseVersion); err != nil {
		return err
	}

	c.set(ctx, doc)
	return nil
}

func (c *FlowCache) set(ctx context.Context, doc *onboarding.FlowDocument) {
	data, err := json.Marshal(doc)
	if err != nil {
		c.logger.Warn("flow cache encode failed", "org_id", doc.OrgID, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(doc.OrgID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("flow cache write failed", "org_id", doc.OrgID, "error", err)
	}
}
