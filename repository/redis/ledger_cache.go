package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/heracore/backend/domain"
	"github.com/heracore/backend/repository"
)

type ledgerCache struct {
	client *redislib.Client
	next   repository.LedgerRepository
	prefix string
	ttl    time.Duration
}

// NewLedgerCache decorates a LedgerRepository with a read-through Redis
// cache. The durable store stays the arbiter for conflicts; the cache only
// short-circuits replay lookups for recently completed executions.
func NewLedgerCache(client *redislib.Client, next repository.LedgerRepository, ttl time.Duration) repository.LedgerRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ledgerCache{
		client: client,
		next:   next,
		prefix: "ledger:",
		ttl:    ttl,
	}
}

func (c *ledgerCache) Record(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	stored, err := c.next.Record(ctx, entry)
	if err != nil {
		return nil, err
	}
	c.set(ctx, stored)
	return stored, nil
}

func (c *ledgerCache) Lookup(ctx context.Context, organizationID, smartCode, idempotencyKey string) (*domain.LedgerEntry, error) {
	key := c.key(organizationID, smartCode, idempotencyKey)
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var entry domain.LedgerEntry
		if err := json.Unmarshal([]byte(raw), &entry); err == nil {
			return &entry, nil
		}
	}

	entry, err := c.next.Lookup(ctx, organizationID, smartCode, idempotencyKey)
	if err != nil {
		return nil, err
	}
	c.set(ctx, entry)
	return entry, nil
}

func (c *ledgerCache) PruneBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.LedgerEntry, error) {
	return c.next.PruneBefore(ctx, cutoff, limit)
}

func (c *ledgerCache) set(ctx context.Context, entry *domain.LedgerEntry) {
	if entry == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	// best effort; a cache miss just falls through to Postgres
	_ = c.client.Set(ctx, c.key(entry.OrganizationID, entry.SmartCode, entry.IdempotencyKey), payload, c.ttl).Err()
}

func (c *ledgerCache) key(organizationID, smartCode, idempotencyKey string) string {
	return fmt.Sprintf("%s%s:%s:%s", c.prefix, organizationID, smartCode, idempotencyKey)
}
