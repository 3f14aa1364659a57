// Package item implements the item store over Redis hashes with an
// insertion-order list and a secondary external-id index.
package item

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foundry-app/foundry/internal/db"
	"github.com/foundry-app/foundry/internal/domain"
)

const defaultKeyPrefix = "foundry:"

// store is the consumer interface for items (ISP).
type store interface {
	Ping(ctx context.Context) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LRem(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo is the Redis-backed item store.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates an item repository. An empty prefix falls back to the default.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix, now: time.Now}
}

// Insert assigns id and timestamps, persists the item and returns the
// stored record. Writes are reflected before the call returns.
func (r *Repo) Insert(ctx context.Context, item domain.Item) (domain.Item, error) {
	item.ID = uuid.NewString()
	now := r.now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = domain.StatusActive
	}

	if err := r.store.HSet(ctx, r.itemKey(item.ID), itemToFields(item)); err != nil {
		return domain.Item{}, fmt.Errorf("hset %s: %w", r.itemKey(item.ID), err)
	}
	if err := r.store.RPush(ctx, r.orderKey(), item.ID); err != nil {
		return domain.Item{}, fmt.Errorf("rpush order: %w", err)
	}
	return item, nil
}

// GetAll returns the full corpus in insertion order.
func (r *Repo) GetAll(ctx context.Context) ([]domain.Item, error) {
	ids, err := r.store.LRange(ctx, r.orderKey(), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("lrange order: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Item{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.itemKey(id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w", err)
	}

	items := make([]domain.Item, 0, len(ids))
	for i, fields := range hashes {
		if len(fields) == 0 {
			continue // id in order list without a hash: concurrently deleted
		}
		item, err := itemFromFields(ids[i], fields)
		if err != nil {
			return nil, fmt.Errorf("parse item %s: %w", ids[i], err)
		}
		items = append(items, item)
	}
	return items, nil
}

// GetByID returns an item by id or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (domain.Item, error) {
	fields, err := r.store.HGetAll(ctx, r.itemKey(id))
	if err != nil {
		return domain.Item{}, fmt.Errorf("hgetall %s: %w", r.itemKey(id), err)
	}
	if len(fields) == 0 {
		return domain.Item{}, domain.ErrNotFound
	}
	return itemFromFields(id, fields)
}

// Update merges a partial update and refreshes updatedAt. Returns whether
// a record existed. Invariant violations (status regression, external
// match id re-assignment) are returned as errors.
func (r *Repo) Update(ctx context.Context, id string, patch domain.Patch) (bool, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := patch.Validate(current); err != nil {
		return true, err
	}

	updated := patch.Apply(current)
	updated.UpdatedAt = r.now().UTC()

	if err := r.store.HSet(ctx, r.itemKey(id), itemToFields(updated)); err != nil {
		return true, fmt.Errorf("hset %s: %w", r.itemKey(id), err)
	}

	// Maintain the secondary index when the external match id is attached.
	if !current.Registered() && updated.Registered() {
		extKey := r.extKey(updated.ReportType, updated.ExternalMatchID)
		if err := r.store.Set(ctx, extKey, []byte(id)); err != nil {
			return true, fmt.Errorf("set %s: %w", extKey, err)
		}
	}
	return true, nil
}

// Delete removes and returns the item, or domain.ErrNotFound.
func (r *Repo) Delete(ctx context.Context, id string) (domain.Item, error) {
	item, err := r.GetByID(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}

	if err := r.store.Del(ctx, r.itemKey(id)); err != nil {
		return domain.Item{}, fmt.Errorf("del %s: %w", r.itemKey(id), err)
	}
	if err := r.store.LRem(ctx, r.orderKey(), id); err != nil {
		return domain.Item{}, fmt.Errorf("lrem order: %w", err)
	}
	if item.Registered() {
		if err := r.store.Del(ctx, r.extKey(item.ReportType, item.ExternalMatchID)); err != nil {
			return domain.Item{}, fmt.Errorf("del ext index: %w", err)
		}
	}
	return item, nil
}

// FindByExternalID resolves an item of the given report type by its
// similarity-service id via the secondary index.
func (r *Repo) FindByExternalID(
	ctx context.Context, reportType domain.ReportType, externalID string,
) (domain.Item, error) {
	idBytes, err := r.store.Get(ctx, r.extKey(reportType, externalID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, fmt.Errorf("get ext index: %w", err)
	}

	item, err := r.GetByID(ctx, string(idBytes))
	if err != nil {
		return domain.Item{}, err
	}
	if item.ReportType != reportType || item.ExternalMatchID != externalID {
		return domain.Item{}, domain.ErrNotFound
	}
	return item, nil
}

// Ping delegates to the underlying database connection.
func (r *Repo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func (r *Repo) itemKey(id string) string {
	return r.prefix + "item:" + id
}

func (r *Repo) orderKey() string {
	return r.prefix + "items:order"
}

func (r *Repo) extKey(rt domain.ReportType, externalID string) string {
	return fmt.Sprintf("%sitem:ext:%s:%s", r.prefix, rt, externalID)
}
