package item

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foundry-app/foundry/internal/domain"
)

// Memory is a concurrency-safe in-memory item store for local runs and
// tests. Single-record updates are atomic under the store mutex.
type Memory struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.Item
	now   func() time.Time
}

// NewMemory creates an empty in-memory item store.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]domain.Item),
		now:   time.Now,
	}
}

// Insert assigns id and timestamps and stores the item.
func (m *Memory) Insert(_ context.Context, item domain.Item) (domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item.ID = uuid.NewString()
	now := m.now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = domain.StatusActive
	}

	m.order = append(m.order, item.ID)
	m.items[item.ID] = item
	return item, nil
}

// GetAll returns all items in insertion order.
func (m *Memory) GetAll(_ context.Context) ([]domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]domain.Item, 0, len(m.order))
	for _, id := range m.order {
		items = append(items, m.items[id])
	}
	return items, nil
}

// GetByID returns an item by id or domain.ErrNotFound.
func (m *Memory) GetByID(_ context.Context, id string) (domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}
	return item, nil
}

// Update merges a partial update under the store mutex. Returns whether a
// record existed.
func (m *Memory) Update(_ context.Context, id string, patch domain.Patch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.items[id]
	if !ok {
		return false, nil
	}
	if err := patch.Validate(current); err != nil {
		return true, err
	}

	updated := patch.Apply(current)
	updated.UpdatedAt = m.now().UTC()
	m.items[id] = updated
	return true, nil
}

// Delete removes and returns the item, or domain.ErrNotFound.
func (m *Memory) Delete(_ context.Context, id string) (domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}
	delete(m.items, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return item, nil
}

// FindByExternalID scans the corpus for an item of the given report type
// carrying the external id.
func (m *Memory) FindByExternalID(
	_ context.Context, reportType domain.ReportType, externalID string,
) (domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		item := m.items[id]
		if item.ReportType == reportType && item.ExternalMatchID == externalID {
			return item, nil
		}
	}
	return domain.Item{}, domain.ErrNotFound
}

// Ping always succeeds; the store lives in-process.
func (m *Memory) Ping(context.Context) error { return nil }
