// Package discover answers read queries over the item corpus with
// combinable filters and a stable createdAt sort.
package discover

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/foundry-app/foundry/internal/domain"
)

// Filter keyword values accepted by Query.
const (
	StatusAll = "all"

	RangeToday       = "today"
	RangeWeek        = "week"
	RangeMonth       = "month"
	RangeThreeMonths = "three-months"

	SortNewest = "newest"
	SortOldest = "oldest"
)

// Query holds the discovery filters. Absent or blank values are no-ops.
type Query struct {
	Search    string
	ItemType  string
	Status    string // all | lost | found
	DateRange string // today | week | month | three-months
	SortBy    string // newest (default) | oldest
}

// Page is a discovery result. Total always equals len(Items).
type Page struct {
	Items []domain.Item `json:"items"`
	Total int           `json:"total"`
}

// Service is the discovery query engine.
type Service struct {
	corpus Corpus
	now    func() time.Time
}

// New creates a discovery service.
func New(corpus Corpus) *Service {
	return &Service{corpus: corpus, now: time.Now}
}

// WithClock overrides the time source. Used by tests for date-range cutoffs.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Do answers a discovery query. Filters narrow in fixed precedence:
// status, itemType, free-text search, date range; then the stable sort.
// An empty corpus yields an empty page, never an error.
func (s *Service) Do(ctx context.Context, q Query) (Page, error) {
	items, err := s.corpus.GetAll(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("load corpus: %w", err)
	}

	items = filterStatus(items, q.Status)
	items = filterItemType(items, q.ItemType)
	items = filterSearch(items, q.Search)
	items = s.filterDateRange(items, q.DateRange)

	sortByCreatedAt(items, q.SortBy)

	if items == nil {
		items = []domain.Item{}
	}
	return Page{Items: items, Total: len(items)}, nil
}

func filterStatus(items []domain.Item, status string) []domain.Item {
	if status == "" || status == StatusAll {
		return items
	}
	out := items[:0:0]
	for _, item := range items {
		if string(item.ReportType) == status {
			out = append(out, item)
		}
	}
	return out
}

func filterItemType(items []domain.Item, itemType string) []domain.Item {
	if itemType == "" {
		return items
	}
	out := items[:0:0]
	for _, item := range items {
		if item.ItemType == itemType {
			out = append(out, item)
		}
	}
	return out
}

// filterSearch keeps items whose itemType, description or location
// contains the query, case-insensitively.
func filterSearch(items []domain.Item, search string) []domain.Item {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return items
	}
	out := items[:0:0]
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.ItemType), search) ||
			strings.Contains(strings.ToLower(item.Description), search) ||
			strings.Contains(strings.ToLower(item.Location), search) {
			out = append(out, item)
		}
	}
	return out
}

func (s *Service) filterDateRange(items []domain.Item, keyword string) []domain.Item {
	cutoff, ok := s.cutoff(keyword)
	if !ok {
		return items // unknown or empty keyword is a no-op
	}
	out := items[:0:0]
	for _, item := range items {
		if !item.CreatedAt.Before(cutoff) {
			out = append(out, item)
		}
	}
	return out
}

func (s *Service) cutoff(keyword string) (time.Time, bool) {
	now := s.now()
	switch keyword {
	case RangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case RangeWeek:
		return now.AddDate(0, 0, -7), true
	case RangeMonth:
		return now.AddDate(0, -1, 0), true
	case RangeThreeMonths:
		return now.AddDate(0, -3, 0), true
	default:
		return time.Time{}, false
	}
}

// sortByCreatedAt sorts in place. The sort is stable so that items with
// identical createdAt keep their storage order.
func sortByCreatedAt(items []domain.Item, sortBy string) {
	oldest := sortBy == SortOldest
	sort.SliceStable(items, func(i, j int) bool {
		if oldest {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
