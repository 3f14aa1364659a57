package discover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foundry-app/foundry/internal/domain"
)

type mockCorpus struct {
	items []domain.Item
	err   error
}

func (m *mockCorpus) GetAll(context.Context) ([]domain.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newService(items ...domain.Item) *Service {
	return New(&mockCorpus{items: items}).WithClock(fixedClock)
}

func item(id string, rt domain.ReportType, itemType, desc, loc string, createdAt time.Time) domain.Item {
	return domain.Item{
		ID:          id,
		ReportType:  rt,
		ItemType:    itemType,
		Description: desc,
		Location:    loc,
		Status:      domain.StatusActive,
		CreatedAt:   createdAt,
	}
}

func TestDo_EmptyCorpus(t *testing.T) {
	svc := newService()

	page, err := svc.Do(context.Background(), Query{DateRange: RangeToday})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("total = %d, want 0", page.Total)
	}
	if page.Items == nil || len(page.Items) != 0 {
		t.Errorf("items = %v, want empty non-nil slice", page.Items)
	}
}

func TestDo_NoFiltersReturnsEverything(t *testing.T) {
	svc := newService(
		item("a", domain.ReportLost, "wallet", "black wallet", "Library", testNow.Add(-time.Hour)),
		item("b", domain.ReportFound, "phone", "iPhone 12", "Cafeteria", testNow.Add(-2*time.Hour)),
	)

	page, err := svc.Do(context.Background(), Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Errorf("total = %d, items = %d, want 2/2", page.Total, len(page.Items))
	}
}

func TestDo_TotalEqualsLen(t *testing.T) {
	svc := newService(
		item("a", domain.ReportLost, "wallet", "black wallet", "Library", testNow),
		item("b", domain.ReportFound, "wallet", "brown wallet", "Gym", testNow),
		item("c", domain.ReportFound, "phone", "iPhone", "Gym", testNow),
	)

	queries := []Query{
		{},
		{Status: "lost"},
		{ItemType: "wallet"},
		{Search: "gym"},
		{Status: "found", ItemType: "wallet", Search: "brown"},
		{DateRange: RangeWeek},
	}
	for _, q := range queries {
		page, err := svc.Do(context.Background(), q)
		if err != nil {
			t.Fatalf("query %+v: %v", q, err)
		}
		if page.Total != len(page.Items) {
			t.Errorf("query %+v: total %d != len %d", q, page.Total, len(page.Items))
		}
	}
}

func TestDo_StatusAllIsNoOp(t *testing.T) {
	svc := newService(
		item("a", domain.ReportLost, "wallet", "w", "L", testNow),
		item("b", domain.ReportFound, "phone", "p", "C", testNow),
	)

	all, err := svc.Do(context.Background(), Query{Status: StatusAll})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	none, err := svc.Do(context.Background(), Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if all.Total != none.Total {
		t.Fatalf("status=all total %d != unfiltered total %d", all.Total, none.Total)
	}
	for i := range all.Items {
		if all.Items[i].ID != none.Items[i].ID {
			t.Errorf("position %d differs: %s vs %s", i, all.Items[i].ID, none.Items[i].ID)
		}
	}
}

func TestDo_StatusFilter(t *testing.T) {
	svc := newService(
		item("a", domain.ReportLost, "wallet", "w", "L", testNow),
		item("b", domain.ReportFound, "phone", "p", "C", testNow),
	)

	page, err := svc.Do(context.Background(), Query{Status: "lost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != "a" {
		t.Errorf("page = %+v", page)
	}
}

func TestDo_SearchCaseInsensitive(t *testing.T) {
	svc := newService(
		item("a", domain.ReportLost, "wallet", "black leather wallet", "Library", testNow),
		item("b", domain.ReportFound, "phone", "iPhone 12", "Cafeteria", testNow),
	)

	page, err := svc.Do(context.Background(), Query{Search: "WALLET"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != "a" {
		t.Errorf("page = %+v", page)
	}
}

func TestDo_SearchMatchesAnyField(t *testing.T) {
	svc := newService(
		item("a", domain.ReportLost, "wallet", "black leather", "Library", testNow),
		item("b", domain.ReportFound, "phone", "found near library", "Cafeteria", testNow),
		item("c", domain.ReportFound, "keys", "keychain", "Gym", testNow),
	)

	// "library" matches a via location and b via description.
	page, err := svc.Do(context.Background(), Query{Search: "library"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("total = %d, want 2", page.Total)
	}
}

func TestDo_DateRangeCutoffs(t *testing.T) {
	svc := newService(
		item("today", domain.ReportLost, "a", "", "", time.Date(2024, 6, 15, 1, 0, 0, 0, time.UTC)),
		item("thisweek", domain.ReportLost, "b", "", "", testNow.AddDate(0, 0, -3)),
		item("thismonth", domain.ReportLost, "c", "", "", testNow.AddDate(0, 0, -20)),
		item("old", domain.ReportLost, "d", "", "", testNow.AddDate(0, -4, 0)),
	)

	tests := []struct {
		keyword string
		want    int
	}{
		{RangeToday, 1},
		{RangeWeek, 2},
		{RangeMonth, 3},
		{RangeThreeMonths, 3},
		{"", 4},
		{"fortnight", 4}, // unknown keyword is a no-op
	}
	for _, tt := range tests {
		page, err := svc.Do(context.Background(), Query{DateRange: tt.keyword})
		if err != nil {
			t.Fatalf("range %q: %v", tt.keyword, err)
		}
		if page.Total != tt.want {
			t.Errorf("range %q: total = %d, want %d", tt.keyword, page.Total, tt.want)
		}
	}
}

func TestDo_SortNewestDefault(t *testing.T) {
	svc := newService(
		item("older", domain.ReportLost, "a", "", "", testNow.Add(-2*time.Hour)),
		item("newer", domain.ReportLost, "b", "", "", testNow.Add(-time.Hour)),
	)

	page, err := svc.Do(context.Background(), Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Items[0].ID != "newer" || page.Items[1].ID != "older" {
		t.Errorf("order = %s, %s; want newer, older", page.Items[0].ID, page.Items[1].ID)
	}

	page, err = svc.Do(context.Background(), Query{SortBy: SortOldest})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Items[0].ID != "older" || page.Items[1].ID != "newer" {
		t.Errorf("order = %s, %s; want older, newer", page.Items[0].ID, page.Items[1].ID)
	}
}

func TestDo_SortStableOnEqualCreatedAt(t *testing.T) {
	ts := testNow.Add(-time.Hour)
	svc := newService(
		item("first", domain.ReportLost, "a", "", "", ts),
		item("second", domain.ReportLost, "b", "", "", ts),
		item("third", domain.ReportLost, "c", "", "", ts),
	)

	for _, sortBy := range []string{SortNewest, SortOldest} {
		page, err := svc.Do(context.Background(), Query{SortBy: sortBy})
		if err != nil {
			t.Fatalf("sort %q: %v", sortBy, err)
		}
		got := []string{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID}
		want := []string{"first", "second", "third"}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("sort %q: position %d = %s, want %s (storage order)", sortBy, i, got[i], want[i])
			}
		}
	}
}

func TestDo_CorpusError(t *testing.T) {
	wantErr := errors.New("store down")
	svc := New(&mockCorpus{err: wantErr})

	if _, err := svc.Do(context.Background(), Query{}); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
