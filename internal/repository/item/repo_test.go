package item

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foundry-app/foundry/internal/db"
	"github.com/foundry-app/foundry/internal/domain"
)

func sampleFields(rt domain.ReportType) map[string]string {
	return map[string]string{
		fieldReportType:  string(rt),
		fieldItemType:    "wallet",
		fieldDescription: "black leather wallet",
		fieldLocation:    "Library",
		fieldEventDate:   "2024-01-02T00:00:00Z",
		fieldStatus:      string(domain.StatusActive),
		fieldCreatedAt:   "2024-01-02T10:00:00Z",
		fieldUpdatedAt:   "2024-01-02T10:00:00Z",
	}
}

func TestRepoInsert_WritesHashAndOrder(t *testing.T) {
	var gotKey string
	var gotFields map[string]string
	var pushed []string

	store := &mockStore{
		hsetFn: func(_ context.Context, key string, fields map[string]string) error {
			gotKey = key
			gotFields = fields
			return nil
		},
		rpushFn: func(_ context.Context, _ string, values ...string) error {
			pushed = append(pushed, values...)
			return nil
		},
	}
	repo := New(store, "test:")

	stored, err := repo.Insert(context.Background(), domain.Item{
		ReportType:  domain.ReportFound,
		ItemType:    "wallet",
		Description: "black leather wallet",
		Location:    "Library",
		EventDate:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("expected assigned id")
	}
	if gotKey != "test:item:"+stored.ID {
		t.Errorf("hash key = %q", gotKey)
	}
	if gotFields[fieldReportType] != "found" {
		t.Errorf("report_type = %q", gotFields[fieldReportType])
	}
	if len(pushed) != 1 || pushed[0] != stored.ID {
		t.Errorf("order push = %v", pushed)
	}
}

func TestRepoGetByID_NotFound(t *testing.T) {
	store := &mockStore{
		hgetAllFn: func(context.Context, string) (map[string]string, error) {
			return map[string]string{}, nil
		},
	}
	repo := New(store, "")

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepoGetAll_SkipsDeletedIDs(t *testing.T) {
	store := &mockStore{
		lrangeFn: func(context.Context, string, int64, int64) ([]string, error) {
			return []string{"a", "b"}, nil
		},
		hgetAllMultiF: func(_ context.Context, keys []string) ([]map[string]string, error) {
			// "b" deleted concurrently: empty hash
			return []map[string]string{sampleFields(domain.ReportLost), {}}, nil
		},
	}
	repo := New(store, "")

	items, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "a" {
		t.Errorf("items = %+v", items)
	}
}

func TestRepoUpdate_MissingReturnsFalse(t *testing.T) {
	store := &mockStore{
		hgetAllFn: func(context.Context, string) (map[string]string, error) {
			return map[string]string{}, nil
		},
	}
	repo := New(store, "")

	desc := "x"
	existed, err := repo.Update(context.Background(), "missing", domain.Patch{Description: &desc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if existed {
		t.Fatal("expected existed=false")
	}
}

func TestRepoUpdate_AttachesExternalIndex(t *testing.T) {
	var setKey, setVal string
	store := &mockStore{
		hgetAllFn: func(context.Context, string) (map[string]string, error) {
			return sampleFields(domain.ReportLost), nil
		},
		setFn: func(_ context.Context, key string, value []byte) error {
			setKey = key
			setVal = string(value)
			return nil
		},
	}
	repo := New(store, "test:")

	extID := "ext-1"
	existed, err := repo.Update(context.Background(), "item-1", domain.Patch{ExternalMatchID: &extID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !existed {
		t.Fatal("expected existed=true")
	}
	if setKey != "test:item:ext:lost:ext-1" {
		t.Errorf("ext index key = %q", setKey)
	}
	if setVal != "item-1" {
		t.Errorf("ext index value = %q", setVal)
	}
}

func TestRepoUpdate_StatusRegression(t *testing.T) {
	fields := sampleFields(domain.ReportLost)
	fields[fieldStatus] = string(domain.StatusMatched)
	store := &mockStore{
		hgetAllFn: func(context.Context, string) (map[string]string, error) {
			return fields, nil
		},
	}
	repo := New(store, "")

	active := domain.StatusActive
	_, err := repo.Update(context.Background(), "item-1", domain.Patch{Status: &active})
	if !errors.Is(err, domain.ErrStatusRegression) {
		t.Fatalf("expected ErrStatusRegression, got %v", err)
	}
}

func TestRepoFindByExternalID(t *testing.T) {
	fields := sampleFields(domain.ReportLost)
	fields[fieldExternalID] = "ext-1"
	store := &mockStore{
		getFn: func(_ context.Context, key string) ([]byte, error) {
			if key != "foundry:item:ext:lost:ext-1" {
				return nil, db.ErrKeyNotFound
			}
			return []byte("item-1"), nil
		},
		hgetAllFn: func(context.Context, string) (map[string]string, error) {
			return fields, nil
		},
	}
	repo := New(store, "")

	got, err := repo.FindByExternalID(context.Background(), domain.ReportLost, "ext-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "item-1" {
		t.Errorf("id = %q", got.ID)
	}

	if _, err := repo.FindByExternalID(context.Background(), domain.ReportFound, "ext-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong report type, got %v", err)
	}
}

func TestRepoDelete_NotFound(t *testing.T) {
	store := &mockStore{
		hgetAllFn: func(context.Context, string) (map[string]string, error) {
			return map[string]string{}, nil
		},
	}
	repo := New(store, "")

	if _, err := repo.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
