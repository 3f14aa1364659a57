package foundry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeSimilarity registers items with sequential ids and answers
// FindSimilar with a canned candidate list.
type fakeSimilarity struct {
	seq        int
	registered []RegisterPayload
	candidates []Candidate
}

func (f *fakeSimilarity) Register(_ context.Context, p RegisterPayload) (Registration, error) {
	f.seq++
	f.registered = append(f.registered, p)
	id := fmt.Sprintf("ext-%d", f.seq)
	return Registration{ExternalID: id, EmbeddingRef: id}, nil
}

func (f *fakeSimilarity) FindSimilar(context.Context, string, int) ([]Candidate, error) {
	return f.candidates, nil
}

type fakeNotifier struct {
	lost  []Item
	found []Item
	score float64
}

func (f *fakeNotifier) Notify(_ context.Context, lost, found Item, score float64) error {
	f.lost = append(f.lost, lost)
	f.found = append(f.found, found)
	f.score = score
	return nil
}

func validReport(itemType string) ReportInput {
	return ReportInput{
		ItemType:    itemType,
		Description: "black leather wallet",
		Location:    "Central Library",
		EventDate:   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		Contact:     Contact{Name: "Ana", Email: "ana@example.com", Phone: "555-0100"},
	}
}

func TestClient_ReportAndDiscover(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	res, err := c.ReportLost(ctx, validReport("wallet"))
	if err != nil {
		t.Fatalf("ReportLost: %v", err)
	}
	if res.Matching != "disabled" {
		t.Errorf("matching = %q, want disabled", res.Matching)
	}
	if res.Item.ReportType != ReportLost {
		t.Errorf("reportType = %q", res.Item.ReportType)
	}

	if _, err := c.ReportFound(ctx, validReport("keys")); err != nil {
		t.Fatalf("ReportFound: %v", err)
	}

	page, err := c.Discover(ctx, Query{ItemType: "wallet"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("total = %d, items = %d, want 1", page.Total, len(page.Items))
	}
	if page.Items[0].ID != res.Item.ID {
		t.Errorf("discovered %q, want %q", page.Items[0].ID, res.Item.ID)
	}

	got, err := c.Get(ctx, res.Item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Description != "black leather wallet" {
		t.Errorf("description = %q", got.Description)
	}
}

func TestClient_MatchRoundTrip(t *testing.T) {
	sim := &fakeSimilarity{}
	notifier := &fakeNotifier{}
	c, err := New(WithSimilarity(sim), WithNotifier(notifier))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	lost, err := c.ReportLost(ctx, validReport("wallet"))
	if err != nil {
		t.Fatalf("ReportLost: %v", err)
	}
	if lost.Matching != "registered" {
		t.Fatalf("lost matching = %q, want registered", lost.Matching)
	}
	if lost.Item.ExternalMatchID != "ext-1" {
		t.Fatalf("lost externalMatchId = %q", lost.Item.ExternalMatchID)
	}

	sim.candidates = []Candidate{{ExternalID: "ext-1", Score: 0.92}}

	found, err := c.ReportFound(ctx, validReport("wallet"))
	if err != nil {
		t.Fatalf("ReportFound: %v", err)
	}
	if found.Matching != "matched" {
		t.Fatalf("found matching = %q, want matched", found.Matching)
	}
	if len(found.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(found.Matches))
	}
	if found.Matches[0].LostItem.ID != lost.Item.ID {
		t.Errorf("matched lost id = %q, want %q", found.Matches[0].LostItem.ID, lost.Item.ID)
	}
	if found.Item.Status != StatusMatched {
		t.Errorf("found status = %q, want matched", found.Item.Status)
	}

	stored, err := c.Get(ctx, lost.Item.ID)
	if err != nil {
		t.Fatalf("Get lost: %v", err)
	}
	if stored.Status != StatusMatched {
		t.Errorf("stored lost status = %q, want matched", stored.Status)
	}

	if len(notifier.lost) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.lost))
	}
	if notifier.score != 0.92 {
		t.Errorf("score = %v, want 0.92", notifier.score)
	}
	if len(sim.registered) != 2 {
		t.Errorf("registered = %d payloads, want 2", len(sim.registered))
	}
}

func TestClient_ValidationAndNotFound(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, err := c.ReportLost(ctx, ReportInput{}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty report err = %v, want ErrValidation", err)
	}
	if _, err := c.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing err = %v, want ErrNotFound", err)
	}
	if _, err := c.Delete(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing err = %v, want ErrNotFound", err)
	}
	if err := c.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestClient_Delete(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	res, err := c.ReportFound(ctx, validReport("umbrella"))
	if err != nil {
		t.Fatalf("ReportFound: %v", err)
	}

	removed, err := c.Delete(ctx, res.Item.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.ID != res.Item.ID {
		t.Errorf("removed id = %q, want %q", removed.ID, res.Item.ID)
	}

	page, err := c.Discover(ctx, Query{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("total = %d after delete, want 0", page.Total)
	}
}
