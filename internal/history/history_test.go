package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dreamland/internal/db"
	"dreamland/internal/domain"
	"dreamland/internal/history"
	"dreamland/internal/migrate"
)

func newStore(t *testing.T) history.Store {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return history.Store{DB: conn}
}

func TestSaveAndGetBatch(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	items := []domain.CandidateItem{
		{Name: "Radio-Module-A", Type: "Item", Desc: "RF front end", IsEnabled: true},
		{Name: "Radio-Module-B", Type: "Part", Desc: "Signal processor", IsEnabled: false},
	}
	batch, err := store.SaveBatch(ctx, "Radio", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), items)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if batch.ID == "" || batch.ItemCount != 2 {
		t.Fatalf("unexpected batch: %+v", batch)
	}

	got, gotItems, err := store.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Radio" || got.CreatedAt != "2025-06-01T12:00:00Z" {
		t.Fatalf("unexpected batch: %+v", got)
	}
	if len(gotItems) != 2 || gotItems[0] != items[0] || gotItems[1] != items[1] {
		t.Fatalf("items not preserved: %+v", gotItems)
	}
}

func TestListBatchesNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"Radio", "Airplane", "Nuclear"} {
		if _, err := store.SaveBatch(ctx, name, base.Add(time.Duration(i)*time.Hour), nil); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	batches, err := store.ListBatches(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if batches[0].Name != "Nuclear" || batches[2].Name != "Radio" {
		t.Fatalf("wrong order: %+v", batches)
	}
}

func TestLatestBatch(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if _, _, err := store.LatestBatch(ctx); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if _, err := store.SaveBatch(ctx, "Radio", base, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	want, err := store.SaveBatch(ctx, "Airplane", base.Add(time.Hour), nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _, err := store.LatestBatch(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("expected %s, got %s", want.ID, got.ID)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	store := newStore(t)
	_, _, err := store.GetBatch(context.Background(), "no-such-id")
	if !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
