package store

import (
	"context"
	"testing"

	"github.com/pipewright/pipewright/internal/expr"
	"github.com/pipewright/pipewright/internal/ir"
	"github.com/pipewright/pipewright/internal/pipeline"
)

func activeUsersPipeline() pipeline.Pipeline {
	return pipeline.Aggregation(
		pipeline.Match(map[string]ir.Value{"status": ir.String("active")}),
		pipeline.Limit(10),
	)
}

func TestSave_InsertsRecord(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec, inserted, err := s.Save(ctx, "active-users", activeUsersPipeline())
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !inserted {
		t.Error("expected inserted=true for first save")
	}
	if rec.ID == "" {
		t.Error("expected a generated UUID")
	}
	if rec.Name != "active-users" {
		t.Errorf("name = %q, expected %q", rec.Name, "active-users")
	}
	if rec.Flavor != pipeline.FlavorAggregation {
		t.Errorf("flavor = %v, expected aggregation", rec.Flavor)
	}
	if len(rec.Hash) != 64 {
		t.Errorf("hash length = %d, expected 64 hex chars", len(rec.Hash))
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected created_at to be populated")
	}

	want := `[{"$match":{"status":"active"}},{"$limit":10}]`
	if rec.Wire != want {
		t.Errorf("wire = %q, expected %q", rec.Wire, want)
	}
}

func TestSave_IdempotentForSameContent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, inserted, err := s.Save(ctx, "active-users", activeUsersPipeline())
	if err != nil {
		t.Fatalf("first Save() failed: %v", err)
	}
	if !inserted {
		t.Fatal("expected first save to insert")
	}

	second, inserted, err := s.Save(ctx, "active-users", activeUsersPipeline())
	if err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}
	if inserted {
		t.Error("expected inserted=false for identical content")
	}
	if second.ID != first.ID {
		t.Errorf("second save returned ID %s, expected existing %s", second.ID, first.ID)
	}

	history, err := s.History(ctx, "active-users")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected 1 revision after duplicate save, got %d", len(history))
	}
}

func TestSave_NewRevisionForChangedContent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, _, err := s.Save(ctx, "active-users", activeUsersPipeline()); err != nil {
		t.Fatalf("first Save() failed: %v", err)
	}

	changed := pipeline.Aggregation(
		pipeline.Match(map[string]ir.Value{"status": ir.String("active")}),
		pipeline.Limit(20),
	)
	_, inserted, err := s.Save(ctx, "active-users", changed)
	if err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}
	if !inserted {
		t.Error("expected changed content to insert a new revision")
	}

	history, err := s.History(ctx, "active-users")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 revisions, got %d", len(history))
	}
}

func TestSave_SameContentDifferentNames(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, inserted, err := s.Save(ctx, "name-a", activeUsersPipeline())
	if err != nil || !inserted {
		t.Fatalf("save name-a: inserted=%v err=%v", inserted, err)
	}
	b, inserted, err := s.Save(ctx, "name-b", activeUsersPipeline())
	if err != nil || !inserted {
		t.Fatalf("save name-b: inserted=%v err=%v", inserted, err)
	}

	if a.Hash != b.Hash {
		t.Error("same wire content should share a content hash across names")
	}
	if a.ID == b.ID {
		t.Error("distinct names must get distinct rows")
	}
}

func TestSave_RequiresName(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.Save(context.Background(), "", activeUsersPipeline())
	if err == nil {
		t.Error("expected error for empty name")
	}
}

func TestSave_UpdateFlavorRoundTrips(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	upd := pipeline.Update(
		pipeline.Set(map[string]expr.Expr{"tier": expr.Str("gold")}),
	)
	if _, _, err := s.Save(ctx, "promote", upd); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	rec, err := s.Latest(ctx, "promote")
	if err != nil {
		t.Fatalf("Latest() failed: %v", err)
	}
	if rec.Flavor != pipeline.FlavorUpdate {
		t.Errorf("flavor = %v, expected update", rec.Flavor)
	}
}
