package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/planner"
)

// newTestStore creates an in-memory store for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPlan(id, op string, created time.Time) *planner.Plan {
	return &planner.Plan{
		ID:        id,
		Operation: op,
		Split:     planner.SplitPlan{SplitKey: "transcript", Subprompt: "Summarize {{ input.chunk_content }}"},
		Metadata:  planner.MetadataPlan{NeedsMetadata: false, Reason: "self contained"},
		Candidates: []planner.Candidate{{
			ChunkSize:   100,
			Peripherals: planner.PeripheralConfigs(100, 1000),
		}},
		CreatedAt: created,
	}
}

func TestSaveGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := testPlan("p1", "summarize", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Split.Subprompt != p.Split.Subprompt || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("Get() = %+v", got)
	}
	if len(got.Candidates) != 1 || len(got.Candidates[0].Peripherals) != len(p.Candidates[0].Peripherals) {
		t.Fatalf("candidates not round-tripped: %+v", got.Candidates)
	}
	for i, c := range got.Candidates[0].Peripherals {
		if !c.Equal(p.Candidates[0].Peripherals[i]) {
			t.Errorf("peripheral %d differs after reload", i)
		}
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveRequiresID(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(context.Background(), &planner.Plan{}); err == nil {
		t.Error("Expected error for plan without id")
	}
}

func TestListAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, op := range []string{"a", "b", "a"} {
		p := testPlan(string(rune('x'+i)), op, base.Add(time.Duration(i)*time.Hour))
		if err := s.Save(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "z" || all[2].ID != "x" {
		t.Errorf("Expected newest first, got %+v", all)
	}

	onlyA, err := s.List(ctx, "a", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyA) != 1 || onlyA[0].ID != "z" || onlyA[0].SplitKey != "transcript" {
		t.Errorf("unexpected filtered list %+v", onlyA)
	}

	if err := s.Delete(ctx, "z"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "z"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected deleted plan to be gone, got %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plans.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	ctx := context.Background()
	if err := s.Save(ctx, testPlan("p", "op", time.Now())); err != nil {
		t.Fatal(err)
	}
	s.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(ctx, "p"); err != nil {
		t.Errorf("plan not persisted: %v", err)
	}
}
