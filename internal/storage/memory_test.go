package storage

import (
	"context"
	"testing"

	"onemaxlab/internal/model"
)

func testRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: CurrentSchemaVersion,
			CodecVersion:  CurrentCodecVersion,
		},
		ID:             id,
		CreatedAtUTC:   createdAt,
		Algorithm:      "sa",
		Representation: "binary",
		Objective:      "onemax",
		Target:         7,
		Length:         3,
		Units:          1,
		Generations:    100,
		Trajectories:   50,
		Seed:           42,
	}
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	run := testRun("run-1", "2026-08-29T10:00:00Z")
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected run to be found")
	}
	if got.ID != run.ID || got.Target != run.Target || got.Trajectories != run.Trajectories {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run to report not found, got ok=%t err=%v", ok, err)
	}
}

func TestMemoryStoreListRunsOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, run := range []model.RunRecord{
		testRun("older", "2026-08-29T10:00:00Z"),
		testRun("newest", "2026-08-29T12:00:00Z"),
		testRun("middle", "2026-08-29T11:00:00Z"),
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"newest", "middle", "older"}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d", len(want), len(runs))
	}
	for i, id := range want {
		if runs[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, runs[i].ID)
		}
	}
}

func TestMemoryStoreGenerationStatsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := []model.GenerationStats{
		{Generation: 1, RatioOptimal: 0, MeanFitness: 3.5},
		{Generation: 2, RatioOptimal: 0.25, MeanFitness: 4.75},
	}
	if err := store.SaveGenerationStats(ctx, "run-1", stats); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := store.GetGenerationStats(ctx, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected stats to be found")
	}
	if len(got) != 2 || got[1] != stats[1] {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// The store must hold its own copy.
	got[0].RatioOptimal = 0.99
	again, _, err := store.GetGenerationStats(ctx, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again[0].RatioOptimal != 0 {
		t.Fatal("mutating a returned slice changed the stored stats")
	}

	if _, ok, err := store.GetGenerationStats(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing stats to report not found, got ok=%t err=%v", ok, err)
	}
}

func TestMemoryStoreLocalityRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := model.LocalityRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: CurrentSchemaVersion,
			CodecVersion:  CurrentCodecVersion,
		},
		Name:     "gray",
		Bits:     3,
		Table:    []uint64{0, 1, 3, 2, 7, 6, 4, 5},
		Locality: 32,
	}
	if err := store.SaveLocality(ctx, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := store.GetLocality(ctx, "gray")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected locality record to be found")
	}
	if got.Locality != 32 || len(got.Table) != 8 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	got.Table[0] = 99
	again, _, err := store.GetLocality(ctx, "gray")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Table[0] != 0 {
		t.Fatal("mutating a returned table changed the stored record")
	}
}

func TestMemoryStoreInitResets(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SaveRun(ctx, testRun("run-1", "2026-08-29T10:00:00Z")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Init(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := store.GetRun(ctx, "run-1"); ok {
		t.Fatal("expected Init to clear stored runs")
	}
}
