package stats

import (
	"testing"

	"onemaxlab/internal/model"
)

func testRunRecord(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		ID:              id,
		CreatedAtUTC:    createdAt,
		Algorithm:       "sa",
		Representation:  "binary",
		Objective:       "onemax",
		Target:          7,
		Length:          3,
		Units:           1,
		Generations:     2,
		Trajectories:    10,
		Seed:            42,
	}
}

func TestWriteAndReadRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	run := testRunRecord("run-1", "2026-08-29T10:00:00Z")
	generations := []model.GenerationStats{
		{Generation: 1, RatioOptimal: 0, MeanFitness: 3.5},
		{Generation: 2, RatioOptimal: 0.3, MeanFitness: 5.1},
	}

	runDir, err := WriteRunArtifacts(baseDir, run, generations)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if runDir == "" {
		t.Fatal("expected a run directory path")
	}

	loadedRun, ok, err := ReadRunRecord(baseDir, run.ID)
	if err != nil {
		t.Fatalf("read run record: %v", err)
	}
	if !ok {
		t.Fatal("expected the run record to exist")
	}
	if loadedRun.ID != run.ID || loadedRun.Target != run.Target {
		t.Fatalf("unexpected run record: %+v", loadedRun)
	}

	loadedGenerations, ok, err := ReadGenerations(baseDir, run.ID)
	if err != nil {
		t.Fatalf("read generations: %v", err)
	}
	if !ok {
		t.Fatal("expected the generations file to exist")
	}
	if len(loadedGenerations) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(loadedGenerations))
	}
	for i := range generations {
		if loadedGenerations[i] != generations[i] {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, loadedGenerations[i], generations[i])
		}
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), model.RunRecord{}, nil); err == nil {
		t.Fatal("expected error for an empty run id")
	}
}

func TestReadMissingArtifacts(t *testing.T) {
	baseDir := t.TempDir()

	if _, ok, err := ReadRunRecord(baseDir, "missing"); err != nil || ok {
		t.Fatalf("expected not found, got ok=%t err=%v", ok, err)
	}
	if _, ok, err := ReadGenerations(baseDir, "missing"); err != nil || ok {
		t.Fatalf("expected not found, got ok=%t err=%v", ok, err)
	}
}

func TestRunIndexInsertAndReplace(t *testing.T) {
	baseDir := t.TempDir()

	entries := []RunIndexEntry{
		{RunID: "older", Algorithm: "sa", CreatedAtUTC: "2026-08-29T10:00:00Z"},
		{RunID: "newest", Algorithm: "es", CreatedAtUTC: "2026-08-29T12:00:00Z"},
		{RunID: "middle", Algorithm: "sa", CreatedAtUTC: "2026-08-29T11:00:00Z"},
	}
	for _, entry := range entries {
		if err := AppendRunIndex(baseDir, entry); err != nil {
			t.Fatalf("append index: %v", err)
		}
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	want := []string{"newest", "middle", "older"}
	if len(index) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(index))
	}
	for i, id := range want {
		if index[i].RunID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, index[i].RunID)
		}
	}

	// Re-appending a run replaces its entry instead of duplicating it.
	if err := AppendRunIndex(baseDir, RunIndexEntry{
		RunID:             "middle",
		Algorithm:         "es",
		CreatedAtUTC:      "2026-08-29T11:00:00Z",
		FinalRatioOptimal: 0.75,
	}); err != nil {
		t.Fatalf("append index: %v", err)
	}

	index, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(index) != 3 {
		t.Fatalf("expected 3 entries after replace, got %d", len(index))
	}
	if index[1].Algorithm != "es" || index[1].FinalRatioOptimal != 0.75 {
		t.Fatalf("expected the middle entry to be replaced: %+v", index[1])
	}
}

func TestListRunIndexEmptyDirectory(t *testing.T) {
	index, err := ListRunIndex(t.TempDir())
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(index) != 0 {
		t.Fatalf("expected an empty index, got %d entries", len(index))
	}
}
