// Package stats writes and reads the on-disk results archive: a run index
// plus per-run JSON and CSV artifacts, and summary statistics over
// convergence generations.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"onemaxlab/internal/model"
)

const (
	runIndexFile    = "run_index.json"
	runRecordFile   = "run.json"
	generationsFile = "generations.csv"
)

// RunIndexEntry is one row of the results-directory run index.
type RunIndexEntry struct {
	RunID             string  `json:"run_id"`
	Algorithm         string  `json:"algorithm"`
	Representation    string  `json:"representation"`
	Objective         string  `json:"objective"`
	Target            uint64  `json:"target"`
	Length            int     `json:"length"`
	Trajectories      int     `json:"trajectories"`
	Generations       int     `json:"generations"`
	Seed              int64   `json:"seed"`
	FinalRatioOptimal float64 `json:"final_ratio_optimal"`
	CreatedAtUTC      string  `json:"created_at_utc"`
}

// WriteRunArtifacts persists one run under baseDir/<run-id>: the run record
// as JSON and the per-generation statistics as a tab-friendly CSV.
func WriteRunArtifacts(baseDir string, run model.RunRecord, generations []model.GenerationStats) (string, error) {
	if run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, runRecordFile), run); err != nil {
		return "", err
	}
	if err := writeGenerationsCSV(filepath.Join(runDir, generationsFile), generations); err != nil {
		return "", err
	}
	return runDir, nil
}

// ReadRunRecord loads one run record from baseDir/<run-id>/run.json.
func ReadRunRecord(baseDir, runID string) (model.RunRecord, bool, error) {
	if runID == "" {
		return model.RunRecord{}, false, fmt.Errorf("run id is required")
	}
	data, err := os.ReadFile(filepath.Join(baseDir, runID, runRecordFile))
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

// ReadGenerations loads the per-generation statistics CSV for a run.
func ReadGenerations(baseDir, runID string) ([]model.GenerationStats, bool, error) {
	if runID == "" {
		return nil, false, fmt.Errorf("run id is required")
	}
	f, err := os.Open(filepath.Join(baseDir, runID, generationsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		_ = f.Close()
	}()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return []model.GenerationStats{}, true, nil
	}

	stats := make([]model.GenerationStats, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != 3 {
			return nil, false, fmt.Errorf("malformed generations row: %v", row)
		}
		generation, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, false, err
		}
		ratio, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, false, err
		}
		mean, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, false, err
		}
		stats = append(stats, model.GenerationStats{
			Generation:   generation,
			RatioOptimal: ratio,
			MeanFitness:  mean,
		})
	}
	return stats, true, nil
}

// AppendRunIndex inserts or replaces one entry in the run index.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the run index sorted newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAtUTC == entries[j].CreatedAtUTC {
			return entries[i].RunID < entries[j].RunID
		}
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

func writeGenerationsCSV(path string, generations []model.GenerationStats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	if err := w.Write([]string{"generation", "ratio_optimal", "mean_fitness"}); err != nil {
		_ = f.Close()
		return err
	}
	for _, g := range generations {
		row := []string{
			strconv.Itoa(g.Generation),
			strconv.FormatFloat(g.RatioOptimal, 'g', -1, 64),
			strconv.FormatFloat(g.MeanFitness, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
