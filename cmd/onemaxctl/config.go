package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"onemaxlab/pkg/onemaxlab"
)

// loadRunRequestFromConfig reads a run configuration from a JSON file. Keys
// mirror the run command's flags; a "table" key may name a built-in table or
// hold an explicit permutation.
func loadRunRequestFromConfig(path string) (onemaxlab.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return onemaxlab.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return onemaxlab.RunRequest{}, err
	}

	var req onemaxlab.RunRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["algorithm"]); ok {
		req.Algorithm = v
	}
	if v, ok := asString(raw["representation"]); ok {
		req.Representation = v
	}
	if v, ok := asString(raw["objective"]); ok {
		req.Objective = v
	}
	if v, ok := asInt64(raw["target"]); ok {
		if v < 0 {
			return onemaxlab.RunRequest{}, fmt.Errorf("config target must be >= 0")
		}
		req.Target = uint64(v)
	}
	if v, ok := asInt(raw["length"]); ok {
		req.Length = v
	}
	if v, ok := asInt(raw["units"]); ok {
		req.Units = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asInt(raw["trajectories"]); ok {
		req.Trajectories = v
	}
	if v, ok := asFloat64(raw["mutation_rate"]); ok {
		req.MutationRate = v
	}
	if v, ok := asFloat64(raw["initial_temperature"]); ok {
		req.InitialTemperature = v
	}
	if v, ok := asFloat64(raw["temperature_decay"]); ok {
		req.TemperatureDecay = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asBool(raw["compare"]); ok {
		req.Compare = v
	}

	if tableValue, present := raw["table"]; present {
		table, length, err := resolveConfigTable(tableValue)
		if err != nil {
			return onemaxlab.RunRequest{}, err
		}
		req.Representation = onemaxlab.RepresentationTable
		req.Table = table
		req.Length = length
	}

	// Absent target means the all-ones optimum for the configured length.
	if _, present := raw["target"]; !present && req.Length > 0 {
		req.Target = uint64(1)<<uint(req.Length) - 1
	}
	return req, nil
}

func resolveConfigTable(value any) ([]uint64, int, error) {
	switch v := value.(type) {
	case string:
		table, ok := namedTables[v]
		if !ok {
			return nil, 0, fmt.Errorf("unknown table %q in config", v)
		}
		return table, tableWidth(table), nil
	case []any:
		table := make([]uint64, len(v))
		for i, entry := range v {
			n, ok := asInt64(entry)
			if !ok || n < 0 {
				return nil, 0, fmt.Errorf("config table entry %d is not a non-negative integer", i)
			}
			table[i] = uint64(n)
		}
		return table, tableWidth(table), nil
	default:
		return nil, 0, fmt.Errorf("config table must be a name or an array")
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asFloat64(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func asInt64(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
