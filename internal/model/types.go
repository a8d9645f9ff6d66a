package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord is one completed experiment: the full configuration plus the
// final aggregates an experimenter reads off.
type RunRecord struct {
	VersionedRecord
	ID                 string   `json:"id"`
	CreatedAtUTC       string   `json:"created_at_utc"`
	Algorithm          string   `json:"algorithm"`
	Representation     string   `json:"representation"`
	Objective          string   `json:"objective"`
	Target             uint64   `json:"target"`
	Length             int      `json:"length"`
	Units              int      `json:"units"`
	Generations        int      `json:"generations"`
	Trajectories       int      `json:"trajectories"`
	MutationRate       float64  `json:"mutation_rate"`
	InitialTemperature float64  `json:"initial_temperature"`
	TemperatureDecay   float64  `json:"temperature_decay"`
	Seed               int64    `json:"seed"`
	Workers            int      `json:"workers"`
	FinalRatioOptimal  float64  `json:"final_ratio_optimal"`
	FinalMeanFitness   float64  `json:"final_mean_fitness"`
	Converged          int      `json:"converged"`
	MeanFirstOptimal   *float64 `json:"mean_first_optimal,omitempty"`
	StdDevFirstOptimal *float64 `json:"stddev_first_optimal,omitempty"`
}

// GenerationStats is one generation round's aggregate across all
// trajectories, sampled before the round's update steps.
type GenerationStats struct {
	Generation   int     `json:"generation"`
	RatioOptimal float64 `json:"ratio_optimal"`
	MeanFitness  float64 `json:"mean_fitness"`
}

// LocalityRecord is one measured representation table.
type LocalityRecord struct {
	VersionedRecord
	Name     string   `json:"name"`
	Bits     int      `json:"bits"`
	Table    []uint64 `json:"table"`
	Locality uint64   `json:"locality"`
}
