// Package onemaxlab is the embedding API over the simulation engine: it
// builds representations and objectives, drives experiments, and maintains
// the run archive (store plus on-disk artifacts).
package onemaxlab

import (
	"context"
	"fmt"
	"math/bits"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"onemaxlab/internal/genotype"
	"onemaxlab/internal/model"
	"onemaxlab/internal/objective"
	"onemaxlab/internal/rep"
	"onemaxlab/internal/sim"
	"onemaxlab/internal/stats"
	"onemaxlab/internal/storage"
)

const (
	defaultResultsDir = "results"
	defaultDBPath     = "onemaxlab.db"
)

// Algorithm names accepted by RunRequest.
const (
	AlgorithmSA = string(sim.AlgorithmSA)
	AlgorithmES = string(sim.AlgorithmES)
)

// Representation names accepted by RunRequest.
const (
	RepresentationBinary = "binary"
	RepresentationGray   = "gray"
	RepresentationTable  = "table"
)

// Objective names accepted by RunRequest.
const (
	ObjectiveOneMax    = "onemax"
	ObjectiveCountOnes = "count_ones"
)

type Options struct {
	StoreKind  string
	DBPath     string
	ResultsDir string
}

type Client struct {
	store      storage.Store
	resultsDir string

	initOnce sync.Once
	initErr  error
	indexMu  sync.Mutex
}

func New(opts Options) (*Client, error) {
	if opts.DBPath == "" {
		opts.DBPath = defaultDBPath
	}
	if opts.ResultsDir == "" {
		opts.ResultsDir = defaultResultsDir
	}
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	return &Client{
		store:      store,
		resultsDir: opts.ResultsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// RunRequest configures one experiment. A zero MutationRate defaults to
// 1/Length; zero temperature fields fall back to the engine defaults.
type RunRequest struct {
	Algorithm          string
	Representation     string
	Table              []uint64
	Objective          string
	Target             uint64
	Length             int
	Units              int
	Generations        int
	Trajectories       int
	MutationRate       float64
	InitialTemperature float64
	TemperatureDecay   float64
	Seed               int64
	Workers            int
	RunID              string
	// Compare additionally runs the same configuration under the other
	// update rule and reports both convergence profiles.
	Compare      bool
	OnGeneration func(model.GenerationStats)
}

// CompareSide condenses one algorithm's outcome in a comparison run.
type CompareSide struct {
	RunID             string
	Algorithm         string
	FinalRatioOptimal float64
	Converged         int
	MeanFirstOptimal  *float64
}

type CompareSummary struct {
	SA CompareSide
	ES CompareSide
}

type RunSummary struct {
	RunID              string
	ArtifactsDir       string
	Generations        []model.GenerationStats
	Converged          int
	Trajectories       int
	MeanFirstOptimal   *float64
	StdDevFirstOptimal *float64
	Compare            *CompareSummary
}

// Run executes the configured experiment, persists the record and its
// per-generation statistics, and writes the on-disk artifacts.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.init(ctx); err != nil {
		return RunSummary{}, err
	}
	req, err := normalizeRunRequest(req)
	if err != nil {
		return RunSummary{}, err
	}

	if !req.Compare {
		return c.runOne(ctx, req)
	}

	baseID := req.RunID
	saReq, esReq := req, req
	saReq.Compare, esReq.Compare = false, false
	saReq.Algorithm, esReq.Algorithm = AlgorithmSA, AlgorithmES
	saReq.RunID, esReq.RunID = baseID+"-sa", baseID+"-es"
	// Progress callbacks would interleave across the two concurrent runs.
	saReq.OnGeneration, esReq.OnGeneration = nil, nil

	var saSummary, esSummary RunSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := c.runOne(gctx, saReq)
		saSummary = s
		return err
	})
	g.Go(func() error {
		s, err := c.runOne(gctx, esReq)
		esSummary = s
		return err
	})
	if err := g.Wait(); err != nil {
		return RunSummary{}, err
	}

	primary := saSummary
	if req.Algorithm == AlgorithmES {
		primary = esSummary
	}
	primary.Compare = &CompareSummary{
		SA: compareSide(saReq, saSummary),
		ES: compareSide(esReq, esSummary),
	}
	return primary, nil
}

func compareSide(req RunRequest, summary RunSummary) CompareSide {
	side := CompareSide{
		RunID:            summary.RunID,
		Algorithm:        req.Algorithm,
		Converged:        summary.Converged,
		MeanFirstOptimal: summary.MeanFirstOptimal,
	}
	if n := len(summary.Generations); n > 0 {
		side.FinalRatioOptimal = summary.Generations[n-1].RatioOptimal
	}
	return side
}

func normalizeRunRequest(req RunRequest) (RunRequest, error) {
	switch req.Algorithm {
	case AlgorithmSA, AlgorithmES:
	case "":
		req.Algorithm = AlgorithmSA
	default:
		return RunRequest{}, fmt.Errorf("unsupported algorithm: %q", req.Algorithm)
	}
	if req.Representation == "" {
		req.Representation = RepresentationBinary
	}
	if req.Objective == "" {
		req.Objective = ObjectiveOneMax
	}
	if req.Length <= 0 {
		return RunRequest{}, fmt.Errorf("genotype length must be > 0")
	}
	if req.Units <= 0 {
		req.Units = 1
	}
	if req.Generations <= 0 {
		return RunRequest{}, fmt.Errorf("generation count must be > 0")
	}
	if req.Trajectories <= 0 {
		return RunRequest{}, fmt.Errorf("trajectory count must be > 0")
	}
	if req.MutationRate == 0 {
		req.MutationRate = 1.0 / float64(req.Length)
	}
	if req.Workers <= 0 {
		req.Workers = runtime.GOMAXPROCS(0)
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	return req, nil
}

func (c *Client) runOne(ctx context.Context, req RunRequest) (RunSummary, error) {
	representation, err := buildRepresentation(req)
	if err != nil {
		return RunSummary{}, err
	}
	fitness, optimum, err := buildObjective(req, representation)
	if err != nil {
		return RunSummary{}, err
	}

	var onGeneration func(sim.GenerationStats)
	if req.OnGeneration != nil {
		callback := req.OnGeneration
		onGeneration = func(g sim.GenerationStats) {
			callback(model.GenerationStats{
				Generation:   g.Generation,
				RatioOptimal: g.RatioOptimal,
				MeanFitness:  g.MeanFitness,
			})
		}
	}

	driver, err := sim.NewDriver(sim.DriverConfig{
		Trajectory: sim.Config{
			Units:              req.Units,
			Length:             req.Length,
			Fitness:            fitness,
			MutationRate:       req.MutationRate,
			InitialTemperature: req.InitialTemperature,
			TemperatureDecay:   req.TemperatureDecay,
		},
		Algorithm:    sim.Algorithm(req.Algorithm),
		Trajectories: req.Trajectories,
		Generations:  req.Generations,
		Optimum:      optimum,
		Workers:      req.Workers,
		Seed:         req.Seed,
		OnGeneration: onGeneration,
	})
	if err != nil {
		return RunSummary{}, err
	}

	result, err := driver.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	generations := make([]model.GenerationStats, len(result.Generations))
	for i, g := range result.Generations {
		generations[i] = model.GenerationStats{
			Generation:   g.Generation,
			RatioOptimal: g.RatioOptimal,
			MeanFitness:  g.MeanFitness,
		}
	}

	summary := RunSummary{
		RunID:        req.RunID,
		Generations:  generations,
		Converged:    result.Converged,
		Trajectories: req.Trajectories,
	}
	if result.Converged > 0 {
		mean := result.MeanFirstOptimal
		stddev := result.StdDevFirstOptimal
		summary.MeanFirstOptimal = &mean
		summary.StdDevFirstOptimal = &stddev
	}

	artifactsDir, err := c.persistRun(ctx, req, summary)
	if err != nil {
		return RunSummary{}, err
	}
	summary.ArtifactsDir = artifactsDir
	return summary, nil
}

func buildRepresentation(req RunRequest) (rep.Func, error) {
	switch req.Representation {
	case RepresentationBinary:
		return rep.StdBinary, nil
	case RepresentationGray:
		return rep.BinaryReflectedGray, nil
	case RepresentationTable:
		if len(req.Table) != 1<<uint(req.Length) {
			return nil, fmt.Errorf("representation table needs %d entries for length %d, got %d",
				1<<uint(req.Length), req.Length, len(req.Table))
		}
		return rep.Table(req.Table)
	default:
		return nil, fmt.Errorf("unsupported representation: %q", req.Representation)
	}
}

func buildObjective(req RunRequest, representation rep.Func) (genotype.FitnessFunc, float64, error) {
	switch req.Objective {
	case ObjectiveOneMax:
		fn, err := objective.OneMax(req.Target, representation, req.Length)
		if err != nil {
			return nil, 0, err
		}
		return fn, objective.MaxFitness(req.Length), nil
	case ObjectiveCountOnes:
		return objective.CountOnes(), objective.MaxCountOnes(req.Length), nil
	default:
		return nil, 0, fmt.Errorf("unsupported objective: %q", req.Objective)
	}
}

func (c *Client) persistRun(ctx context.Context, req RunRequest, summary RunSummary) (string, error) {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	record := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:                 req.RunID,
		CreatedAtUTC:       createdAt,
		Algorithm:          req.Algorithm,
		Representation:     req.Representation,
		Objective:          req.Objective,
		Target:             req.Target,
		Length:             req.Length,
		Units:              req.Units,
		Generations:        req.Generations,
		Trajectories:       req.Trajectories,
		MutationRate:       req.MutationRate,
		InitialTemperature: req.InitialTemperature,
		TemperatureDecay:   req.TemperatureDecay,
		Seed:               req.Seed,
		Workers:            req.Workers,
		Converged:          summary.Converged,
		MeanFirstOptimal:   summary.MeanFirstOptimal,
		StdDevFirstOptimal: summary.StdDevFirstOptimal,
	}
	if n := len(summary.Generations); n > 0 {
		record.FinalRatioOptimal = summary.Generations[n-1].RatioOptimal
		record.FinalMeanFitness = summary.Generations[n-1].MeanFitness
	}

	if err := c.store.SaveRun(ctx, record); err != nil {
		return "", err
	}
	if err := c.store.SaveGenerationStats(ctx, record.ID, summary.Generations); err != nil {
		return "", err
	}

	artifactsDir, err := stats.WriteRunArtifacts(c.resultsDir, record, summary.Generations)
	if err != nil {
		return "", err
	}

	c.indexMu.Lock()
	defer c.indexMu.Unlock()
	err = stats.AppendRunIndex(c.resultsDir, stats.RunIndexEntry{
		RunID:             record.ID,
		Algorithm:         record.Algorithm,
		Representation:    record.Representation,
		Objective:         record.Objective,
		Target:            record.Target,
		Length:            record.Length,
		Trajectories:      record.Trajectories,
		Generations:       record.Generations,
		Seed:              record.Seed,
		FinalRatioOptimal: record.FinalRatioOptimal,
		CreatedAtUTC:      record.CreatedAtUTC,
	})
	if err != nil {
		return "", err
	}
	return artifactsDir, nil
}

type LocalityRequest struct {
	Name  string
	Table []uint64
}

type LocalityResult struct {
	Name     string
	Bits     int
	Locality uint64
}

// Locality validates a permutation table, measures its locality, and
// persists the measurement.
func (c *Client) Locality(ctx context.Context, req LocalityRequest) (LocalityResult, error) {
	if err := c.init(ctx); err != nil {
		return LocalityResult{}, err
	}
	if req.Name == "" {
		return LocalityResult{}, fmt.Errorf("locality name is required")
	}

	value, err := rep.Locality(req.Table)
	if err != nil {
		return LocalityResult{}, err
	}
	width := bits.Len(uint(len(req.Table))) - 1

	record := model.LocalityRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		Name:     req.Name,
		Bits:     width,
		Table:    req.Table,
		Locality: value,
	}
	if err := c.store.SaveLocality(ctx, record); err != nil {
		return LocalityResult{}, err
	}
	return LocalityResult{Name: req.Name, Bits: width, Locality: value}, nil
}

// RunItem is one row of the run listing.
type RunItem struct {
	RunID             string  `json:"run_id"`
	CreatedAtUTC      string  `json:"created_at_utc"`
	Algorithm         string  `json:"algorithm"`
	Representation    string  `json:"representation"`
	Objective         string  `json:"objective"`
	Target            uint64  `json:"target"`
	Length            int     `json:"length"`
	Trajectories      int     `json:"trajectories"`
	Generations       int     `json:"generations"`
	Seed              int64   `json:"seed"`
	FinalRatioOptimal float64 `json:"final_ratio_optimal"`
}

// Runs lists the durable run index, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunItem, error) {
	if err := c.init(ctx); err != nil {
		return nil, err
	}
	entries, err := stats.ListRunIndex(c.resultsDir)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	items := make([]RunItem, len(entries))
	for i, e := range entries {
		items[i] = RunItem{
			RunID:             e.RunID,
			CreatedAtUTC:      e.CreatedAtUTC,
			Algorithm:         e.Algorithm,
			Representation:    e.Representation,
			Objective:         e.Objective,
			Target:            e.Target,
			Length:            e.Length,
			Trajectories:      e.Trajectories,
			Generations:       e.Generations,
			Seed:              e.Seed,
			FinalRatioOptimal: e.FinalRatioOptimal,
		}
	}
	return items, nil
}

type HistoryRequest struct {
	RunID  string
	Latest bool
}

// History returns the per-generation statistics for one archived run,
// preferring the store and falling back to the on-disk artifacts.
func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.GenerationStats, error) {
	if err := c.init(ctx); err != nil {
		return nil, err
	}
	if req.RunID != "" && req.Latest {
		return nil, fmt.Errorf("use either a run id or latest, not both")
	}
	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.resultsDir)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("no runs recorded")
		}
		runID = entries[0].RunID
	}
	if runID == "" {
		return nil, fmt.Errorf("history requires a run id or latest")
	}

	history, ok, err := c.store.GetGenerationStats(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return history, nil
	}
	history, ok, err = stats.ReadGenerations(c.resultsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no history for run %s", runID)
	}
	return history, nil
}
