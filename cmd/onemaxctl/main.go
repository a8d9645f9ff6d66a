package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/bits"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"onemaxlab/internal/model"
	"onemaxlab/internal/rep"
	"onemaxlab/internal/storage"
	"onemaxlab/pkg/onemaxlab"
)

const resultsDir = "results"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "locality":
		return runLocality(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "tables":
		return runTables(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	algorithm := fs.String("algorithm", onemaxlab.AlgorithmSA, "update rule: sa|es")
	representation := fs.String("rep", onemaxlab.RepresentationBinary, "representation: binary|gray|<table name>")
	objectiveName := fs.String("objective", onemaxlab.ObjectiveOneMax, "objective: onemax|count_ones")
	target := fs.Int64("target", -1, "target phenotype (-1 selects the all-ones optimum)")
	length := fs.Int("length", 3, "genotype length in bits")
	units := fs.Int("units", 1, "organisms per trajectory")
	generations := fs.Int("generations", 1000, "generations per trajectory")
	trajectories := fs.Int("trajectories", 1000, "independent trajectories")
	mutationRate := fs.Float64("mutation-rate", 0, "per-bit mutation rate for es (0 selects 1/length)")
	initialTemp := fs.Float64("initial-temperature", 0, "sa initial temperature (0 selects the default)")
	tempDecay := fs.Float64("temperature-decay", 0, "sa temperature decay factor (0 selects the default)")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	workers := fs.Int("workers", 0, "worker goroutines (0 selects GOMAXPROCS)")
	compare := fs.Bool("compare", false, "run the same configuration under both sa and es")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "onemaxlab.db", "sqlite database path")
	quiet := fs.Bool("quiet", false, "suppress per-generation output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req onemaxlab.RunRequest
	if *configPath != "" {
		loaded, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
		req = loaded
	}

	setFlags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})
	fromFlags := *configPath == ""

	if fromFlags || setFlags["algorithm"] {
		req.Algorithm = *algorithm
	}
	if fromFlags || setFlags["objective"] {
		req.Objective = *objectiveName
	}
	if fromFlags || setFlags["length"] {
		req.Length = *length
	}
	if fromFlags || setFlags["units"] {
		req.Units = *units
	}
	if fromFlags || setFlags["generations"] {
		req.Generations = *generations
	}
	if fromFlags || setFlags["trajectories"] {
		req.Trajectories = *trajectories
	}
	if fromFlags || setFlags["mutation-rate"] {
		req.MutationRate = *mutationRate
	}
	if fromFlags || setFlags["initial-temperature"] {
		req.InitialTemperature = *initialTemp
	}
	if fromFlags || setFlags["temperature-decay"] {
		req.TemperatureDecay = *tempDecay
	}
	if fromFlags || setFlags["seed"] {
		req.Seed = *seed
	}
	if fromFlags || setFlags["workers"] {
		req.Workers = *workers
	}
	if fromFlags || setFlags["compare"] {
		req.Compare = *compare
	}

	if fromFlags || setFlags["rep"] {
		switch *representation {
		case onemaxlab.RepresentationBinary, onemaxlab.RepresentationGray:
			req.Representation = *representation
			req.Table = nil
		default:
			table, ok := namedTables[*representation]
			if !ok {
				return fmt.Errorf("unknown representation %q (binary, gray, or one of: %s)",
					*representation, strings.Join(tableNames(), ", "))
			}
			req.Representation = onemaxlab.RepresentationTable
			req.Table = table
			req.Length = tableWidth(table)
		}
	}

	if fromFlags || setFlags["target"] {
		if *target < 0 {
			req.Target = uint64(1)<<uint(req.Length) - 1
		} else {
			req.Target = uint64(*target)
		}
	}

	client, err := onemaxlab.New(onemaxlab.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ResultsDir: resultsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	progress := !*quiet && !*compare
	if progress {
		fmt.Println("# generation\tratio_optimal\tmean_fitness")
		req.OnGeneration = func(g model.GenerationStats) {
			fmt.Printf("%d\t%.6f\t%.6f\n", g.Generation, g.RatioOptimal, g.MeanFitness)
		}
	}
	ticker := stderrTicker(*quiet, req.Generations)
	if req.OnGeneration == nil && ticker != nil {
		req.OnGeneration = ticker
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	printRunSummary(summary)
	return nil
}

// stderrTicker reports coarse progress on stderr when it is a terminal, so
// redirected stdout stays machine-readable.
func stderrTicker(quiet bool, generations int) func(model.GenerationStats) {
	if quiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	interval := generations / 10
	if interval == 0 {
		interval = 1
	}
	return func(g model.GenerationStats) {
		if g.Generation%interval == 0 || g.Generation == generations {
			fmt.Fprintf(os.Stderr, "generation %d/%d ratio_optimal=%.4f\n",
				g.Generation, generations, g.RatioOptimal)
		}
	}
}

func printRunSummary(summary onemaxlab.RunSummary) {
	if summary.Compare != nil {
		printCompareSide(summary.Compare.SA)
		printCompareSide(summary.Compare.ES)
		return
	}

	final := model.GenerationStats{}
	if n := len(summary.Generations); n > 0 {
		final = summary.Generations[n-1]
	}
	fmt.Printf("run_id=%s converged=%d/%d final_ratio_optimal=%.6f final_mean_fitness=%.6f\n",
		summary.RunID, summary.Converged, summary.Trajectories, final.RatioOptimal, final.MeanFitness)
	if summary.MeanFirstOptimal != nil {
		fmt.Printf("mean_first_optimal=%.3f stddev_first_optimal=%.3f\n",
			*summary.MeanFirstOptimal, *summary.StdDevFirstOptimal)
	}
	fmt.Printf("artifacts=%s\n", summary.ArtifactsDir)
}

func printCompareSide(side onemaxlab.CompareSide) {
	mean := "n/a"
	if side.MeanFirstOptimal != nil {
		mean = fmt.Sprintf("%.3f", *side.MeanFirstOptimal)
	}
	fmt.Printf("algorithm=%s run_id=%s converged=%d final_ratio_optimal=%.6f mean_first_optimal=%s\n",
		side.Algorithm, side.RunID, side.Converged, side.FinalRatioOptimal, mean)
}

func runLocality(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("locality", flag.ContinueOnError)
	tableName := fs.String("table", "", "named table to measure (empty measures the built-in demo set)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "onemaxlab.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit measurements as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := onemaxlab.New(onemaxlab.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ResultsDir: resultsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	var requests []onemaxlab.LocalityRequest
	if *tableName == "" {
		for _, demo := range localityDemoTables {
			requests = append(requests, onemaxlab.LocalityRequest{Name: demo.name, Table: demo.table})
		}
	} else {
		table, ok := namedTables[*tableName]
		if !ok {
			return fmt.Errorf("unknown table %q (one of: %s)", *tableName, strings.Join(tableNames(), ", "))
		}
		requests = append(requests, onemaxlab.LocalityRequest{Name: *tableName, Table: table})
	}

	results := make([]onemaxlab.LocalityResult, 0, len(requests))
	for _, req := range requests {
		result, err := client.Locality(ctx, req)
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, result := range results {
		fmt.Printf("name=%s bits=%d locality=%d\n", result.Name, result.Bits, result.Locality)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := onemaxlab.New(onemaxlab.Options{ResultsDir: resultsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	entries, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		age := e.CreatedAtUTC
		if created, err := time.Parse(time.RFC3339, e.CreatedAtUTC); err == nil {
			age = humanize.Time(created)
		}
		fmt.Printf("run_id=%s created=%s algorithm=%s rep=%s objective=%s length=%d trajectories=%d gens=%d seed=%d final_ratio_optimal=%.6f\n",
			e.RunID, age, e.Algorithm, e.Representation, e.Objective,
			e.Length, e.Trajectories, e.Generations, e.Seed, e.FinalRatioOptimal)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run to show")
	latest := fs.Bool("latest", false, "show the most recent run")
	jsonOut := fs.Bool("json", false, "emit history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := onemaxlab.New(onemaxlab.Options{ResultsDir: resultsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.History(ctx, onemaxlab.HistoryRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}
	fmt.Println("# generation\tratio_optimal\tmean_fitness")
	for _, g := range history {
		fmt.Printf("%d\t%.6f\t%.6f\n", g.Generation, g.RatioOptimal, g.MeanFitness)
	}
	return nil
}

func runTables(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("tables", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit tables as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	names := tableNames()
	if *jsonOut {
		type tableItem struct {
			Name     string   `json:"name"`
			Bits     int      `json:"bits"`
			Table    []uint64 `json:"table"`
			Locality uint64   `json:"locality"`
		}
		items := make([]tableItem, 0, len(names))
		for _, name := range names {
			table := namedTables[name]
			locality, err := rep.Locality(table)
			if err != nil {
				return err
			}
			items = append(items, tableItem{
				Name:     name,
				Bits:     bits.Len(uint(len(table))) - 1,
				Table:    table,
				Locality: locality,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	for _, name := range names {
		table := namedTables[name]
		locality, err := rep.Locality(table)
		if err != nil {
			return err
		}
		fmt.Printf("name=%s bits=%d locality=%d\n", name, bits.Len(uint(len(table)))-1, locality)
	}
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: onemaxctl <run|locality|runs|history|tables> [flags]", msg)
}
