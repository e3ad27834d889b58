package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chenura999/nanoforge/internal/evolve"
	"github.com/chenura999/nanoforge/internal/store"
)

var (
	evolveGenerations int
	evolvePopulation  int
	evolveSeed        int64
	evolveWorkers     int
	evolveMinSpeedup  float64
	evolveDataDir     string
	evolveNoPersist   bool
)

var evolveCmd = &cobra.Command{
	Use:   "evolve <script>",
	Short: "Evolve a faster equivalent of a script",
	Long: `Evolves the script through semantics-preserving mutations, verifying
every candidate against the original's outputs and keeping the fastest.
The run record and generation trace are persisted under the data
directory unless --no-persist is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvolve,
}

func init() {
	evolveCmd.Flags().IntVar(&evolveGenerations, "generations", 0, "Maximum generations (0 = config default)")
	evolveCmd.Flags().IntVar(&evolvePopulation, "pop", 0, "Population size (0 = config default)")
	evolveCmd.Flags().Int64Var(&evolveSeed, "seed", 0, "Random seed (0 = config default)")
	evolveCmd.Flags().IntVar(&evolveWorkers, "workers", 0, "Evaluation workers (0 = config default)")
	evolveCmd.Flags().Float64Var(&evolveMinSpeedup, "min-speedup", 0, "Speedup threshold to accept a mutant (0 = config default)")
	evolveCmd.Flags().StringVar(&evolveDataDir, "data-dir", "./data", "Base directory for run storage")
	evolveCmd.Flags().BoolVar(&evolveNoPersist, "no-persist", false, "Skip writing the run record and trace")

	rootCmd.AddCommand(evolveCmd)
}

func runEvolve(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	cfg := evolveConfigFromViper()
	cfg.Bench = benchOptionsFromViper()
	if evolveGenerations > 0 {
		cfg.Generations = evolveGenerations
	}
	if evolvePopulation > 0 {
		cfg.PopulationSize = evolvePopulation
	}
	if evolveSeed != 0 {
		cfg.Seed = evolveSeed
	}
	if evolveWorkers > 0 {
		cfg.Workers = evolveWorkers
	}
	if evolveMinSpeedup > 0 {
		cfg.MinSpeedup = evolveMinSpeedup
	}

	engine, err := evolve.New(cfg)
	if err != nil {
		return err
	}

	runID := store.NewRunID()
	var trace *store.TraceWriter
	if !evolveNoPersist {
		trace, err = store.NewTraceWriter(evolveDataDir, runID, false)
		if err != nil {
			return fmt.Errorf("failed to open trace: %w", err)
		}
		defer trace.Close()
		engine.OnGeneration = func(g evolve.Generation) {
			if err := trace.WriteGeneration(g); err != nil {
				slog.Warn("Failed to write trace entry", "runID", runID, "error", err)
			}
		}
	}

	slog.Info("Starting evolution",
		"runID", runID,
		"script", args[0],
		"generations", cfg.Generations,
		"population", cfg.PopulationSize,
		"seed", cfg.Seed)

	start := time.Now()
	result, err := engine.Evolve(cmd.Context(), string(source))
	if err != nil {
		return fmt.Errorf("evolution failed: %w", err)
	}
	elapsed := time.Since(start)

	if !evolveNoPersist {
		runStore, err := store.NewFSStore(evolveDataDir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		record := store.NewRunRecord(runID, result, cfg)
		if err := runStore.SaveRun(record); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
	}

	slog.Info("Evolution complete",
		"runID", runID,
		"elapsed", elapsed,
		"generations", result.Generations,
		"speedup", result.Speedup,
		"baseline_ns", result.BaselineNs,
		"best_ns", result.BestNs)

	if result.BestSource == result.OriginalSource {
		fmt.Printf("No faster equivalent found after %d generations (run %s)\n", result.Generations, runID)
	} else {
		fmt.Printf("Speedup %.2fx after %d generations (run %s)\n\n%s\n", result.Speedup, result.Generations, runID, result.BestSource)
	}
	return nil
}
