package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chenura999/nanoforge/internal/store"
)

var runsDataDir string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored evolution runs",
	Long: `List, inspect and delete persisted evolution runs, including their
per-generation traces.`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored runs",
	RunE:  runListRuns,
}

var showRunCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a run's record including both sources",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

var traceRunCmd = &cobra.Command{
	Use:   "trace <run-id>",
	Short: "Print a run's per-generation history",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceRun,
}

var deleteRunCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteRun,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(showRunCmd)
	runsCmd.AddCommand(traceRunCmd)
	runsCmd.AddCommand(deleteRunCmd)

	runsCmd.PersistentFlags().StringVar(&runsDataDir, "data-dir", "./data", "Base directory for run storage")
}

func runListRuns(cmd *cobra.Command, args []string) error {
	runStore, err := store.NewFSStore(runsDataDir)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tCREATED\tGENERATIONS\tSPEEDUP\tIMPROVED")
	for _, info := range infos {
		improved := "no"
		if info.Improved {
			improved = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2fx\t%s\n",
			info.RunID,
			info.CreatedAt.Format("2006-01-02 15:04:05"),
			info.Generations,
			info.Speedup,
			improved)
	}
	return w.Flush()
}

func runShowRun(cmd *cobra.Command, args []string) error {
	runStore, err := store.NewFSStore(runsDataDir)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}

	record, err := runStore.LoadRun(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	fmt.Printf("Run:         %s\n", record.RunID)
	fmt.Printf("Created:     %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Generations: %d\n", record.Generations)
	fmt.Printf("Speedup:     %.2fx (%.0f ns -> %.0f ns)\n", record.Speedup, record.BaselineNs, record.BestNs)
	fmt.Printf("\nOriginal:\n%s\n", record.OriginalSource)
	if record.BestSource != record.OriginalSource {
		fmt.Printf("\nBest:\n%s\n", record.BestSource)
	}
	return nil
}

func runTraceRun(cmd *cobra.Command, args []string) error {
	reader, err := store.NewTraceReader(runsDataDir, args[0])
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("Trace is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GEN\tBEST FITNESS\tAVG FITNESS\tVALID")
	for _, entry := range entries {
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%d\n",
			entry.Index, entry.BestFitness, entry.AvgFitness, entry.ValidCount)
	}
	return w.Flush()
}

func runDeleteRun(cmd *cobra.Command, args []string) error {
	runStore, err := store.NewFSStore(runsDataDir)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}
	if err := runStore.DeleteRun(args[0]); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	fmt.Printf("Deleted run %s\n", args[0])
	return nil
}
