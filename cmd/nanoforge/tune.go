package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chenura999/nanoforge/internal/kernel"
	"github.com/chenura999/nanoforge/internal/opt"
	"github.com/chenura999/nanoforge/internal/optimizer"
)

var (
	tuneModel   string
	tuneBuckets int
	tuneIters   int
	tunePop     int
	tuneSeed    int64
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Search for better size bucket boundaries",
	Long: `Replays a trained model's recorded observations through candidate
bucket ladders and searches for the geometric ladder with the lowest
expected dispatch cost. The result is advisory; retrain a model with
the suggested ladder to adopt it.`,
	RunE: runTune,
}

func init() {
	tuneCmd.Flags().StringVar(&tuneModel, "model", "", "Model file providing observations (required)")
	tuneCmd.Flags().IntVar(&tuneBuckets, "buckets", optimizer.DefaultTuneOptions.BucketCount, "Number of buckets in the candidate ladder")
	tuneCmd.Flags().IntVar(&tuneIters, "iters", 200, "Search iterations")
	tuneCmd.Flags().IntVar(&tunePop, "pop", 30, "Search population size")
	tuneCmd.Flags().Int64Var(&tuneSeed, "seed", 42, "Search random seed")
	tuneCmd.MarkFlagRequired("model")

	rootCmd.AddCommand(tuneCmd)
}

func runTune(cmd *cobra.Command, args []string) error {
	registry := kernel.DefaultRegistry()
	bucketer, err := optimizer.NewBucketer(optimizer.DefaultBuckets())
	if err != nil {
		return err
	}
	optim, err := optimizer.New(bucketer, registry.Names())
	if err != nil {
		return err
	}
	if err := optim.Load(tuneModel); err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	observations := optim.Observations()
	if len(observations) == 0 {
		return fmt.Errorf("model has no recorded observations; run bench with --model first")
	}

	slog.Info("Tuning bucket boundaries",
		"observations", len(observations),
		"buckets", tuneBuckets,
		"iters", tuneIters)

	search := opt.NewMayfly(tuneIters, tunePop, tuneSeed)
	opts := optimizer.DefaultTuneOptions
	opts.BucketCount = tuneBuckets
	buckets, err := optimizer.TuneBoundaries(observations, registry.Len(), search, opts)
	if err != nil {
		return fmt.Errorf("tuning failed: %w", err)
	}

	fmt.Println("Suggested bucket ladder:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tLO\tHI")
	for _, b := range buckets {
		hi := "unbounded"
		if b.Hi != 0 {
			hi = fmt.Sprintf("%d", b.Hi)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", b.Label, b.Lo, hi)
	}
	return w.Flush()
}
