package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chenura999/nanoforge/internal/bench"
	"github.com/chenura999/nanoforge/internal/kernel"
	"github.com/chenura999/nanoforge/internal/optimizer"
)

var (
	benchOp     string
	benchSizes  string
	benchRounds int
	benchModel  string
	benchSeed   int64
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark kernel variants and train the dispatch model",
	Long: `Runs the select-measure-update loop: for each input size the dispatch
model picks a kernel variant, the variant is timed, and the observed
cost is fed back. Over enough rounds the model converges on the
fastest variant per size bucket. The trained model can be saved with
--model and inspected with the boundary command.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().StringVar(&benchOp, "op", "add", "Kernel operation: add, sum, scale")
	benchCmd.Flags().StringVar(&benchSizes, "sizes", "16,128,1024,16384,131072", "Comma-separated input sizes")
	benchCmd.Flags().IntVar(&benchRounds, "rounds", 12, "Measurement rounds per size")
	benchCmd.Flags().StringVar(&benchModel, "model", "", "Model file to load before and save after (optional)")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 42, "Seed for benchmark input data")

	rootCmd.AddCommand(benchCmd)
}

func parseSizes(s string) ([]uint64, error) {
	var sizes []uint64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", part, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("size must be positive, got 0")
		}
		sizes = append(sizes, n)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no sizes given")
	}
	return sizes, nil
}

// kernelRunner returns a closure executing the chosen operation of
// variant v over freshly seeded slices of the given size.
func kernelRunner(op string, v kernel.Variant, size uint64, rng *rand.Rand) (func() error, error) {
	a := make([]float64, size)
	b := make([]float64, size)
	dst := make([]float64, size)
	for i := range a {
		a[i] = rng.Float64()*200 - 100
		b[i] = rng.Float64()*200 - 100
	}

	var sink float64
	switch op {
	case "add":
		return func() error {
			v.Add(dst, a, b)
			return nil
		}, nil
	case "sum":
		return func() error {
			sink = v.Sum(a)
			_ = sink
			return nil
		}, nil
	case "scale":
		return func() error {
			v.Scale(dst, a, 1.0001)
			return nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	sizes, err := parseSizes(benchSizes)
	if err != nil {
		return err
	}
	if benchRounds < 1 {
		return fmt.Errorf("rounds must be at least 1, got %d", benchRounds)
	}

	registry := kernel.DefaultRegistry()
	features := kernel.Detect()
	mask := registry.EligibleMask(features)

	bucketer, err := optimizer.NewBucketer(optimizer.DefaultBuckets())
	if err != nil {
		return err
	}
	optim, err := optimizer.New(bucketer, registry.Names())
	if err != nil {
		return err
	}
	if benchModel != "" {
		if err := optim.Load(benchModel); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				slog.Info("No existing model, starting fresh", "path", benchModel)
			} else {
				return fmt.Errorf("failed to load model: %w", err)
			}
		}
	}

	slog.Info("Starting benchmark",
		"op", benchOp,
		"sizes", len(sizes),
		"rounds", benchRounds,
		"variants", registry.Names(),
		"avx2", features.AVX2,
		"neon", features.NEON)

	rng := rand.New(rand.NewSource(benchSeed))
	opts := benchOptionsFromViper()
	for _, size := range sizes {
		for round := 0; round < benchRounds; round++ {
			idx, err := optim.Select(size, mask)
			if err != nil {
				return fmt.Errorf("selection failed for size %d: %w", size, err)
			}
			variant, err := registry.Variant(idx)
			if err != nil {
				return err
			}
			fn, err := kernelRunner(benchOp, variant, size, rng)
			if err != nil {
				return err
			}
			nsPerOp, bytesPerOp, err := bench.MeasureAlloc(fn, opts)
			if err != nil {
				return fmt.Errorf("measurement failed for size %d variant %s: %w", size, variant.Name, err)
			}
			if err := optim.Update(size, idx, nsPerOp, bytesPerOp); err != nil {
				return fmt.Errorf("update failed for size %d: %w", size, err)
			}
		}
		slog.Debug("Size swept", "size", size, "bucket", optim.BucketLabel(size))
	}

	if benchModel != "" {
		if err := optim.Save(benchModel); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}
		slog.Info("Model saved", "path", benchModel)
	}

	printBoundary(optim)
	return nil
}
