package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chenura999/nanoforge/internal/kernel"
	"github.com/chenura999/nanoforge/internal/optimizer"
)

var boundaryModel string

var boundaryCmd = &cobra.Command{
	Use:   "boundary",
	Short: "Print the learned dispatch decision boundary",
	Long: `Loads a trained model and prints, per size bucket, the variant the
dispatcher would pick and how confident it is in that choice.`,
	RunE: runBoundary,
}

func init() {
	boundaryCmd.Flags().StringVar(&boundaryModel, "model", "", "Model file to inspect (required)")
	boundaryCmd.MarkFlagRequired("model")

	rootCmd.AddCommand(boundaryCmd)
}

func runBoundary(cmd *cobra.Command, args []string) error {
	registry := kernel.DefaultRegistry()
	bucketer, err := optimizer.NewBucketer(optimizer.DefaultBuckets())
	if err != nil {
		return err
	}
	optim, err := optimizer.New(bucketer, registry.Names())
	if err != nil {
		return err
	}
	if err := optim.Load(boundaryModel); err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	printBoundary(optim)
	return nil
}

func printBoundary(optim *optimizer.Optimizer) {
	rows := optim.DecisionBoundary()
	if len(rows) == 0 {
		fmt.Println("No observations recorded yet.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tVARIANT\tCONFIDENCE")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%.2f\n", row.Bucket, row.Variant, row.Confidence)
	}
	w.Flush()
}
