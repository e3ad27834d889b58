package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chenura999/nanoforge/internal/script"
)

var (
	runInput    float64
	runMaxSteps int
	runMaxDepth int
	runExpr     string
)

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Compile and execute a script",
	Long: `Compiles a script file (or inline source given with -e) and executes
its entry function with the given input value, printing the result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	runCmd.Flags().Float64Var(&runInput, "input", 1, "Input value passed to the entry function")
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", script.DefaultLimits.MaxSteps, "Execution step budget")
	runCmd.Flags().IntVar(&runMaxDepth, "max-depth", script.DefaultLimits.MaxDepth, "Maximum call depth")
	runCmd.Flags().StringVarP(&runExpr, "source", "e", "", "Inline script source instead of a file")

	rootCmd.AddCommand(runCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	var source string
	switch {
	case runExpr != "" && len(args) > 0:
		return fmt.Errorf("give either a script file or -e, not both")
	case runExpr != "":
		source = runExpr
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}
		source = string(data)
	default:
		return fmt.Errorf("a script file or -e is required")
	}

	prog, err := script.Compile(source)
	if err != nil {
		return fmt.Errorf("failed to compile script: %w", err)
	}

	limits := script.Limits{MaxSteps: runMaxSteps, MaxDepth: runMaxDepth}
	start := time.Now()
	result, err := script.RunWithLimits(prog, runInput, limits)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	elapsed := time.Since(start)

	name := "<inline>"
	if len(args) == 1 {
		name = args[0]
	}
	slog.Info("Script executed", "script", name, "input", runInput, "elapsed", elapsed)
	fmt.Println(script.FormatValue(result))
	return nil
}
