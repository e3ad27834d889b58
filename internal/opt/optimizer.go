package opt

// Optimizer defines a derivative-free numeric optimization algorithm.
// The bucket-boundary tuner drives it with an objective built from
// recorded dispatch observations.
type Optimizer interface {
	// Run minimizes eval over the box [lower, upper] in dim dimensions.
	// Returns the best parameter vector and its cost.
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}
