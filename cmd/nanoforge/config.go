package main

import (
	"log/slog"

	"github.com/spf13/viper"

	"github.com/chenura999/nanoforge/internal/bench"
	"github.com/chenura999/nanoforge/internal/evolve"
)

// loadConfigFile reads a YAML config file into viper. Known keys mirror
// the evolve and bench flag names; unknown keys are ignored. Flags that
// were set explicitly still win over file values.
func loadConfigFile(path string) error {
	d := evolve.DefaultConfig()
	viper.SetDefault("evolve.generations", d.Generations)
	viper.SetDefault("evolve.population", d.PopulationSize)
	viper.SetDefault("evolve.mutation_rate", d.MutationRate)
	viper.SetDefault("evolve.crossover_rate", d.CrossoverRate)
	viper.SetDefault("evolve.tournament", d.TournamentSize)
	viper.SetDefault("evolve.elites", d.EliteCount)
	viper.SetDefault("evolve.stagnation", d.StagnationLimit)
	viper.SetDefault("evolve.min_speedup", d.MinSpeedup)
	viper.SetDefault("evolve.seed", d.Seed)
	viper.SetDefault("evolve.workers", d.Workers)
	viper.SetDefault("bench.warmup", bench.DefaultOptions.Warmup)
	viper.SetDefault("bench.runs", bench.DefaultOptions.Runs)
	viper.SetDefault("bench.inner_iters", bench.DefaultOptions.InnerIters)

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return err
	}

	slog.Debug("Config loaded", "path", viper.ConfigFileUsed())
	return nil
}

// evolveConfigFromViper builds an evolution config from file values,
// falling back to the built-in defaults when no file was loaded.
func evolveConfigFromViper() evolve.Config {
	cfg := evolve.DefaultConfig()
	if configPath == "" {
		return cfg
	}
	cfg.Generations = viper.GetInt("evolve.generations")
	cfg.PopulationSize = viper.GetInt("evolve.population")
	cfg.MutationRate = viper.GetFloat64("evolve.mutation_rate")
	cfg.CrossoverRate = viper.GetFloat64("evolve.crossover_rate")
	cfg.TournamentSize = viper.GetInt("evolve.tournament")
	cfg.EliteCount = viper.GetInt("evolve.elites")
	cfg.StagnationLimit = viper.GetInt("evolve.stagnation")
	cfg.MinSpeedup = viper.GetFloat64("evolve.min_speedup")
	cfg.Seed = viper.GetInt64("evolve.seed")
	cfg.Workers = viper.GetInt("evolve.workers")
	return cfg
}

// benchOptionsFromViper builds timing options the same way.
func benchOptionsFromViper() bench.Options {
	opts := bench.DefaultOptions
	if configPath == "" {
		return opts
	}
	opts.Warmup = viper.GetInt("bench.warmup")
	opts.Runs = viper.GetInt("bench.runs")
	opts.InnerIters = viper.GetInt("bench.inner_iters")
	return opts
}
