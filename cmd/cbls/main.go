// Command cbls runs the hybrid CBLS/CP local-search engine against a
// knapsack, TSP, or graph-colouring instance file from the shell.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cblsolver/cbls/pkg/cbls"
	"github.com/cblsolver/cbls/problems/graphcolor"
	"github.com/cblsolver/cbls/problems/knapsack"
	"github.com/cblsolver/cbls/problems/tsp"
)

// runConfig is the optional YAML file a --config flag points at, overriding
// the stop condition and random seed a run would otherwise default to.
type runConfig struct {
	IterationLimit   int     `yaml:"iteration_limit"`
	TimeLimitSeconds float64 `yaml:"time_limit_seconds"`
	Seed             int64   `yaml:"seed"`
}

func defaultRunConfig() runConfig {
	return runConfig{IterationLimit: 2000, Seed: 1}
}

func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func (cfg runConfig) stopCondition() cbls.StopCondition {
	conditions := []cbls.StopCondition{cbls.IterationLimit(cfg.IterationLimit)}
	if cfg.TimeLimitSeconds > 0 {
		conditions = append(conditions, cbls.TimeLimit(cfg.TimeLimitSeconds))
	}
	return cbls.AnyOf(conditions...)
}

// runFlags are the flags every `solve` subcommand shares.
type runFlags struct {
	configPath string
}

func addRunFlags(cmd *cobra.Command, flags *runFlags) {
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a YAML run config (iteration_limit, time_limit_seconds, seed)")
}

func runModel(exp cbls.Experiment, flags *runFlags) (int, error) {
	cfg, err := loadRunConfig(flags.configPath)
	if err != nil {
		return 0, err
	}
	model, err := cbls.BuildModel(exp, cbls.WithRandomSeed(cfg.Seed), cbls.WithMonitor(cbls.NewMonitor(logr.Discard())))
	if err != nil {
		return 0, err
	}
	if err := model.Optimize(context.Background(), cfg.stopCondition()); err != nil {
		if cbls.IsLimitStop(err) {
			color.Yellow("stopped early: %v", err)
		} else {
			return 0, err
		}
	}
	best, ok := model.BestObjective()
	if !ok {
		return 2, fmt.Errorf("no feasible assignment found")
	}
	return best, nil
}

func printResult(problem string, objective int, elapsed time.Duration) {
	color.Green("✓ %s solved in %s, best objective = %d", problem, elapsed.Round(time.Millisecond), objective)
}

func newKnapsackCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "knapsack <instance-file>",
		Short: "Solve a 0/1 knapsack instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := knapsack.ParseFile(args[0])
			if err != nil {
				return err
			}
			start := time.Now()
			best, err := runModel(in, flags)
			if err != nil {
				color.Red("✗ knapsack: %v", err)
				os.Exit(2)
			}
			printResult("knapsack", -best, time.Since(start))
			return nil
		},
	}
	addRunFlags(cmd, flags)
	return cmd
}

func newTSPCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "tsp <instance-file>",
		Short: "Solve a travelling-salesman instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := tsp.ParseFile(args[0])
			if err != nil {
				return err
			}
			start := time.Now()
			best, err := runModel(in, flags)
			if err != nil {
				color.Red("✗ tsp: %v", err)
				os.Exit(2)
			}
			printResult("tsp", best, time.Since(start))
			return nil
		},
	}
	addRunFlags(cmd, flags)
	return cmd
}

func newGraphColorCmd() *cobra.Command {
	flags := &runFlags{}
	var maxColors int
	cmd := &cobra.Command{
		Use:   "graphcolor <instance-file>",
		Short: "Solve a graph-colouring instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := graphcolor.ParseFile(args[0], maxColors)
			if err != nil {
				return err
			}
			start := time.Now()
			best, err := runModel(in, flags)
			if err != nil {
				color.Red("✗ graphcolor: %v", err)
				os.Exit(2)
			}
			if best > 0 {
				color.Yellow("⚠ graphcolor: %d colours is not enough, %d conflicting edges remain", maxColors, best)
				os.Exit(1)
			}
			printResult("graphcolor", best, time.Since(start))
			return nil
		},
	}
	cmd.Flags().IntVar(&maxColors, "max-colors", 0, "number of colours available")
	if err := cmd.MarkFlagRequired("max-colors"); err != nil {
		panic(err)
	}
	addRunFlags(cmd, flags)
	return cmd
}

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Run local search against a problem instance",
	}
	cmd.AddCommand(newKnapsackCmd(), newTSPCmd(), newGraphColorCmd())
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:   "cbls",
		Short: "A hybrid constraint-based local search / CP engine",
	}
	root.AddCommand(newSolveCmd())
	if err := root.Execute(); err != nil {
		color.Red("✗ %v", err)
		os.Exit(2)
	}
}
