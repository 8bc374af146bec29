// Package main runs memoized computations twice to show the second call
// being answered from the cache.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/on-the-ground/memoize_go/memo"
	"github.com/on-the-ground/memoize_go/observe"
)

var (
	verbose bool
	repeat  int

	rootCmd = &cobra.Command{
		Use:          "memodemo",
		Short:        "Show memoized computations and fetches",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if repeat < 1 {
				return fmt.Errorf("--repeat must be at least 1, got %d", repeat)
			}
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every call, including cache hits")
	rootCmd.PersistentFlags().IntVarP(&repeat, "repeat", "n", 2, "how many times to perform the call")
	rootCmd.AddCommand(factorialCmd, fetchCmd)
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// memoConfig reads MEMO_* settings and attaches a zap observer. The returned
// teardown flushes the observer.
func memoConfig(name string) (memo.Config, func(), error) {
	cfg, err := memo.ConfigFromEnv()
	if err != nil {
		return memo.Config{}, nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return memo.Config{}, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	cfg.Observer = observe.NewZap(logger)
	return cfg, func() { _ = cfg.Observer.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
