package main

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/on-the-ground/memoize_go/memo"
)

var factorialCmd = &cobra.Command{
	Use:   "factorial N",
	Short: "Compute N! through a memoizer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid N %q: %w", args[0], err)
		}

		cfg, teardown, err := memoConfig("factorial")
		if err != nil {
			return err
		}
		defer teardown()

		fact := memo.FuncI1(factorial, cfg)
		for i := 0; i < repeat; i++ {
			v, err := fact(n)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), humanize.BigComma(v))
		}
		return nil
	},
}

func factorial(n int64) (*big.Int, error) {
	if n < 0 {
		return nil, fmt.Errorf("factorial of negative number %d", n)
	}
	return new(big.Int).MulRange(1, n), nil
}
