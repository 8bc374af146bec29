package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/on-the-ground/memoize_go/fetch"
)

var (
	jsonPath string

	fetchCmd = &cobra.Command{
		Use:   "fetch URL",
		Short: "GET a JSON document through a memoized client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, teardown, err := memoConfig("fetch")
			if err != nil {
				return err
			}
			defer teardown()

			fetchCfg, err := fetch.ConfigFromEnv()
			if err != nil {
				return err
			}
			client := fetch.NewClient(fetchCfg, cfg)

			for i := 0; i < repeat; i++ {
				doc, err := client.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonPath != "" {
					fmt.Fprintln(cmd.OutOrStdout(), doc.Path(jsonPath).String())
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), doc.String())
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d call(s), %d network request(s)\n", repeat, client.Requests())
			return nil
		},
	}
)

func init() {
	fetchCmd.Flags().StringVarP(&jsonPath, "path", "p", "", "print only the value at this gjson path")
}
