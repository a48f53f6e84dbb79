package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pageforge/internal/catalog"
	"pageforge/internal/ipc"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Expand the service and location catalogs into pending tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var pairs int
				if client != nil {
					resp, err := client.Seed()
					if err != nil {
						return err
					}
					pairs = resp.Pairs
				} else {
					var err error
					pairs, err = catalog.Seed(cmd.Context(), store, ctx.configValue(), logging.NewNop())
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d service/location pairs\n", pairs)
				return nil
			})
		},
	}
}
