package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-release/publish"
)

func newPublishersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publishers",
		Short: "List the registered publishers and their rollback support",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := publish.Default()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tREGISTRY\tROLLBACK")
			for _, name := range registry.Names() {
				p, ok := registry.Get(name)
				if !ok {
					continue
				}
				rollback := "no"
				if p.CanRollback() {
					rollback = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name(), p.Registry(), rollback)
			}
			return w.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the forge-release version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildVersion)
		},
	}
}
