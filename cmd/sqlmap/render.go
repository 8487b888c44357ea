package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRenderCommand(a *app) *cobra.Command {
	flags := &statementFlags{}
	cmd := &cobra.Command{
		Use:   "render <table>",
		Short: "Print the SQL and parameters of a statement without running it",
		Example: `  sqlmap render Users --where 'Age > 30'
  sqlmap render Users --order-by CreatedAt --from 1 --to 20 --desc
  sqlmap render Users --op update --set ID=7 --set Name=Bob`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			built, _, err := flags.build(cat, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "-- %s\n%s\n", built.Type, built.Text)
			for _, p := range built.Params {
				fmt.Fprintf(out, "-- %s = %#v\n", p.Name, p.Value)
			}
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}
