package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTablesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the mapping file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range cat.tables() {
				cm, _ := cat.lookup(name)
				fmt.Fprintf(out, "%s [%s]", name, cm.Table())
				if cm.Alias() != "" {
					fmt.Fprintf(out, " as %s", cm.Alias())
				}
				fmt.Fprintln(out)
				for _, p := range cm.Properties() {
					var flags []string
					if p.IsPrimaryKey() {
						flags = append(flags, "pk")
					}
					if p.IsIdentity() {
						flags = append(flags, "identity")
					}
					if p.IsReadOnly() {
						flags = append(flags, "readonly")
					}
					fmt.Fprintf(out, "  %-12s %s", p.Alias(), p.Column())
					if len(flags) > 0 {
						fmt.Fprintf(out, " (%s)", strings.Join(flags, ", "))
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}
}
