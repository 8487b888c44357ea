package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/syssam/sqlmap/dialect"
	"github.com/syssam/sqlmap/dialect/sql"
	"github.com/syssam/sqlmap/schema"

	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

func newQueryCommand(a *app) *cobra.Command {
	var (
		flags     = &statementFlags{}
		showStats bool
	)
	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Run a statement and print the result",
		Long: `Run a statement against the configured database.

Rows are printed as JSON lines keyed by property name. Count and sum print
the scalar, writes print the number of affected rows. With --stats, command
statistics are printed to stderr when the statement completes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			built, cm, err := flags.build(cat, args[0])
			if err != nil {
				return err
			}
			drv, stats, err := a.open()
			if err != nil {
				return err
			}
			defer drv.Close()
			err = run(cmd.Context(), drv, flags.op, built, cm, cmd.OutOrStdout())
			snap := stats.QueryStats().Snapshot()
			a.logger.Debug("sqlmap: done", "type", built.Type.String(), "params", len(built.Params), "stats", snap.String())
			if showStats {
				fmt.Fprintln(cmd.ErrOrStderr(), "--", snap)
			}
			return err
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&showStats, "stats", false, "print command statistics to stderr")
	return cmd
}

func run(ctx context.Context, drv dialect.Driver, op string, cmd *sql.Command, cm *schema.ClassMap, out io.Writer) error {
	switch op {
	case opCount, opSum:
		v, err := scalar(ctx, drv, cmd)
		if err != nil {
			return err
		}
		if op == opCount {
			n, err := cast.ToInt64E(v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, n)
			return err
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, f)
		return err
	case opInsert, opUpdate, opDelete:
		var res sql.Result
		if err := drv.Exec(ctx, cmd.Text, cmd.Args(), &res); err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%d row(s) affected\n", n)
		return err
	}
	rows := &sql.Rows{}
	if err := drv.Query(ctx, cmd.Text, cmd.Args(), rows); err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	for rec, err := range sql.MaterializeAny(rows, cm) {
		if err != nil {
			return err
		}
		if err := enc.Encode(schema.Values(cm, rec)); err != nil {
			return err
		}
	}
	return nil
}

func scalar(ctx context.Context, drv dialect.Driver, cmd *sql.Command) (any, error) {
	rows := &sql.Rows{}
	if err := drv.Query(ctx, cmd.Text, cmd.Args(), rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no result for %s", cmd.Text)
	}
	var v any
	if err := rows.Scan(&v); err != nil {
		return nil, err
	}
	return v, nil
}
