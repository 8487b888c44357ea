package main

import (
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/sqlmap/dialect"
	"github.com/syssam/sqlmap/dialect/sql"
)

// app carries the state shared by the subcommands.
type app struct {
	fs      afero.Fs
	v       *viper.Viper
	cfgFile string
	cfg     *config
	logger  *slog.Logger
}

func newRootCommand(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs, v: viper.New(), logger: slog.Default()}
	root := &cobra.Command{
		Use:           "sqlmap",
		Short:         "Render and run mapped T-SQL commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default .sqlmap.yaml in the working or home directory)")
	pf.String("driver", dialect.SQLite, "database driver: sqlite or sqlserver")
	pf.String("dsn", "", "data source name")
	pf.StringP("mapping", "m", "sqlmap.yaml", "table mapping file")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.BoolP("verbose", "v", false, "log every statement")
	cobra.CheckErr(a.v.BindPFlags(pf))

	root.AddCommand(
		newRenderCommand(a),
		newQueryCommand(a),
		newTablesCommand(a),
		newVersionCommand(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.fs, a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := cfg.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

func (a *app) catalog() (*catalog, error) {
	cat, err := loadCatalog(a.fs, a.cfg.Mapping)
	if err != nil {
		return nil, err
	}
	for _, w := range cat.warnings {
		a.logger.Warn("sqlmap: mapping", "table", w.Table, "property", w.Property, "message", w.Message)
	}
	return cat, nil
}

// open connects to the configured database. Statements are counted, and
// logged when verbose.
func (a *app) open() (dialect.Driver, *sql.StatsDriver, error) {
	stats, err := sql.OpenWithStats(a.cfg.Driver, a.cfg.DSN, sql.WithSlowQueryLog(a.logger))
	if err != nil {
		return nil, nil, err
	}
	var drv dialect.Driver = stats
	if a.cfg.Verbose {
		drv = sql.NewDebugDriver(drv, sql.DebugWithLogger(a.logger))
	}
	return drv, stats, nil
}
