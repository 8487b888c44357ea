// Package sql compiles predicate trees and class maps into T-SQL commands
// and runs them on database/sql.
//
// # Query Context
//
// A QueryContext hands out table aliases for the class maps taking part in
// one statement. Aliases come from the map itself when one was configured
// with As, or are generated as t_0, t_1 and so on:
//
//	qc, err := sql.NewQueryContext(users, orders)
//	qc.AliasForTable(users) // "t_0"
//
// # Predicates
//
// Predicates are small expression trees built from members, literals and
// captured values:
//
//	sql.F[User]("Age").GT(30).And(sql.F[User]("Name").EQ("Bob"))
//
// Typed fields check the operand type at compile time:
//
//	var age = sql.IntField[User]("Age")
//	age.GTE(18)
//
// A Compiler turns a predicate into a Fragment of SQL text plus named
// parameters (@whereParam0, @whereParam1, ...):
//
//	frag, err := sql.NewCompiler(qc).Compile(pred)
//
// # Commands
//
// The Build functions produce a Command for each statement kind:
//
//	cmd, err := sql.BuildPage(users, pred, &sql.Page{OrderBy: "CreatedAt", From: 1, To: 20, Desc: true})
//	drv.Query(ctx, cmd.Text, cmd.Args(), rows)
//
// Materialize reads the rows back into entities. The sequence can be
// consumed once:
//
//	for u, err := range sql.Materialize[User](rows, users) {
//		...
//	}
//
// # Drivers
//
// Driver wraps a *sql.DB. StatsDriver, DebugDriver and NotifyDriver wrap any
// dialect.Driver to collect statistics, log statements or deliver executed
// commands to registered hooks.
package sql
