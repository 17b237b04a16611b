// finctl is the admin command line for fintrack: migrations, statement processing and
// ledger maintenance without going through the HTTP API.
package main

import (
	"github.com/alecthomas/kong"
)

// cli commands / args available
var cli struct {
	Debug bool `help:"Enable debug logging."`

	Migrate     migrateCmd     `cmd:"" help:"Apply or roll back database migrations."`
	Statement   statementCmd   `cmd:"" help:"Upload, parse, import or show credit card statements."`
	Transaction transactionCmd `cmd:"" help:"Maintain ledger transactions."`
	User        userCmd        `cmd:"" help:"Manage logins."`
	Parsers     parsersCmd     `cmd:"" help:"List supported bank codes."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("finctl"),
		kong.Description("Admin tool for the fintrack ledger."),
	)
	rt := newRuntime(cli.Debug)
	defer rt.close()

	err := ctx.Run(rt)
	ctx.FatalIfErrorf(err)
}
