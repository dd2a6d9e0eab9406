package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/jorgenskogmo/webpub/cmd/webpub/commands"
	"github.com/jorgenskogmo/webpub/internal/foundation/errors"
	"github.com/jorgenskogmo/webpub/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("webpub"),
		kong.Description("Static site generator for nested markdown content."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli)
	if err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.Report(os.Stderr, err))
	}
}
