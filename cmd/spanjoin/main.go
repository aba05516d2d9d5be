// Command spanjoin joins interval sequences and compares annotation layers.
package main

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.llib.dev/frameless/pkg/logger"
	"go.llib.dev/frameless/pkg/logging"
)

const version = "0.1.0"

var CLI struct {
	Store string `name:"store" help:"Store kind, overrides SPANJOIN_STORE (sqlite, bolt)"`
	DSN   string `name:"dsn" help:"Store location, overrides SPANJOIN_DSN"`

	Join    JoinCmd    `cmd:"" help:"Join two JSON span files and print the overlapping pairs"`
	Import  ImportCmd  `cmd:"" help:"Import a JSON span file into a document layer"`
	Match   MatchCmd   `cmd:"" help:"Match two stored layers of a document"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// App is what every command receives when it runs.
type App struct {
	Context context.Context
	Config  Config
	Out     io.Writer
}

func main() {
	ctx := context.Background()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal(ctx, "invalid configuration", logging.ErrField(err))
		os.Exit(1)
	}
	configureLogging(cfg)

	kctx := kong.Parse(&CLI,
		kong.Name("spanjoin"),
		kong.Description("Overlap join for begin-sorted interval sequences"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if CLI.Store != "" {
		cfg.Store = CLI.Store
	}
	if CLI.DSN != "" {
		cfg.DSN = CLI.DSN
	}

	ctx = logging.ContextWith(ctx, logging.Field("command", kctx.Command()))
	err = kctx.Run(&App{Context: ctx, Config: cfg, Out: os.Stdout})
	if err != nil {
		logger.Error(ctx, "command failed", logging.ErrField(err))
	}
	kctx.FatalIfErrorf(err)
}

func configureLogging(cfg Config) {
	logger.Configure(func(l *logging.Logger) { l.Level = logging.Level(cfg.LogLevel) })
}

type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	_, err := io.WriteString(app.Out, "spanjoin "+version+"\n")
	return err
}
