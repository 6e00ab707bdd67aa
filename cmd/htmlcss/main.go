package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"htmlcss/internal/config"
)

const appName = "htmlcss"

// initializeAppContext prepares application context before command execution
// but after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	env := envFromContext(ctx)

	configFile := cmd.String("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		cfg.Logging.Level = "debug"
	}
	log, err := cfg.Logging.Prepare()
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.Cfg, env.Log = cfg, log

	if cs := cmd.String("charset"); len(cs) > 0 {
		env.Charset, err = ianaindex.IANA.Encoding(cs)
		if err != nil || env.Charset == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cs), zap.Error(err))
			env.Charset = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.Charset)
			log.Debug("Decoding inputs", zap.String("charset", n))
		}
	}

	env.Log.Debug("Program started", zap.Strings("args", cmd.Args().Slice()), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if env.Log == nil {
		return nil
	}
	env.Log.Debug("Program ended", zap.Duration("elapsed", env.uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	// stderr cannot always be synced, nothing useful to report then
	_ = env.Log.Sync()
	return nil
}

// Errors from subcommands are returned as regular errors, cli.Exit is not
// used.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := envFromContext(ctx)
	if env.Log != nil && env.Cfg.Logging.Level != "none" {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// error is reported either by exitErrHandler or on exit directly to stderr
	return err
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            appName,
		Usage:           "streaming markup parser with style sheet cascade",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log parser internals at debug level"},
			&cli.StringFlag{Name: "charset", Usage: "decode inputs from `ENCODING` (IANA name) instead of UTF-8"},
		},
		Commands: []*cli.Command{
			{
				Name:         "parse",
				Usage:        "Parses markup file(s) and prints the resulting tree",
				OnUsageError: usageErrorHandler,
				Action:       runParse,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output `FORMAT` (tree, json, html); overrides configuration"},
					&cli.BoolFlag{Name: "inline-styles", Usage: "for html output write computed styles into style attributes"},
				},
				ArgsUsage: "[FILE...]",
			},
			{
				Name:         "styles",
				Usage:        "Prints computed style of every element with the specificity of the winning rule",
				OnUsageError: usageErrorHandler,
				Action:       runStyles,
				ArgsUsage:    "[FILE...]",
			},
			{
				Name:         "query",
				Usage:        "Prints elements matching a CSS selector with their computed styles",
				OnUsageError: usageErrorHandler,
				Action:       runQuery,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "html", Usage: "print markup of matching elements instead of their styles"},
				},
				ArgsUsage: "SELECTOR [FILE]",
			},
			{
				Name:         "dumpconfig",
				Usage:        "Dumps actual configuration (YAML)",
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "[DESTINATION]",
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deferred functions after that
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}
