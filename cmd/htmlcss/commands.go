package main

import (
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"htmlcss/internal/config"
	"htmlcss/pkg/engine"
)

const stdinName = "-"

// forEachInput parses every named file, or stdin when there are none, and
// hands each result to fn. Failures are collected so that one bad file does
// not stop the others.
func forEachInput(ctx context.Context, cmd *cli.Command, e *engine.Engine, names []string, fn func(name string, res *engine.Result) error) error {
	env := envFromContext(ctx)
	if len(names) == 0 {
		names = []string{stdinName}
	}

	var errs error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		res, err := parseInput(ctx, cmd, e, name)
		if err == nil {
			err = fn(name, res)
		}
		if err != nil {
			env.Log.Warn("Unable to process input", zap.String("file", name), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		env.Log.Info("Processed",
			zap.String("file", name),
			zap.Int("elements", res.ProcessingStats.ElementsProcessed),
			zap.Int("rules", res.ProcessingStats.CSSRulesParsed),
			zap.Int64("ms", res.ProcessingStats.ProcessingTimeMs))
	}
	return errs
}

func parseInput(ctx context.Context, cmd *cli.Command, e *engine.Engine, name string) (*engine.Result, error) {
	var r io.Reader
	if name == stdinName {
		if r = cmd.Root().Reader; r == nil {
			r = os.Stdin
		}
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("unable to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if cs := envFromContext(ctx).Charset; cs != nil {
		r = cs.NewDecoder().Reader(r)
	}
	return e.ParseReader(r)
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func runParse(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	cfg := *env.Cfg
	if f := cmd.String("format"); len(f) > 0 {
		format, err := config.ParseFormat(f)
		if err != nil {
			return err
		}
		cfg.Output.Format = format
	}
	if cmd.Bool("inline-styles") {
		cfg.Output.InlineStyles = true
	}

	e := engine.New(&cfg, env.Log)
	w := output(cmd)
	names := cmd.Args().Slice()
	return forEachInput(ctx, cmd, e, names, func(name string, res *engine.Result) error {
		if len(names) > 1 {
			fmt.Fprintf(w, "# %s\n", name)
		}
		if err := e.Print(res, w); err != nil {
			return err
		}
		if cfg.Output.Format == config.FormatHTML {
			fmt.Fprintln(w)
		}
		return nil
	})
}

func runStyles(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	e := engine.New(env.Cfg, env.Log)
	w := output(cmd)
	names := cmd.Args().Slice()
	return forEachInput(ctx, cmd, e, names, func(name string, res *engine.Result) error {
		if len(names) > 1 {
			fmt.Fprintf(w, "# %s\n", name)
		}
		return e.DumpStyles(res, w)
	})
}

func runQuery(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	args := cmd.Args()
	if args.Len() == 0 {
		return fmt.Errorf("no selector specified")
	}
	if args.Len() > 2 {
		env.Log.Warn("Malformed command line, too many inputs", zap.Strings("ignoring", args.Slice()[2:]))
	}
	selector := args.Get(0)

	var names []string
	if args.Len() > 1 {
		names = []string{args.Get(1)}
	}

	e := engine.New(env.Cfg, env.Log)
	w := output(cmd)
	return forEachInput(ctx, cmd, e, names, func(_ string, res *engine.Result) error {
		if cmd.Bool("html") {
			markup, err := e.QueryHTML(res, selector)
			if err != nil {
				return err
			}
			for _, m := range markup {
				fmt.Fprintln(w, m)
			}
			return nil
		}

		elements, err := e.Query(res, selector)
		if err != nil {
			return err
		}
		env.Log.Debug("Query finished", zap.String("selector", selector), zap.Int("matches", len(elements)))
		return e.DumpElements(elements, w)
	})
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	data, err := config.Dump(env.Cfg)
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	out := output(cmd)
	if len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer f.Close()
		out = f
	} else {
		fname = "STDOUT"
	}
	env.Log.Info("Outputting configuration", zap.String("file", fname))

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
