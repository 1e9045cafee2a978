// Command whq runs a query against a warehouse snapshot file and prints the
// matching records.
//
// Usage:
//
//	whq [flags] <snapshot> <model>
//
// Query, sort and populate expressions are JSON with comments and trailing
// commas (JSONC):
//
//	whq --query '{"views": {"$gt": 10},}' --sort '-date' --populate tags db.json Post
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/vinicius-lino-figueiredo/warehouse"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/serializer"
)

var errUsage = errors.New("usage: whq [flags] <snapshot> <model>")

type options struct {
	query    string
	sort     string
	populate string
	skip     int
	limit    int
	count    bool
	format   string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "whq: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out, errOut io.Writer) error {
	fs := flag.NewFlagSet("whq", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var opts options
	fs.StringVarP(&opts.query, "query", "q", "", "Query expression (JSONC object)")
	fs.StringVarP(&opts.sort, "sort", "s", "", `Sort spec, such as "-date title" or a JSONC object`)
	fs.StringVarP(&opts.populate, "populate", "p", "", "Paths to populate, or a JSONC populate expression")
	fs.IntVar(&opts.skip, "skip", 0, "Skip the first N matches")
	fs.IntVarP(&opts.limit, "limit", "n", 0, "Print at most N records (0 means no limit)")
	fs.BoolVarP(&opts.count, "count", "c", false, "Print the number of matches only")
	fs.StringVarP(&opts.format, "format", "f", "json", "Output format (json, yaml)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errUsage
	}

	logger, err := newLogger(errOut, opts.logLevel)
	if err != nil {
		return err
	}

	db := warehouse.New(warehouse.WithPath(fs.Arg(0)), warehouse.WithLogger(logger))
	if err := db.Load(ctx); err != nil {
		return fmt.Errorf("load %s: %w", fs.Arg(0), err)
	}
	m, ok := db.Lookup(fs.Arg(1))
	if !ok {
		return fmt.Errorf("model %q not found in %s", fs.Arg(1), fs.Arg(0))
	}

	res, err := query(m, opts)
	if err != nil {
		return err
	}
	if opts.count {
		_, err := fmt.Fprintln(out, res.Count())
		return err
	}
	return write(ctx, out, opts.format, res.ToObjects())
}

func query(m *warehouse.Model, opts options) (*warehouse.Query, error) {
	q, err := parseExpr(opts.query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	res, err := m.Find(q)
	if err != nil {
		return nil, err
	}

	if opts.sort != "" {
		spec, err := parseSpec(opts.sort)
		if err != nil {
			return nil, fmt.Errorf("sort: %w", err)
		}
		if res, err = res.Sort(spec); err != nil {
			return nil, err
		}
	}
	res = res.Skip(opts.skip)
	if opts.limit > 0 {
		res = res.Limit(opts.limit)
	}

	if opts.populate != "" {
		expr, err := parseSpec(opts.populate)
		if err != nil {
			return nil, fmt.Errorf("populate: %w", err)
		}
		if res, err = res.Populate(expr); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// parseExpr parses a JSONC expression. An empty string gives nil.
func parseExpr(s string) (any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	b, err := hujson.Standardize([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}
	return data.Parse(b)
}

// parseSpec parses s as JSONC when it starts like an object or a list, and
// keeps it as a plain string otherwise.
func parseSpec(s string) (any, error) {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		return parseExpr(t)
	}
	return t, nil
}

func write(ctx context.Context, out io.Writer, format string, records []data.M) error {
	switch format {
	case "json":
		b, err := serializer.NewSerializer(serializer.WithIndent("  ")).Serialize(ctx, records)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", b)
		return err
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var ll slog.Level
	if err := ll.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	})), nil
}
