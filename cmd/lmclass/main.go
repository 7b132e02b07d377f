package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/cognicore/lmclass/internal/dataset"
	"github.com/cognicore/lmclass/pkg/lmclass"
	"github.com/cognicore/lmclass/pkg/lmclass/config"
	"github.com/cognicore/lmclass/pkg/lmclass/lm"
	"github.com/cognicore/lmclass/pkg/lmclass/report"
)

type options struct {
	configPath string
	train      string
	test       string
	mode       string
	format     string
	db         string
	logLevel   string
	runs       int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML config file (optional)")
	flag.StringVar(&opts.train, "train", "", "Training file")
	flag.StringVar(&opts.test, "test", "", "Test file")
	flag.StringVar(&opts.mode, "mode", "", "Scoring mode: U, B, S or all (default from config)")
	flag.StringVar(&opts.format, "format", "table", "Output format: table or json")
	flag.StringVar(&opts.db, "db", "", "SQLite database for datasets and run history (optional)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (overrides config)")
	flag.IntVar(&opts.runs, "runs", 0, "List the N most recent stored runs")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts options, w io.Writer) error {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = *loaded
	}
	if opts.train != "" {
		cfg.Data.Train = opts.train
	}
	if opts.test != "" {
		cfg.Data.Test = opts.test
	}
	if opts.db != "" {
		cfg.Store.Driver = "sqlite"
		cfg.Store.Path = opts.db
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	modes, err := parseModes(opts.mode, cfg.Model.Mode)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	comp, err := config.Build(ctx, &cfg)
	if err != nil {
		return err
	}
	engine := lmclass.New(lmclass.Options{
		Tokenizer:       comp.Tokenizer,
		Store:           comp.Store,
		Logger:          logger,
		BackoffDiscount: cfg.Model.BackoffDiscount,
	})
	defer engine.Close()

	if cfg.Data.Train == "" && opts.runs > 0 {
		return listRuns(ctx, engine, opts.runs, w)
	}
	if cfg.Data.Train == "" {
		return fmt.Errorf("--train or data.train required")
	}
	if cfg.Data.Test == "" {
		return fmt.Errorf("--test or data.test required")
	}

	train, err := dataset.LoadFile(cfg.Data.Train, cfg.Data.Format, cfg.Data.Delimiter, logger)
	if err != nil {
		return fmt.Errorf("load training data: %w", err)
	}
	test, err := dataset.LoadFile(cfg.Data.Test, cfg.Data.Format, cfg.Data.Delimiter, logger)
	if err != nil {
		return fmt.Errorf("load test data: %w", err)
	}

	if err := engine.Train(ctx, train); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	for _, mode := range modes {
		res, runID, err := engine.Evaluate(ctx, cfg.Data.Test, test, mode)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", mode, err)
		}
		logger.Debug("run recorded", zap.String("run_id", runID), zap.Stringer("mode", mode))
		if err := report.Write(w, opts.format, res); err != nil {
			return err
		}
	}

	if opts.runs > 0 {
		return listRuns(ctx, engine, opts.runs, w)
	}
	return nil
}

func parseModes(s string, fallback lm.Mode) ([]lm.Mode, error) {
	switch s {
	case "":
		return []lm.Mode{fallback}, nil
	case "all":
		return lm.Modes, nil
	}
	m, err := lm.ParseMode(s)
	if err != nil {
		return nil, err
	}
	return []lm.Mode{m}, nil
}

func listRuns(ctx context.Context, engine *lmclass.Engine, limit int, w io.Writer) error {
	runs, err := engine.Runs(ctx, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATASET\tMODE\tCORRECT\tACCURACY\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%.4f\t%s\n",
			r.ID, r.Dataset, r.Mode, r.Correct, r.Total, r.Accuracy, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
