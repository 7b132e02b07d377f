package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/lmclass/internal/dataset"
	"github.com/cognicore/lmclass/internal/handler"
	"github.com/cognicore/lmclass/pkg/lmclass"
	"github.com/cognicore/lmclass/pkg/lmclass/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (optional)")
		trainPath  = flag.String("train", "", "Training file (overrides config)")
		testPath   = flag.String("test", "", "Test file evaluated at startup (optional)")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		logLevel   = flag.String("log-level", "", "Log level (overrides config)")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = *loaded
	}
	if *trainPath != "" {
		cfg.Data.Train = *trainPath
	}
	if *testPath != "" {
		cfg.Data.Test = *testPath
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if cfg.Data.Train == "" {
		log.Fatal("--train or data.train required")
	}

	logger, err := config.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, &cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	comp, err := config.Build(ctx, cfg)
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

	train, err := dataset.LoadFile(cfg.Data.Train, cfg.Data.Format, cfg.Data.Delimiter, logger)
	if err != nil {
		return fmt.Errorf("load training data: %w", err)
	}
	if err := engine.ImportDataset(ctx, cfg.Data.Train, train); err != nil {
		return fmt.Errorf("import training data: %w", err)
	}
	if err := engine.TrainDataset(ctx, cfg.Data.Train); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	if cfg.Data.Test != "" {
		test, err := dataset.LoadFile(cfg.Data.Test, cfg.Data.Format, cfg.Data.Delimiter, logger)
		if err != nil {
			return fmt.Errorf("load test data: %w", err)
		}
		res, runID, err := engine.Evaluate(ctx, cfg.Data.Test, test, cfg.Model.Mode)
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		logger.Info("startup evaluation",
			zap.String("run_id", runID),
			zap.Stringer("mode", res.Mode),
			zap.Float64("accuracy", res.Accuracy))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.SetupRouter(engine, cfg.Model.Mode, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", cfg.Server.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
