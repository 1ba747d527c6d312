// Command dashboard serves the interactive taxi orders forecasting page
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	forecaster "github.com/aouyang1/go-taxiforecaster"
	"github.com/aouyang1/go-taxiforecaster/config"
	"github.com/aouyang1/go-taxiforecaster/dashboard"
	"github.com/aouyang1/go-taxiforecaster/timedataset"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, logOut io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unable to load .env, %w", err)
	}

	fs := config.Flags()
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	logger := cfg.NewLogger(logOut)
	slog.SetDefault(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}
	logger.Info("loaded taxi orders",
		"segments", ds.Segments(),
		"start", ds.Index().Start(),
		"end", ds.Index().End(),
		"points", ds.Len(),
	)

	modelOpt := cfg.ModelOptions()
	store := dashboard.NewStore(func() (dashboard.Forecaster, error) {
		opt := forecaster.NewDefaultOptions()
		opt.Model = modelOpt
		f, err := forecaster.New(ds, opt)
		if err != nil {
			return nil, err
		}
		return f, nil
	}, cfg.Session.TTL)

	srv := dashboard.New(store, &dashboard.Options{
		CookieName: cfg.Session.CookieName,
		SessionTTL: cfg.Session.TTL,
		HistoryLen: forecaster.HistoryLen,
	}, logger)

	return serve(ctx, logger, &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}, store, cfg.Server.ShutdownTimeout)
}

// loadDataset reads the configured CSV or simulates March through August 2018
func loadDataset(cfg *config.Config) (*timedataset.Dataset, error) {
	if cfg.Data.Synthetic {
		start := forecaster.DefaultDateBounds.FromMin
		end := forecaster.DefaultDateBounds.ToMax.Add(24 * time.Hour)
		t, y := timedataset.GenerateTaxiOrders(start, int(end.Sub(start)/time.Hour), cfg.Data.Seed)
		return timedataset.NewSingleSegmentDataset(timedataset.DefaultSegment, t, y)
	}

	csvOpt := timedataset.NewDefaultCSVOptions()
	csvOpt.TimestampColumn = cfg.Data.TimestampColumn
	csvOpt.SegmentColumn = cfg.Data.SegmentColumn
	csvOpt.TargetColumn = cfg.Data.TargetColumn
	ds, err := timedataset.LoadCSV(cfg.Data.Path, csvOpt)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s, %w", cfg.Data.Path, err)
	}
	return ds, nil
}

// serve runs the server until ctx is done and then shuts it down within timeout
func serve(ctx context.Context, logger *slog.Logger, srv *http.Server, store *dashboard.Store, timeout time.Duration) error {
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go store.Run(sweepCtx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("dashboard failed, %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard forced to shutdown, %w", err)
	}
	logger.Info("dashboard exited")
	return nil
}
