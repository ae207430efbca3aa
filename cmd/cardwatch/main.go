package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"CardWatch/internal/collector"
	"CardWatch/internal/config"
	"CardWatch/internal/notifier"
	"CardWatch/internal/recorder"
	"CardWatch/internal/scheduler"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "cardwatch:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("cardwatch", flag.ContinueOnError)
	cfgPath := fs.String("config", "configs/config.yaml", "path to yaml config")
	showHistory := fs.Bool("history", false, "print recorded balance history and exit")
	dryRun := fs.Bool("dry-run", false, "use an in-memory store and print the sms instead of sending it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" && !isFlagSet(fs, "config") {
		*cfgPath = v
	}

	// Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Init store
	var store recorder.Store
	if *dryRun {
		store = recorder.NewMemoryStore()
	} else {
		sqlStore, err := recorder.NewSQLiteStore(cfg.Database.SQLitePath, logger)
		if err != nil {
			return err
		}
		store = sqlStore
	}
	defer store.Close()

	if *showHistory {
		return printHistory(ctx, store, stdout)
	}

	fetcher := collector.NewEdenredFetcher(cfg.Card.Endpoint, cfg.Card.Salt, cfg.Proxy, logger)

	var sender notifier.Sender = notifier.NewSMSAPINotifier(cfg.SMSAPI.Endpoint,
		cfg.SMSAPI.Username, cfg.SMSAPI.Password, cfg.SMSAPI.Sender, cfg.Proxy, logger)
	if *dryRun {
		sender = &notifier.ConsoleSender{W: stdout}
	}

	sched := scheduler.NewScheduler(store, fetcher, sender, cfg.Card.Number, cfg.SMS.To,
		cfg.Location(), stdout, logger)

	if cfg.Schedule.Cron == "" {
		_, err := sched.RunOnce(ctx)
		return err
	}

	if err := sched.Register(ctx, cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	logger.Info("waiting for scheduled runs", zap.String("cron", cfg.Schedule.Cron))
	<-ctx.Done()
	logger.Info("shutdown signal received, stopping")
	sched.Stop()
	return nil
}

func printHistory(ctx context.Context, store recorder.Store, w io.Writer) error {
	for rec, err := range store.Records(ctx) {
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%v\n", rec.ID, rec.ObservedAt.Format("2006-01-02 15:04:05"), rec.Value)
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
