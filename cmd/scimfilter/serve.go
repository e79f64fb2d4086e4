package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	scimfilter "github.com/nlstn/go-scimfilter"
	"github.com/nlstn/go-scimfilter/internal/observability"
	"github.com/spf13/cobra"
)

type serveFlags struct {
	addr            string
	driver          string
	dsn             string
	schemaFile      string
	telemetry       string
	metricsInterval time.Duration
	serverTiming    bool
	cacheSize       int
	maxDepth        int
	logLevel        string
}

func newServeCmd() *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /parse and a filterable /Users endpoint",
		Long: `Serve an HTTP API backed by a seeded database.

Endpoints:
  GET /parse?filter=...&mode=filter|path&version=v1|v2
  GET /Users?filter=...

Filters on /Users are translated to SQL against the table mapping given by
--schema (YAML). Without --schema the built-in users/emails mapping is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&flags.driver, "driver", "sqlite", "Database driver: sqlite or postgres")
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "Database DSN (default: shared in-memory sqlite)")
	cmd.Flags().StringVar(&flags.schemaFile, "schema", "", "YAML attribute-to-column mapping")
	cmd.Flags().StringVar(&flags.telemetry, "telemetry", telemetryNone, "OpenTelemetry exporter: none or stdout")
	cmd.Flags().DurationVar(&flags.metricsInterval, "metrics-interval", 30*time.Second, "Metric export interval")
	cmd.Flags().BoolVar(&flags.serverTiming, "server-timing", true, "Add Server-Timing response headers")
	cmd.Flags().IntVar(&flags.cacheSize, "cache-size", 256, "Parsed filter cache size per parser (0 disables)")
	cmd.Flags().IntVar(&flags.maxDepth, "max-depth", 32, "Maximum filter nesting depth (0 for unlimited)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	return cmd
}

func runServe(ctx context.Context, flags *serveFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(flags.logLevel))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", flags.logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	schema, err := loadSchema(flags.schemaFile)
	if err != nil {
		return err
	}

	tel, err := newTelemetry(flags.telemetry, os.Stdout, flags.metricsInterval)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String(observability.LogFieldError, err.Error()))
		}
	}()

	obsOpts := []observability.Option{observability.WithVersion(version)}
	parserOpts := []scimfilter.Option{
		scimfilter.WithCacheSize(flags.cacheSize),
		scimfilter.WithMaxDepth(flags.maxDepth),
	}
	if tel.tracerProvider != nil {
		obsOpts = append(obsOpts, observability.WithTracerProvider(tel.tracerProvider), observability.WithDetailedDBTracing())
		parserOpts = append(parserOpts, scimfilter.WithTracerProvider(tel.tracerProvider))
	}
	if tel.meterProvider != nil {
		obsOpts = append(obsOpts, observability.WithMeterProvider(tel.meterProvider))
		parserOpts = append(parserOpts, scimfilter.WithMeterProvider(tel.meterProvider))
	}
	if flags.serverTiming {
		obsOpts = append(obsOpts, observability.WithServerTiming())
	}
	obs := observability.NewConfig(obsOpts...)

	db, err := openDatabase(flags.driver, flags.dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := observability.RegisterGORMCallbacks(db, obs); err != nil {
		return err
	}
	if obs.ServerTimingEnabled() {
		if err := observability.RegisterServerTimingCallbacks(db); err != nil {
			return err
		}
	}

	count, err := migrateAndSeed(db)
	if err != nil {
		return err
	}
	logger.Info("database ready", slog.String("driver", flags.driver), slog.Int64("users", count))

	srv := &http.Server{
		Addr:              flags.addr,
		Handler:           newServer(db, schema, logger, parserOpts...).Handler(obs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", flags.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadSchema(path string) (*scimfilter.Schema, error) {
	if path == "" {
		return scimfilter.LoadSchema(strings.NewReader(defaultUsersSchema))
	}
	schema, err := scimfilter.LoadSchemaFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	return schema, nil
}
