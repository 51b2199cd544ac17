// stabbench submits protein mutation batches to remote stability predictors
// and collects their predictions into one table.
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

	"github.com/spf13/cobra"

	"stabbench/internal/bench"
	"stabbench/internal/config"
	"stabbench/internal/engine"
	"stabbench/internal/input"
	"stabbench/internal/observability"
	"stabbench/internal/predictor"
	"stabbench/internal/report"
)

type options struct {
	include    []string
	exclude    []string
	kinds      []string
	configPath string
	source     string
	output     string
	verbose    bool
	quiet      bool
	permissive bool
	dryRun     bool
	skipHeader bool
	listOnly   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "stabbench",
		Short: "Collect protein stability predictions from remote web services",
		Long: `stabbench reads mutation descriptors (IDENTIFIER MUTATION CHAIN [PH TEMP],
one per line), submits them to the selected prediction services and polls
each remote job until it finishes, assembling every answer into one CSV
table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.include, "include", nil, "predictors to run (default: all registered)")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "predictors to skip")
	f.StringSliceVar(&opts.kinds, "pred-type", nil, "restrict to input kinds: sequence, pdb_id, pdb_file")
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML run configuration file")
	f.StringVarP(&opts.source, "source", "s", "", "mutation file (default: stdin)")
	f.StringVarP(&opts.output, "output", "o", "", "output directory (default: CSV to stdout)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging and status_message column")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "errors only")
	f.BoolVar(&opts.permissive, "permissive", false, "retry poll cycles whose response could not be parsed")
	f.BoolVar(&opts.dryRun, "dry-run", false, "resolve selection and inputs, run nothing")
	f.BoolVar(&opts.skipHeader, "skip-header", false, "skip the first line of the mutation file")
	f.BoolVar(&opts.listOnly, "list-predictors", false, "list registered predictors and exit")

	return cmd
}

func run(ctx context.Context, opts options) error {
	setupLogging(opts)

	if opts.listOnly {
		for _, kind := range []engine.InputKind{engine.KindSequence, engine.KindPDBID, engine.KindPDBFile} {
			names := predictor.ByKind(kind)
			if len(names) == 0 {
				continue
			}
			fmt.Printf("%s:\n", kind)
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
		}
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	kinds, err := parseKinds(opts.kinds)
	if err != nil {
		return err
	}

	descs, err := readBatch(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics engine.MetricsRecorder
	if svcCfg := config.LoadServiceConfig(); svcCfg.MetricsPort != 0 {
		m, handler, err := observability.NewMetrics(ctx)
		if err != nil {
			return err
		}
		metrics = m
		stopMetrics := serveMetrics(svcCfg, handler)
		defer stopMetrics()
	}

	runner, err := bench.New(bench.Options{
		Config:       cfg,
		Include:      opts.include,
		Exclude:      opts.exclude,
		Kinds:        kinds,
		OutputDir:    opts.output,
		WithMessages: opts.verbose,
		Metrics:      metrics,
	})
	if err != nil {
		return err
	}

	if opts.dryRun {
		fmt.Printf("predictors: %v\n", runner.Predictors())
		fmt.Printf("mutations: %d\n", len(descs))
		return nil
	}

	slog.Info("Starting batch",
		"predictors", runner.Predictors(),
		"mutations", len(descs))

	rows, runErr := runner.Run(ctx, descs)
	if opts.output == "" && len(rows) > 0 {
		if err := report.WriteCSV(os.Stdout, rows, opts.verbose); err != nil {
			return err
		}
	}
	if errors.Is(runErr, context.Canceled) {
		slog.Warn("Interrupted, partial results flushed")
	}
	return runErr
}

func setupLogging(opts options) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	if opts.quiet {
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig(opts options) (*config.Run, error) {
	cfg := &config.Run{}
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
	}
	if opts.permissive {
		cfg.Permissive = true
	}
	cfg.Credentials = cfg.Credentials.FromEnv()
	return cfg, nil
}

func parseKinds(names []string) ([]engine.InputKind, error) {
	var kinds []engine.InputKind
	for _, name := range names {
		switch kind := engine.InputKind(name); kind {
		case engine.KindSequence, engine.KindPDBID, engine.KindPDBFile:
			kinds = append(kinds, kind)
		default:
			return nil, fmt.Errorf("unknown input kind %q", name)
		}
	}
	return kinds, nil
}

func readBatch(opts options) ([]engine.Descriptor, error) {
	var src io.Reader = os.Stdin
	if opts.source != "" && opts.source != "-" {
		f, err := os.Open(opts.source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		src = f
	}
	return input.Parse(src, input.Options{SkipHeader: opts.skipHeader})
}

// serveMetrics starts the Prometheus endpoint and returns its shutdown
// function.
func serveMetrics(svcCfg *config.ServiceConfig, handler http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", handler)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", svcCfg.MetricsPort),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting metrics server", "port", svcCfg.MetricsPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), svcCfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}
}
