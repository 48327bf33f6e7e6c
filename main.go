package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCommand runs serve when no subcommand is given.
func newRootCommand() *cobra.Command {
	serve := newServeCommand()

	cmd := &cobra.Command{
		Use:           "tokenboard",
		Short:         "Live token table with server-side ordering",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(newSortCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	cfg := Config{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the token table HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.APIKey = getenvAny("MASSIVE_API_KEY", "POLYGON_API_KEY")
			cfg.WSURL = NormalizeWSFeed(getenvAny("MASSIVE_WS_URL", "POLYGON_WS_URL"))
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.Port, "port", envInt("TOKENBOARD_PORT", 8092), "HTTP port")
	f.StringVar(&cfg.Tokens, "tokens", envString("TOKENBOARD_TOKENS", "./tokens.yaml"), "Path to tokens.yaml (built-in sample if missing)")
	f.IntVar(&cfg.Generate, "generate", envInt("TOKENBOARD_GENERATE", 12), "Generated filler rows for the built-in sample")
	f.Int64Var(&cfg.Seed, "seed", int64(envInt("TOKENBOARD_SEED", 42)), "Seed for generated rows")
	f.StringVar(&cfg.LogLevel, "log-level", envString("TOKENBOARD_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")

	f.StringVar(&cfg.Feed, "feed", envString("TOKENBOARD_FEED", FeedSim), "Price feed: sim|massive|none")
	f.IntVar(&cfg.SimMinMS, "sim-min-ms", envInt("TOKENBOARD_SIM_MIN_MS", 300), "Simulator minimum delay between updates (ms)")
	f.IntVar(&cfg.SimMaxMS, "sim-max-ms", envInt("TOKENBOARD_SIM_MAX_MS", 800), "Simulator maximum delay between updates (ms)")
	f.Float64Var(&cfg.Volatility, "volatility", envFloat("TOKENBOARD_VOLATILITY", 0.02), "Simulator max relative move per update")

	f.StringVar(&cfg.Store, "store", envString("TOKENBOARD_STORE", StoreAuto), "Tick store: auto|clickhouse|sqlite|none")
	f.StringVar(&cfg.SQLitePath, "sqlite", envString("TOKENBOARD_SQLITE", "./data/ticks.db"), "SQLite tick database path")
	f.IntVar(&cfg.BatchSize, "batch-size", envInt("TOKENBOARD_BATCH_SIZE", 500), "Tick insert batch size")
	f.IntVar(&cfg.FlushMS, "flush-ms", envInt("TOKENBOARD_FLUSH_MS", 250), "Tick flush cadence (ms)")

	// ClickHouse flags (env-backed defaults)
	f.BoolVar(&cfg.ClickHouse.Enabled, "clickhouse", envBool("CLICKHOUSE_ENABLED", false), "Try ClickHouse first when --store=auto")
	f.StringVar(&cfg.ClickHouse.Host, "ch-host", envString("CLICKHOUSE_HOST", "localhost"), "ClickHouse host")
	f.IntVar(&cfg.ClickHouse.Port, "ch-port", envInt("CLICKHOUSE_PORT", 9000), "ClickHouse native port")
	f.StringVar(&cfg.ClickHouse.User, "ch-user", envString("CLICKHOUSE_USER", "default"), "ClickHouse user")
	f.StringVar(&cfg.ClickHouse.Pass, "ch-pass", envString("CLICKHOUSE_PASS", ""), "ClickHouse password")
	f.StringVar(&cfg.ClickHouse.DB, "ch-db", envString("CLICKHOUSE_DB", "tokenboard"), "ClickHouse database")
	f.BoolVar(&cfg.ClickHouse.Secure, "ch-secure", envBool("CLICKHOUSE_SECURE", false), "Use TLS to ClickHouse")
	f.BoolVar(&cfg.ClickHouse.AsyncInsert, "ch-async-insert", envBool("CLICKHOUSE_ASYNC_INSERT", true), "ClickHouse async_insert setting")

	return cmd
}

func runServe(ctx context.Context, cfg Config) error {
	log := NewLogger(cfg.LogLevel)

	tokens, err := loadSeed(cfg, log)
	if err != nil {
		return err
	}

	run := NewRunContext(time.Now())
	log.Infof("run id=%s", run.ID)
	metrics := NewMetrics(run.Start, version, commit, buildDate)

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	var writer *TickWriter
	if store != nil {
		writer = NewTickWriter(TickWriterConfig{
			BatchSize:  cfg.BatchSize,
			FlushEvery: time.Duration(cfg.FlushMS) * time.Millisecond,
		}, store, metrics, log.With("writer"))
	}

	board := NewBoard(tokens, DefaultTableState(), writer, metrics, log.With("board"), run.ID)

	httpSrv := NewHTTPServer(HTTPConfig{
		Addr:  fmt.Sprintf(":%d", cfg.Port),
		Log:   log.With("http"),
		Board: board,
		Store: store,
		Run:   run,
		M:     metrics,
	})

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	// start background components
	var wg sync.WaitGroup
	go metrics.Run(ctx)
	if writer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			writer.Run(ctx)
		}()
	}
	switch cfg.Feed {
	case FeedSim:
		sim := NewSimulator(SimulatorConfig{
			MinDelay:   time.Duration(cfg.SimMinMS) * time.Millisecond,
			MaxDelay:   time.Duration(cfg.SimMaxMS) * time.Millisecond,
			Volatility: cfg.Volatility,
			Log:        log.With("sim"),
		}, board)
		go sim.Run(ctx)
	case FeedMassive:
		stream := NewMassiveStream(MassiveStreamConfig{
			APIKey:  cfg.APIKey,
			FeedURL: cfg.WSURL,
			Pairs:   board.Pairs(),
			Log:     log.With("massive"),
		}, board, metrics)
		go stream.Run(ctx)
	default:
		log.Infof("price feed disabled")
	}

	// run HTTP server
	go func() {
		log.Infof("http listening on http://localhost:%d", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Infof("shutting down...")
	_ = httpSrv.Shutdown(shCtx)
	wg.Wait()
	if store != nil {
		if err := store.Close(); err != nil {
			log.Warnf("close %s: %v", store.Name(), err)
		}
	}
	log.Infof("bye")
	return nil
}

// loadSeed reads the tokens file, or falls back to the built-in sample when
// the file does not exist.
func loadSeed(cfg Config, log *Logger) ([]Token, error) {
	if cfg.Tokens != "" {
		tokens, err := LoadTokens(cfg.Tokens)
		if err == nil {
			log.Infof("loaded tokens=%d (%s)", len(tokens), filepath.Base(cfg.Tokens))
			return tokens, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load tokens: %w", err)
		}
		log.Infof("%s not found; using built-in sample", cfg.Tokens)
	}
	tokens := SampleTokens(cfg.Generate, cfg.Seed)
	log.Infof("loaded sample tokens=%d", len(tokens))
	return tokens, nil
}

// openStore picks the tick store. In auto mode ClickHouse is tried first
// when enabled, and SQLite is the fallback.
func openStore(ctx context.Context, cfg Config, log *Logger) (TickStore, error) {
	switch cfg.Store {
	case StoreNone:
		log.Infof("tick store disabled")
		return nil, nil
	case StoreSQLite:
		return openSQLite(cfg.SQLitePath, log)
	case StoreClickHouse:
		ctxInit, cancel := context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
		ch, err := OpenClickHouseStore(ctxInit, cfg.ClickHouse, log.With("clickhouse"))
		if err != nil {
			return nil, err
		}
		return ch, nil
	}

	if cfg.ClickHouse.Enabled {
		ctxInit, cancel := context.WithTimeout(ctx, 20*time.Second)
		ch, err := OpenClickHouseStore(ctxInit, cfg.ClickHouse, log.With("clickhouse"))
		cancel()
		if err == nil {
			return ch, nil
		}
		log.Errorf("clickhouse init failed (falling back to sqlite): %v", err)
	}
	return openSQLite(cfg.SQLitePath, log)
}

func openSQLite(path string, log *Logger) (TickStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	s, err := OpenSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	log.Infof("sqlite tick store ready path=%s", path)
	return s, nil
}
