// Command pp-processor recomputes osu! performance points for one gamemode:
// live monitoring of new scores, a full rebuild across every user, or a
// one-off recompute for an explicit list of user ids.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppy/osu-performance/internal/config"
	"github.com/ppy/osu-performance/internal/mods"
	"github.com/ppy/osu-performance/internal/processor"
	"github.com/ppy/osu-performance/internal/store"
	"github.com/ppy/osu-performance/pkg/logger"
	"github.com/ppy/osu-performance/pkg/metrics"
)

// HTTP server timeout constants for the /metrics endpoint.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second

	defaultRebuildThreads = 4
)

func main() {
	// Disable default Go metrics collection; we expose our own metric set.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logging: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mode, cmdArgs, err := parseArgs(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if cfg.UserPPColumnName == "" {
		cfg.UserPPColumnName = "pp_raw"
	}

	st, err := store.OpenMySQL(store.MySQLConfig{
		Host: cfg.MySQLHost, Port: strconv.Itoa(cfg.MySQLPort),
		Username: cfg.MySQLUsername, Password: cfg.MySQLPassword, Database: cfg.MySQLDatabase,
		SlaveHost: cfg.MySQLSlaveHost, SlavePort: strconv.Itoa(cfg.MySQLSlavePort),
		SlaveUsername: cfg.MySQLSlaveUsername, SlavePassword: cfg.MySQLSlavePassword, SlaveDatabase: cfg.MySQLSlaveDatabase,
	}, log)
	if err != nil {
		log.Error(ctx, "failed to open mysql connections", logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error(ctx, "failed to close mysql connections", logger.Error(err))
		}
	}()

	proc, err := processor.New(ctx, mode, st, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to start processor", logger.Error(err))
		os.Exit(1)
	}

	srv := startMetricsServer(ctx, cfg.MetricsAddr, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "metrics server shutdown failed", logger.Error(err))
		}
	}()

	if err := dispatch(ctx, proc, cmdArgs); err != nil {
		log.Error(ctx, "processor run failed", logger.Error(err))
		_ = proc.Shutdown(context.Background())
		os.Exit(1)
	}

	if err := proc.Shutdown(context.Background()); err != nil {
		log.Error(ctx, "processor shutdown failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "processor stopped")
}

// command is the parsed CLI subcommand: all, users, or monitor (the
// no-subcommand default).
type command struct {
	name       string
	reprocess  bool
	threads    int
	identifiers []string
}

// parseArgs splits the mode keyword from the remaining subcommand
// arguments; per §6, the mode keyword is always positional and first.
func parseArgs(argv []string) (mods.Gamemode, command, error) {
	if len(argv) < 1 {
		return 0, command{}, errUsage("missing mode argument: osu|taiko|catch_the_beat|osu_mania")
	}
	mode, ok := mods.ParseCLITag(argv[0])
	if !ok {
		return 0, command{}, errUsage("unrecognized mode: " + argv[0])
	}

	rest := argv[1:]
	if len(rest) == 0 {
		return mode, command{name: "monitor"}, nil
	}

	switch rest[0] {
	case "all":
		cmd := command{name: "all", threads: defaultRebuildThreads}
		fs := flag.NewFlagSet("all", flag.ContinueOnError)
		reprocess := fs.Bool("reprocess", false, "reprocess every user from scratch")
		threads := fs.Int("threads", defaultRebuildThreads, "worker pool size")
		if err := fs.Parse(rest[1:]); err != nil {
			return mode, command{}, errUsage(err.Error())
		}
		cmd.reprocess = *reprocess
		cmd.threads = *threads
		return mode, cmd, nil
	case "users":
		if len(rest) < 2 {
			return mode, command{}, errUsage("users requires at least one id or name")
		}
		return mode, command{name: "users", identifiers: rest[1:]}, nil
	default:
		return mode, command{}, errUsage("unrecognized subcommand: " + rest[0])
	}
}

func dispatch(ctx context.Context, proc *processor.Processor, cmd command) error {
	switch cmd.name {
	case "all":
		return proc.ProcessAllUsers(ctx, cmd.reprocess, cmd.threads)
	case "users":
		return proc.ProcessUsers(ctx, cmd.identifiers)
	default:
		return proc.MonitorNewScores(ctx)
	}
}

func startMetricsServer(ctx context.Context, addr string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting metrics server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()

	return srv
}

type errUsage string

func (e errUsage) Error() string { return string(e) }
