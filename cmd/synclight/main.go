// Command synclight drives one staged sync run (headers -> bodies -> state)
// to a fixed tip, snapshotting each database to a remote object store as it
// advances. Grounded on original_source/src/cli.rs and src/cli/sync.rs,
// reworked from clap/confy/tokio onto kong/go-toml/v2/context.Context the
// way erigon's own cmd/ binaries are built around erigon-lib/log.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	log "github.com/erigontech/erigon-lib/log/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erigontech/synclight/db"
	"github.com/erigontech/synclight/downloader"
	"github.com/erigontech/synclight/errs"
	"github.com/erigontech/synclight/eth/ethconfig"
	"github.com/erigontech/synclight/eth/stagedsync"
	"github.com/erigontech/synclight/executor"
	"github.com/erigontech/synclight/metrics"
	"github.com/erigontech/synclight/turbo/snapshotsync"
)

// CLI is the sync subcommand's flags, mirroring spec.md §6's Configuration
// table: config path, three db paths, a chain spec, network trust flags,
// and the debug tip.
type CLI struct {
	Config     string `help:"Path to the stages/peers TOML config file." default:"synclight.toml"`
	HeadersDB  string `help:"Headers database directory." default:"./data/headers" name:"headers-db"`
	BodiesDB   string `help:"Bodies database directory." default:"./data/bodies" name:"bodies-db"`
	StateDB    string `help:"State database directory." default:"./data/state" name:"state-db"`
	Chain      string `help:"Named chain (mainnet) or path to a genesis JSON file." default:"mainnet"`
	Fixtures   string `help:"Directory of recorded block fixtures the local downloader replays." required:"" name:"fixtures"`
	DebugTip   string `help:"H256 tip hash driving the sync target." name:"debug.tip"`
	Verbosity  string `help:"Log level: error, warn, info, debug, trace." default:"info"`
	MetricsAddr string `help:"If set, serve Prometheus metrics on this address (e.g. :6060)." name:"metrics.addr"`

	ethconfig.NetworkArgs `embed:"" prefix:"network."`
}

func main() {
	os.Exit(run())
}

func run() int {
	var cli CLI
	kong.Parse(&cli, kong.Description("Staged, snapshot-backed light sync."))

	lvl, err := log.LvlFromString(cli.Verbosity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "synclight: %v\n", err)
		return 1
	}
	logger := log.NewWithLevel(os.Stderr, lvl)
	log.SetRoot(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runSync(ctx, cli, logger); err != nil {
		logger.Error("synclight: fatal", "err", err)
		return 1
	}
	return 0
}

func runSync(ctx context.Context, cli CLI, logger log.Logger) error {
	genesis, err := ethconfig.LoadChainSpec(cli.Chain)
	if err != nil {
		return err
	}

	stageCfg, err := ethconfig.LoadStageConfig(cli.Config)
	if err != nil {
		return err
	}
	cli.NetworkArgs.ApplyTo(stageCfg)

	debugTip, err := ethconfig.DebugTip(cli.DebugTip)
	if err != nil {
		return err
	}

	creds, err := ethconfig.LoadS3Credentials()
	if err != nil {
		return err
	}
	store, err := ethconfig.OpenRemoteStore(ctx, creds, logger)
	if err != nil {
		return err
	}

	if cli.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics.Register(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cli.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server stopped", "err", err)
			}
		}()
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
	}

	splitDir, err := splitDatabaseDir(cli.HeadersDB, cli.BodiesDB, cli.StateDB)
	if err != nil {
		return err
	}
	initializer := &db.Initializer{Dir: splitDir, Store: store, Genesis: genesis, Logger: logger}
	split, err := initializer.Open(ctx)
	if err != nil {
		return err
	}
	defer split.Close()

	dl := &downloader.LocalDownloader{Dir: cli.Fixtures}

	orchestrator := &stagedsync.Orchestrator{
		DB: split,
		Headers: &stagedsync.HeadersStage{
			DB: split, Downloader: dl, Logger: logger.New("stage", "headers"), DebugTip: debugTip,
		},
		Bodies: &stagedsync.BodiesStage{
			DB: split, Downloader: dl, Logger: logger.New("stage", "bodies"),
		},
		State: &stagedsync.StateStage{
			DB:              split,
			Executor:        executor.NoopExecutor{},
			ChainConfig:     genesis.Config,
			CommitThreshold: stageCfg.Stages.CommitThreshold,
			CodeCacheSize:   stageCfg.Stages.CodeCacheSize,
			Logger:          logger.New("stage", "state"),
		},
		Snapshots: &snapshotsync.Manager{Store: store, Logger: logger.New("component", "snapshotsync")},
		Logger:    logger.New("component", "orchestrator"),
	}

	return orchestrator.Run(ctx)
}

// splitDatabaseDir derives the single parent directory db.Open expects
// ("{dir}/headers", "{dir}/bodies", "{dir}/state") from the three
// independently-configurable db paths spec.md §6 exposes. They must
// therefore share one parent; anything else is a ConfigError rather than
// a silently wrong layout.
func splitDatabaseDir(headersDB, bodiesDB, stateDB string) (string, error) {
	hp := parentOf(headersDB)
	if parentOf(bodiesDB) != hp || parentOf(stateDB) != hp {
		return "", &errs.ConfigError{Field: "headers_db/bodies_db/state_db", Err: fmt.Errorf("must be sibling directories sharing one parent (got %s, %s, %s)", headersDB, bodiesDB, stateDB)}
	}
	if filepath.Base(headersDB) != "headers" || filepath.Base(bodiesDB) != "bodies" || filepath.Base(stateDB) != "state" {
		return "", &errs.ConfigError{Field: "headers_db/bodies_db/state_db", Err: fmt.Errorf("must be named headers, bodies and state (got %s, %s, %s)", headersDB, bodiesDB, stateDB)}
	}
	return hp, nil
}

func parentOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
