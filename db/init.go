package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/erigontech/erigon-lib/chain"
	"github.com/erigontech/erigon-lib/kv"
	log "github.com/erigontech/erigon-lib/log/v3"
	"github.com/erigontech/synclight/compress"
	"github.com/erigontech/synclight/remotestore"
	"github.com/gofrs/flock"
)

const (
	mdbxDataFile             = "mdbx.dat"
	datGzExt                 = ".dat.gz"
	restoreLockRetryInterval = 50 * time.Millisecond
)

// Snapshot object-key prefixes, shared with the orchestrator
// (eth/stagedsync) and turbo/snapshotsync.Manager so the uploader and the
// restore path agree on where each environment's snapshots live.
const (
	HeadersSnapshotPrefix = "headers-"
	BodiesSnapshotPrefix  = "bodies-"
	StateSnapshotPrefix   = "state-snapshots/state-"
)

// Initializer opens-or-creates a SplitDatabase, restoring each environment
// from the remote store first if the remote holds a strictly newer
// snapshot than the local progress marker, then ensuring genesis data is
// present. Grounded on original_source/src/database/init.rs's
// DatabaseInitializer.
type Initializer struct {
	Dir     string
	Store   remotestore.Store
	Genesis *chain.Genesis
	Logger  log.Logger
}

type environment struct {
	name       string
	descriptor Descriptor
	stageID    string
	prefix     string
	tables     []string
}

func environments() []environment {
	return []environment{
		{name: "headers", descriptor: HeadersDescriptor{}, stageID: "Headers", prefix: HeadersSnapshotPrefix, tables: kv.HeaderTables},
		{name: "bodies", descriptor: BodiesDescriptor{}, stageID: "Bodies", prefix: BodiesSnapshotPrefix, tables: kv.BodyTables},
		{name: "state", descriptor: StateDescriptor{}, stageID: "Execution", prefix: StateSnapshotPrefix, tables: kv.StateTables},
	}
}

// Open runs the create-or-restore algorithm for all three environments and
// returns the resulting SplitDatabase, with genesis data guaranteed present
// in each.
func (init *Initializer) Open(ctx context.Context) (*SplitDatabase, error) {
	if err := os.MkdirAll(init.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("dbinit: mkdir %s: %w", init.Dir, err)
	}

	// The temp-file-then-rename snapshot restore below is not atomic with
	// respect to a concurrent second initializer on the same directory;
	// the flock guards that race (see spec's "Snapshot atomicity" note).
	lockPath := filepath.Join(init.Dir, ".synclight-restore.lock")
	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, restoreLockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("dbinit: lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("dbinit: could not acquire restore lock at %s", lockPath)
	}
	defer fl.Unlock()

	for _, env := range environments() {
		if err := init.restoreIfNewer(ctx, env); err != nil {
			init.Logger.Warn("snapshot restore failed, continuing with local data", "db", env.name, "err", err)
		}
	}

	split, err := Open(init.Dir)
	if err != nil {
		return nil, fmt.Errorf("dbinit: open split database: %w", err)
	}

	for _, env := range environments() {
		d := split.DB(env.name)
		err := d.Update(ctx, func(tx kv.RwTx) error {
			return env.descriptor.EnsureGenesis(ctx, tx, init.Genesis)
		})
		if err != nil {
			split.Close()
			return nil, fmt.Errorf("dbinit: ensure genesis for %s: %w", env.name, err)
		}
	}

	return split, nil
}

// restoreIfNewer lists the remote object prefix, picks the highest-progress
// snapshot, and replaces the local mdbx data file if it's strictly ahead of
// the local progress. Errors here are non-fatal: the caller logs and falls
// back to whatever local data already exists, per the non-fatal
// RemoteStoreError handling in spec §7.
func (init *Initializer) restoreIfNewer(ctx context.Context, env environment) error {
	if init.Store == nil {
		return nil
	}
	keys, err := init.Store.List(ctx, env.prefix)
	if err != nil {
		return err
	}
	bestKey := ""
	var bestProgress uint64
	for _, k := range keys {
		progress, ok := parseSnapshotKey(k, env.prefix)
		if !ok {
			init.Logger.Warn("skipping malformed snapshot key", "db", env.name, "key", k)
			continue
		}
		if bestKey == "" || progress > bestProgress {
			bestKey, bestProgress = k, progress
		}
	}
	if bestKey == "" {
		return nil
	}

	localProgress, err := init.localProgress(env)
	if err != nil {
		return err
	}
	if bestProgress <= localProgress {
		return nil
	}

	content, found, err := init.Store.Retrieve(ctx, bestKey)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	localPath := filepath.Join(init.Dir, env.name, mdbxDataFile)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	tmpPath := localPath + ".tmp"
	if err := compress.DecompressToFile(content, tmpPath); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		return err
	}
	init.Logger.Info("restored snapshot", "db", env.name, "progress", bestProgress)
	return nil
}

// localProgress reads the given environment's current SyncStage progress,
// opening it transiently if it already exists on disk. A database that has
// never been opened has zero progress, so any remote snapshot is newer.
func (init *Initializer) localProgress(env environment) (uint64, error) {
	path := filepath.Join(init.Dir, env.name)
	if _, err := os.Stat(path); err != nil {
		return 0, nil
	}
	d, err := func() (kv.DB, error) {
		return openEnv(path, env.tables)
	}()
	if err != nil {
		return 0, nil // treat an unreadable partial environment as zero progress
	}
	defer d.Close()
	return Progress(context.Background(), d, env.stageID)
}

// parseSnapshotKey extracts the numeric progress from a
// "{prefix}{progress}.dat.gz" object key.
func parseSnapshotKey(key, prefix string) (uint64, bool) {
	if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, datGzExt) {
		return 0, false
	}
	numStr := strings.TrimSuffix(strings.TrimPrefix(key, prefix), datGzExt)
	n, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
