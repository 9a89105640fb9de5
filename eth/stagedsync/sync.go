package stagedsync

import (
	"context"
	"fmt"
	"path/filepath"

	mathutil "github.com/erigontech/erigon-lib/common/math"
	log "github.com/erigontech/erigon-lib/log/v3"
	"github.com/erigontech/synclight/db"
	"github.com/erigontech/synclight/eth/stagedsync/stages"
	"github.com/erigontech/synclight/metrics"
	"github.com/erigontech/synclight/turbo/snapshotsync"
)

// Step is the block-aligned snapshot cadence for the state stage, spec §4.7.
const Step = 100_000

// Orchestrator sequences HeadersStage, BodiesStage, and StateStage to a
// fixed tip, snapshotting each database's progress past a boundary. Grounded
// on original_source/src/sync/mod.rs's drive loop and erigon's own staged
// sync control flow (run one stage to exhaustion before the next).
type Orchestrator struct {
	DB        *db.SplitDatabase
	Headers   *HeadersStage
	Bodies    *BodiesStage
	State     *StateStage
	Snapshots *snapshotsync.Manager
	Logger    log.Logger
}

// Run drives Headers -> snapshot -> Bodies -> snapshot -> State sub-ranges
// with their own snapshot cadence, to the headers stage's configured tip.
func (o *Orchestrator) Run(ctx context.Context) error {
	headersBefore, err := db.Progress(ctx, o.DB.Headers, string(stages.Headers))
	if err != nil {
		return fmt.Errorf("orchestrator: read headers progress: %w", err)
	}
	tip, err := o.Headers.Run(ctx)
	if err != nil {
		return fmt.Errorf("orchestrator: headers stage: %w", err)
	}
	metrics.StageProgress.WithLabelValues(string(stages.Headers)).Set(float64(tip))
	if tip > headersBefore {
		o.snapshot(ctx, "headers", "headers", db.HeadersSnapshotPrefix, tip)
	}

	bodiesBefore, err := db.Progress(ctx, o.DB.Bodies, string(stages.Bodies))
	if err != nil {
		return fmt.Errorf("orchestrator: read bodies progress: %w", err)
	}
	bodiesTip, err := o.Bodies.Run(ctx, tip)
	if err != nil {
		return fmt.Errorf("orchestrator: bodies stage: %w", err)
	}
	metrics.StageProgress.WithLabelValues(string(stages.Bodies)).Set(float64(bodiesTip))
	if bodiesTip > bodiesBefore {
		o.snapshot(ctx, "bodies", "bodies", db.BodiesSnapshotPrefix, bodiesTip)
	}

	stateProgress, err := db.Progress(ctx, o.DB.State, string(stages.Execution))
	if err != nil {
		return fmt.Errorf("orchestrator: read state progress: %w", err)
	}

	from := stateProgress + 1
	for from <= bodiesTip {
		until := nextBoundary(from, bodiesTip)

		remaining := mathutil.CeilDiv(int(bodiesTip-from+1), Step)
		o.Logger.Debug("orchestrator: state sub-range", "from", from, "until", until, "boundaries_remaining", remaining)

		progress, err := o.State.Run(ctx, until)
		if err != nil {
			return fmt.Errorf("orchestrator: state stage: %w", err)
		}
		metrics.StageProgress.WithLabelValues(string(stages.Execution)).Set(float64(progress))
		from = until + 1

		if until < bodiesTip || (until == bodiesTip && until%Step == 0) {
			o.snapshot(ctx, "state", "state", db.StateSnapshotPrefix, progress)
		}
	}

	return nil
}

// nextBoundary computes the end of the next STEP-aligned state sub-range
// starting at from, clamped to tip. Implements spec.md §4.7/§9's literal
// formula, including the `from - 1`-adjacent edge case when from is
// already a multiple of Step (Open Question Decision 1): that case yields
// `from + Step`, not `from`, since `from mod Step == 0` there.
func nextBoundary(from, tip uint64) uint64 {
	until := from + Step - (from % Step)
	if until > tip {
		until = tip
	}
	return until
}

// snapshot uploads which's mdbx.dat file under prefix and garbage-collects
// older objects. Upload failures are logged and non-fatal per spec §4.8:
// the next boundary retries.
func (o *Orchestrator) snapshot(ctx context.Context, logPrefix, which, prefix string, progress uint64) {
	localPath := filepath.Join(o.DB.Path(which), "mdbx.dat")
	if err := o.Snapshots.Upload(ctx, logPrefix, localPath, prefix, progress); err != nil {
		o.Logger.Warn("orchestrator: snapshot upload failed, will retry next boundary",
			"database", which, "progress", progress, "err", err)
	}
}
