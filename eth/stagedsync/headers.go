// Package stagedsync implements the three sync stages
// (headers/bodies/state) and the orchestrator chaining them, in the shape
// of erigon's eth/stagedsync package: each stage reads its own progress
// marker, does a bounded unit of work, and writes progress back in the
// same transaction.
package stagedsync

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/kv"
	log "github.com/erigontech/erigon-lib/log/v3"
	"github.com/erigontech/synclight/core/rawdb"
	"github.com/erigontech/synclight/core/types"
	"github.com/erigontech/synclight/db"
	"github.com/erigontech/synclight/downloader"
	"github.com/erigontech/synclight/eth/stagedsync/stages"
)

// HeadersStage downloads and persists headers from the network tip down to
// the local canonical chain, computing running total difficulty as it
// goes. Grounded on original_source/src/sync/headers_sync.rs: the
// cursor-based reverse insert and get_sync_gap computation.
type HeadersStage struct {
	DB         *db.SplitDatabase
	Downloader downloader.HeaderDownloader
	Logger     log.Logger
	// DebugTip pins the sync target to a known header hash, per spec's
	// `debug.tip` configuration flag. It is the only tip target the stage
	// uses: when it is zero and no leftover gap header exists, Run does
	// nothing.
	DebugTip common.Hash
}

// computeSyncGap reads the local canonical head and the known-next header
// (if any), following original_source's get_sync_gap: a header already
// present immediately above the local head means we were interrupted
// mid-gap last run and should close exactly that gap; otherwise the target
// is DebugTip (the zero hash when unset).
func (s *HeadersStage) computeSyncGap(ctx context.Context, tx kv.Tx) (downloader.SyncGap, error) {
	progress, err := stages.GetStageProgress(ctx, tx, stages.Headers)
	if err != nil {
		return downloader.SyncGap{}, err
	}
	localHash, err := rawdb.ReadCanonicalHash(tx, progress)
	if err != nil {
		return downloader.SyncGap{}, err
	}

	if gapHeader, err := rawdb.HeaderByNumberPrefix(tx, progress+1); err == nil && gapHeader != nil {
		return downloader.SyncGap{
			LocalHeadNumber: progress, LocalHeadHash: localHash,
			Target: downloader.SyncTarget{GapHeader: gapHeader},
		}, nil
	}

	return downloader.SyncGap{
		LocalHeadNumber: progress, LocalHeadHash: localHash,
		Target: downloader.SyncTarget{TipHash: s.DebugTip},
	}, nil
}

// Run executes one HeadersStage pass: compute the sync gap, drain the
// downloader's header stream (descending order) until the channel closes,
// then insert the headers into CanonicalHeaders/Headers/HeaderTD in
// ascending block-number order so each total difficulty builds on its
// parent's.
func (s *HeadersStage) Run(ctx context.Context) (uint64, error) {
	var gap downloader.SyncGap
	err := s.DB.Headers.View(ctx, func(tx kv.Tx) error {
		g, err := s.computeSyncGap(ctx, tx)
		gap = g
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("headers stage: compute sync gap: %w", err)
	}
	if gap.Target.TipHash == (common.Hash{}) && gap.Target.GapHeader == nil {
		s.Logger.Debug("headers stage: no sync target configured, nothing to do")
		return gap.LocalHeadNumber, nil
	}

	headers, errc := s.Downloader.DownloadHeaders(ctx, gap)

	lastNumber := gap.LocalHeadNumber
	err = s.DB.Headers.Update(ctx, func(tx kv.RwTx) error {
		td, err := rawdb.ReadTD(tx, gap.LocalHeadNumber, gap.LocalHeadHash)
		if err != nil {
			return err
		}

		var batch []*types.Header
		for h := range headers {
			batch = append(batch, h)
		}
		sort.Slice(batch, func(i, j int) bool { return batch[i].Number < batch[j].Number })

		for _, h := range batch {
			hash := h.Hash()
			if err := rawdb.WriteHeader(tx, h); err != nil {
				return err
			}
			if err := rawdb.WriteCanonicalHash(tx, h.Number, hash); err != nil {
				return err
			}
			td = new(big.Int).Add(td, h.Difficulty)
			if err := rawdb.WriteTD(tx, h.Number, hash, td); err != nil {
				return err
			}
			if h.Number > lastNumber {
				lastNumber = h.Number
			}
			s.Logger.Debug("headers stage: inserted header", "number", h.Number, "hash", hash)
		}

		if err := <-errc; err != nil {
			return fmt.Errorf("headers stage: downloader: %w", err)
		}

		return stages.SaveStageProgress(tx, stages.Headers, lastNumber)
	})
	if err != nil {
		return gap.LocalHeadNumber, err
	}
	return lastNumber, nil
}
