package stagedsync

import (
	"context"
	"fmt"

	log "github.com/erigontech/erigon-lib/log/v3"
	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/synclight/core/rawdb"
	"github.com/erigontech/synclight/core/types"
	"github.com/erigontech/synclight/db"
	"github.com/erigontech/synclight/downloader"
	"github.com/erigontech/synclight/errs"
	"github.com/erigontech/synclight/eth/stagedsync/stages"
)

// BodiesStage fetches the bodies for every header between its own progress
// marker and target, and appends them with strictly increasing tx ids.
// Grounded on original_source/src/sync/bodies_sync.rs: the start_tx_id
// bookkeeping carried across bodies is reproduced via rawdb.NextTxID.
type BodiesStage struct {
	DB         *db.SplitDatabase
	Downloader downloader.BodyDownloader
	Logger     log.Logger
}

// Run downloads and persists bodies for (progress, target], returning the
// new progress. target is normally the headers stage's own returned
// progress, handed down by the orchestrator.
func (s *BodiesStage) Run(ctx context.Context, target uint64) (uint64, error) {
	var progress uint64
	err := s.DB.Bodies.View(ctx, func(tx kv.Tx) error {
		p, err := stages.GetStageProgress(ctx, tx, stages.Bodies)
		progress = p
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("bodies stage: read progress: %w", err)
	}
	if target <= progress {
		s.Logger.Debug("bodies stage: nothing to sync", "progress", progress, "target", target)
		return progress, nil
	}

	var headers []*types.Header
	err = s.DB.Headers.View(ctx, func(tx kv.Tx) error {
		for n := progress + 1; n <= target; n++ {
			hash, err := rawdb.ReadCanonicalHash(tx, n)
			if err != nil {
				return err
			}
			h, err := rawdb.ReadHeader(tx, n, hash)
			if err != nil {
				return err
			}
			if h == nil {
				return &errs.DatabaseError{Op: "bodies stage: missing header", Err: fmt.Errorf("block %d", n)}
			}
			headers = append(headers, h)
		}
		return nil
	})
	if err != nil {
		return progress, err
	}

	blocks, errc := s.Downloader.DownloadBodies(ctx, headers)

	lastNumber := progress
	err = s.DB.Bodies.Update(ctx, func(tx kv.RwTx) error {
		nextTxID, err := rawdb.NextTxID(tx)
		if err != nil {
			return err
		}

		for block := range blocks {
			number := block.Header.Number
			hash := block.Header.Hash()

			body := &types.StoredBlockBody{
				BaseTxID:    nextTxID,
				TxCount:     uint32(len(block.Txs)),
				HasOmmers:   len(block.Ommers) > 0,
				HasWithdraw: len(block.Withdrawals) > 0,
			}
			if err := rawdb.WriteBody(tx, number, hash, body); err != nil {
				return err
			}
			for _, t := range block.Txs {
				if err := rawdb.WriteTransaction(tx, nextTxID, t); err != nil {
					return err
				}
				nextTxID++
			}
			if body.HasOmmers {
				if err := rawdb.WriteOmmers(tx, number, hash, block.Ommers); err != nil {
					return err
				}
			}
			if body.HasWithdraw {
				if err := rawdb.WriteWithdrawals(tx, number, hash, block.Withdrawals); err != nil {
					return err
				}
			}
			lastNumber = number
			s.Logger.Debug("bodies stage: inserted body", "number", number, "txs", len(block.Txs))
		}

		if err := <-errc; err != nil {
			return fmt.Errorf("bodies stage: downloader: %w", err)
		}
		if lastNumber != target {
			return &errs.ChannelClosed{What: "body"}
		}

		return stages.SaveStageProgress(tx, stages.Bodies, lastNumber)
	})
	if err != nil {
		return progress, err
	}
	return lastNumber, nil
}
