package stagedsync

import (
	"context"
	"math/big"
	"testing"

	"github.com/erigontech/erigon-lib/kv"
	log "github.com/erigontech/erigon-lib/log/v3"
	"github.com/erigontech/synclight/core/rawdb"
	"github.com/erigontech/synclight/core/types"
	"github.com/erigontech/synclight/db"
	"github.com/erigontech/synclight/downloader"
	"github.com/erigontech/synclight/eth/stagedsync/stages"
)

type fakeBodyDownloader struct {
	blocks []*types.Block
}

func (f *fakeBodyDownloader) DownloadBodies(ctx context.Context, headers []*types.Header) (<-chan *types.Block, <-chan error) {
	out := make(chan *types.Block, len(f.blocks))
	errc := make(chan error, 1)
	for _, b := range f.blocks {
		out <- b
	}
	close(out)
	errc <- nil
	return out, errc
}

func seedHeaders(t *testing.T, split *db.SplitDatabase, headers []*types.Header) {
	t.Helper()
	err := split.Headers.Update(context.Background(), func(tx kv.RwTx) error {
		for _, h := range headers {
			if err := rawdb.WriteHeader(tx, h); err != nil {
				return err
			}
			if err := rawdb.WriteCanonicalHash(tx, h.Number, h.Hash()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed headers: %v", err)
	}
}

func TestBodiesStageRunPersistsTransactionsWithIncreasingTxIDs(t *testing.T) {
	split, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	defer split.Close()

	headers := chainHeaders(3)
	seedHeaders(t, split, headers)

	to := mustAddress("0x00000000000000000000000000000000009999")
	blocks := make([]*types.Block, len(headers))
	for i, h := range headers {
		blocks[i] = &types.Block{
			Header: h,
			Txs: []*types.Transaction{
				{Nonce: uint64(i), GasPrice: big.NewInt(1), Gas: 21000, To: &to, Value: big.NewInt(1)},
				{Nonce: uint64(i) + 1, GasPrice: big.NewInt(1), Gas: 21000, To: &to, Value: big.NewInt(2)},
			},
		}
	}

	stage := &BodiesStage{DB: split, Downloader: &fakeBodyDownloader{blocks: blocks}, Logger: log.Root()}
	progress, err := stage.Run(context.Background(), 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if progress != 3 {
		t.Fatalf("progress = %d, want 3", progress)
	}

	err = split.Bodies.View(context.Background(), func(tx kv.Tx) error {
		var lastBaseTxID uint64
		for i, h := range headers {
			body, err := rawdb.ReadBody(tx, h.Number, h.Hash())
			if err != nil {
				return err
			}
			if body == nil {
				t.Fatalf("no body stored for block %d", h.Number)
			}
			if body.TxCount != 2 {
				t.Fatalf("block %d TxCount = %d, want 2", h.Number, body.TxCount)
			}
			if i > 0 && body.BaseTxID <= lastBaseTxID {
				t.Fatalf("block %d BaseTxID = %d, not strictly increasing from %d", h.Number, body.BaseTxID, lastBaseTxID)
			}
			lastBaseTxID = body.BaseTxID

			txs, err := rawdb.ReadTransactions(tx, body.BaseTxID, body.TxCount)
			if err != nil {
				return err
			}
			if len(txs) != 2 {
				t.Fatalf("block %d: read back %d transactions, want 2", h.Number, len(txs))
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestBodiesStageNothingToSyncWhenTargetBelowProgress(t *testing.T) {
	split, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	defer split.Close()

	err = split.Bodies.Update(context.Background(), func(tx kv.RwTx) error {
		return stages.SaveStageProgress(tx, stages.Bodies, 10)
	})
	if err != nil {
		t.Fatalf("seed progress: %v", err)
	}

	stage := &BodiesStage{DB: split, Downloader: &fakeBodyDownloader{}, Logger: log.Root()}
	progress, err := stage.Run(context.Background(), 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if progress != 10 {
		t.Fatalf("progress = %d, want unchanged 10", progress)
	}
}

func TestBodiesStageErrorsWhenDownloaderStopsShort(t *testing.T) {
	split, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	defer split.Close()

	headers := chainHeaders(3)
	seedHeaders(t, split, headers)

	// Only the first two blocks arrive; the downloader closes its channel
	// before reaching the requested target of 3.
	blocks := []*types.Block{{Header: headers[0]}, {Header: headers[1]}}
	stage := &BodiesStage{DB: split, Downloader: &fakeBodyDownloader{blocks: blocks}, Logger: log.Root()}

	if _, err := stage.Run(context.Background(), 3); err == nil {
		t.Fatal("expected an error when the downloader stops short of the target")
	}
}
