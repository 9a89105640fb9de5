// Package stages names the sync stages and reads/writes their progress
// markers, the way erigon's eth/stagedsync/stages package does for
// stages.GetStageProgress/SaveStageProgress.
package stages

import (
	"context"

	"github.com/erigontech/erigon-lib/kv"
)

type SyncStage string

const (
	Headers   SyncStage = "Headers"
	Bodies    SyncStage = "Bodies"
	Execution SyncStage = "Execution"
)

// GetStageProgress reads the highest block number the given stage has
// processed in this environment, or 0 if it has never run.
func GetStageProgress(ctx context.Context, tx kv.Tx, stage SyncStage) (uint64, error) {
	v, err := tx.GetOne(kv.SyncStageProgress, []byte(stage))
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, nil
	}
	var n uint64
	for _, b := range v {
		n = n<<8 | uint64(b)
	}
	return n, nil
}

// SaveStageProgress records the highest block number the given stage has
// processed.
func SaveStageProgress(tx kv.RwTx, stage SyncStage, progress uint64) error {
	enc := make([]byte, 8)
	n := progress
	for i := 7; i >= 0; i-- {
		enc[i] = byte(n)
		n >>= 8
	}
	return tx.Put(kv.SyncStageProgress, []byte(stage), enc)
}
