package executor

import (
	"context"
	"math/big"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/synclight/core/types"
	"github.com/erigontech/synclight/db"
)

// NoopExecutor satisfies Executor without running an EVM: the execution
// engine itself is an out-of-scope external collaborator (spec.md §1), so
// this is the wiring-only stand-in cmd/synclight uses until a real engine
// (an in-process EVM, or a call out to one) is plugged in. It returns an
// empty changeset for every block, advancing the state stage's progress
// marker without touching account or storage state.
type NoopExecutor struct{}

func (NoopExecutor) ExecuteRange(ctx context.Context, state *db.StateProvider, blocks []*types.Block, totalDifficulties []*big.Int, senders [][]common.Address) (*ExecutionResult, error) {
	result := &ExecutionResult{NewBytecodes: map[common.Hash][]byte{}}
	for _, b := range blocks {
		result.TxChangesets = append(result.TxChangesets, BlockChangeSet{BlockNumber: b.Header.Number})
		result.BlockChangesets = append(result.BlockChangesets, BlockChangeSet{BlockNumber: b.Header.Number})
	}
	return result, nil
}
