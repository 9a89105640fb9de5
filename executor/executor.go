// Package executor declares the external EVM execution engine this system
// hands decoded blocks to and reads state changesets back from. The engine
// itself (an EVM, a precompiled binary, a remote service) is out of scope;
// this package fixes the collaborator interface and the changeset data
// model, grounded on original_source's reth_executor::execution_result
// types as destructured in state_sync.rs.
package executor

import (
	"context"
	"math/big"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/types/accounts"
	"github.com/erigontech/synclight/core/types"
	"github.com/erigontech/synclight/db"
)

// AccountChangeKind distinguishes how an account changed within a block,
// mirroring the Rust AccountInfoChangeSet enum (Changed/Created/Destroyed/
// NoChange).
type AccountChangeKind int

const (
	NoChange AccountChangeKind = iota
	Changed
	Created
	Destroyed
)

// StorageEntry is a single (key, old, new) storage slot change.
type StorageEntry struct {
	Key common.Hash
	Old common.Hash
	New common.Hash
}

// AccountChangeSet is one account's change within a block: the new account
// state (nil when Destroyed), whether its storage should be wiped before
// applying Storage (set when an account is replaced at the same address
// with a new incarnation, or destroyed), and the individual storage diffs.
type AccountChangeSet struct {
	Address common.Address
	Kind    AccountChangeKind
	Account *accounts.Account
	// Incarnation identifies which storage generation the Storage entries
	// are written under, independent of Account (which is nil when Kind ==
	// Destroyed). WipeStorage clears the address under every incarnation.
	Incarnation uint64
	WipeStorage bool
	Storage     []StorageEntry
	NewBytecode []byte // set when Kind == Created/Changed and code changed
	NewCodeHash common.Hash
}

// BlockChangeSet is every account touched while executing one block.
type BlockChangeSet struct {
	BlockNumber uint64
	Accounts    []AccountChangeSet
}

// ExecutionResult is what the executor returns for a contiguous range of
// blocks: per-transaction-block changesets in order, plus the union of new
// contract bytecodes introduced in the range (so the caller can persist
// Bytecodes rows once instead of per account).
type ExecutionResult struct {
	TxChangesets    []BlockChangeSet
	BlockChangesets []BlockChangeSet
	NewBytecodes    map[common.Hash][]byte
}

// ExecutionError wraps a failure from the executor collaborator, part of
// the error taxonomy (spec §7): fatal to the current StateStage run.
type ExecutionError struct {
	BlockNumber uint64
	Err         error
}

func (e *ExecutionError) Error() string {
	return "executor: block " + itoa(e.BlockNumber) + ": " + e.Err.Error()
}
func (e *ExecutionError) Unwrap() error { return e.Err }

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Executor executes a contiguous range of already-downloaded, sender-
// recovered blocks against state read through the given StateProvider and
// returns the resulting changesets. It does not mutate the caller's
// database; applying ExecutionResult to PlainAccountState/
// PlainStorageState/Bytecodes is the StateStage's job, mirroring how
// original_source hands a LatestSplitStateProvider into SubState and reads
// the changeset back out rather than letting the executor write directly.
// totalDifficulties[i] is the running total difficulty through
// blocks[i].Header.Number, reconstructed by the state stage from genesis.
type Executor interface {
	ExecuteRange(ctx context.Context, state *db.StateProvider, blocks []*types.Block, totalDifficulties []*big.Int, senders [][]common.Address) (*ExecutionResult, error)
}
