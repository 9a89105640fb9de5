package db

import (
	"context"
	"fmt"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/erigon-lib/types/accounts"
	"github.com/erigontech/synclight/core/rawdb"
	lru "github.com/hashicorp/golang-lru/v2"
)

// StateProvider is the read-only account/storage/block-hash view the
// executor reads through while applying a range of blocks: account and
// storage live in the state environment, canonical block hashes (for the
// BLOCKHASH opcode) live in the headers environment. Adapted from
// core/state's reader-interface shape (SetTx-per-batch, trace flag) and
// the original split-database's LatestSplitStateProvider.
type StateProvider struct {
	stateTx   kv.Tx
	headersTx kv.Tx
	codeCache *lru.Cache[common.Hash, []byte]
	trace     bool
}

// NewStateProvider wraps an already-open pair of read transactions. The
// bytecode cache is bounded at entries (not bytes) the way erigon's own
// small read-through caches are sized, since within one sub-range the same
// handful of contracts tend to repeat.
func NewStateProvider(stateTx, headersTx kv.Tx, codeCacheSize int) (*StateProvider, error) {
	cache, err := lru.New[common.Hash, []byte](codeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("state provider: new code cache: %w", err)
	}
	return &StateProvider{stateTx: stateTx, headersTx: headersTx, codeCache: cache}, nil
}

// SetTx swaps in a new pair of transactions, keeping the code cache. The
// StateStage does not call it; it builds a new provider for each chunk.
func (p *StateProvider) SetTx(stateTx, headersTx kv.Tx) {
	p.stateTx = stateTx
	p.headersTx = headersTx
}

func (p *StateProvider) SetTrace(trace bool) { p.trace = trace }

// BasicAccount returns the account at addr, or nil if it doesn't exist.
func (p *StateProvider) BasicAccount(addr common.Address) (*accounts.Account, error) {
	return rawdb.ReadAccount(p.stateTx, addr)
}

// Storage returns the value at (addr, incarnation, key).
func (p *StateProvider) Storage(addr common.Address, incarnation uint64, key common.Hash) (common.Hash, error) {
	return rawdb.ReadStorage(p.stateTx, addr, incarnation, key)
}

// Code returns the bytecode for codeHash, consulting the bounded cache
// before reading the Bytecodes table.
func (p *StateProvider) Code(codeHash common.Hash) ([]byte, error) {
	if codeHash == accounts.EmptyCodeHash || codeHash == (common.Hash{}) {
		return nil, nil
	}
	if code, ok := p.codeCache.Get(codeHash); ok {
		return code, nil
	}
	code, err := rawdb.ReadCode(p.stateTx, codeHash)
	if err != nil {
		return nil, err
	}
	p.codeCache.Add(codeHash, code)
	return code, nil
}

// BlockHash implements the BLOCKHASH opcode's data dependency: the
// canonical hash at number, read from the headers environment.
func (p *StateProvider) BlockHash(number uint64) (common.Hash, error) {
	return rawdb.ReadCanonicalHash(p.headersTx, number)
}

// WithReadTx opens a fresh read transaction pair against the state and
// headers environments and runs fn with a provider scoped to them.
func WithReadTx(ctx context.Context, d *SplitDatabase, codeCacheSize int, fn func(p *StateProvider) error) error {
	stateTx, err := d.State.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer stateTx.Rollback()
	headersTx, err := d.Headers.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer headersTx.Rollback()

	p, err := NewStateProvider(stateTx, headersTx, codeCacheSize)
	if err != nil {
		return err
	}
	return fn(p)
}
