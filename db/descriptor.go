// Package db implements the split-database bootstrap: describing each
// environment's genesis contents, restoring a newer remote snapshot before
// open, and the read-only cross-environment state view the executor reads
// through. Grounded on the original Rust database/{descriptor,init,split}.rs
// module, reworked into erigon's kv.RwTx idiom.
package db

import (
	"context"
	"fmt"

	"github.com/erigontech/erigon-lib/chain"
	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/erigon-lib/types/accounts"
	"github.com/erigontech/synclight/core/rawdb"
	"github.com/erigontech/synclight/core/types"
	"github.com/holiman/uint256"
)

// GenesisHashMismatch is returned when a database already has genesis data
// that disagrees with the genesis spec supplied for this run.
type GenesisHashMismatch struct {
	Database string
	Want     common.Hash
	Have     common.Hash
}

func (e *GenesisHashMismatch) Error() string {
	return fmt.Sprintf("%s: genesis hash mismatch: configured %s, on-disk %s", e.Database, e.Want, e.Have)
}

// Descriptor describes one split environment's default (genesis) content
// and how to read back its current sync progress.
type Descriptor interface {
	// EnsureGenesis writes the genesis-block content for this environment
	// unless that content is already present. Only the headers environment
	// compares what it finds against g (a different canonical hash at the
	// genesis number is a GenesisHashMismatch); the bodies and state
	// environments look for g's own genesis body or first alloc account
	// and do not detect a different genesis already on disk.
	EnsureGenesis(ctx context.Context, rw kv.RwTx, g *chain.Genesis) error
	Name() string
}

type HeadersDescriptor struct{}

func (HeadersDescriptor) Name() string { return "headers" }

func (HeadersDescriptor) EnsureGenesis(_ context.Context, tx kv.RwTx, g *chain.Genesis) error {
	header := types.GenesisHeader(g)
	hash := header.Hash()

	existing, err := rawdb.ReadCanonicalHash(tx, g.Number)
	if err != nil {
		return err
	}
	if existing != (common.Hash{}) {
		if existing != hash {
			return &GenesisHashMismatch{Database: "headers", Want: hash, Have: existing}
		}
		return nil
	}
	if err := rawdb.WriteCanonicalHash(tx, g.Number, hash); err != nil {
		return err
	}
	if err := rawdb.WriteHeader(tx, header); err != nil {
		return err
	}
	return rawdb.WriteTD(tx, g.Number, hash, header.Difficulty)
}

type BodiesDescriptor struct{}

func (BodiesDescriptor) Name() string { return "bodies" }

func (BodiesDescriptor) EnsureGenesis(_ context.Context, tx kv.RwTx, g *chain.Genesis) error {
	header := types.GenesisHeader(g)
	hash := header.Hash()
	existing, err := rawdb.ReadBody(tx, g.Number, hash)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return rawdb.WriteBody(tx, g.Number, hash, &types.StoredBlockBody{})
}

type StateDescriptor struct{}

func (StateDescriptor) Name() string { return "state" }

func (StateDescriptor) EnsureGenesis(_ context.Context, tx kv.RwTx, g *chain.Genesis) error {
	existing, err := rawdb.ReadAccount(tx, firstAllocAddress(g))
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	for addr, alloc := range g.Alloc {
		bal, overflow := uint256.FromBig(alloc.Balance)
		if overflow {
			return fmt.Errorf("state descriptor: genesis balance for %s overflows uint256", addr)
		}
		a := &accounts.Account{Nonce: alloc.Nonce, Balance: *bal}
		if len(alloc.Code) > 0 {
			a.CodeHash = common.HashData(alloc.Code)
			a.Incarnation = 1
			if err := rawdb.WriteCode(tx, a.CodeHash, alloc.Code); err != nil {
				return err
			}
		}
		if err := rawdb.WriteAccount(tx, addr, a); err != nil {
			return err
		}
		for k, v := range alloc.Storage {
			if err := rawdb.WriteStorage(tx, addr, a.Incarnation, k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// firstAllocAddress is a cheap "has genesis already run" probe: if the
// first allocation's account row already exists, assume the whole genesis
// write previously succeeded (it runs as a single transaction, so it's
// all-or-nothing).
func firstAllocAddress(g *chain.Genesis) common.Address {
	for addr := range g.Alloc {
		return addr
	}
	return common.Address{}
}
