// Package chain holds the chain configuration: chain id, genesis
// parameters, and the hard-fork activation blocks the state stage needs to
// decide EIP-161 empty-account clearing.
package chain

import (
	"math/big"

	"github.com/erigontech/erigon-lib/common"
)

// Config mirrors the subset of go-ethereum/erigon's params.ChainConfig this
// system needs: just enough to know whether SpuriousDragon (EIP-161) is
// active at a given block number.
type Config struct {
	ChainName string
	ChainID   *big.Int

	HomesteadBlock      *big.Int
	EIP150Block         *big.Int
	EIP155Block         *big.Int
	SpuriousDragonBlock *big.Int
	ByzantiumBlock      *big.Int
}

// IsSpuriousDragon reports whether SpuriousDragon (EIP-161) is active at
// blockNum, gating the empty-account-clearing edge case in state
// application.
func (c *Config) IsSpuriousDragon(blockNum uint64) bool {
	return isForked(c.SpuriousDragonBlock, blockNum)
}

func isForked(fork *big.Int, blockNum uint64) bool {
	if fork == nil {
		return false
	}
	return fork.Cmp(new(big.Int).SetUint64(blockNum)) <= 0
}

// GenesisAccount is a single pre-funded genesis allocation entry.
type GenesisAccount struct {
	Balance *big.Int
	Nonce   uint64
	Code    []byte
	Storage map[common.Hash]common.Hash
}

// Genesis describes the genesis block header fields and account
// allocations needed to bootstrap all three split databases.
type Genesis struct {
	Config     *Config
	Number     uint64
	ParentHash common.Hash
	Timestamp  uint64
	Difficulty *big.Int
	GasLimit   uint64
	ExtraData  []byte
	Nonce      uint64
	MixHash    common.Hash

	Alloc map[common.Address]GenesisAccount
}
