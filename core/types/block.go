package types

import (
	"math/big"

	"github.com/erigontech/erigon-lib/chain"
	"github.com/erigontech/erigon-lib/common"
)

// Block pairs a header with its body, the unit the bodies stage writes and
// the state stage reads back out for execution.
type Block struct {
	Header      *Header
	Txs         []*Transaction
	Ommers      []*Header
	Withdrawals []*Withdrawal
}

// GenesisHeader builds the block-0 header from a chain.Genesis spec, used
// by the headers descriptor to seed CanonicalHeaders/Headers on first
// initialization.
func GenesisHeader(g *chain.Genesis) *Header {
	diff := g.Difficulty
	if diff == nil {
		diff = big.NewInt(0)
	}
	return &Header{
		ParentHash:  g.ParentHash,
		UncleHash:   EmptyUncleHash,
		StateRoot:   common.Hash{}, // filled in by the executor's genesis commit, not computed here
		TxRoot:      EmptyRootHash,
		ReceiptRoot: EmptyRootHash,
		Bloom:       make([]byte, 256),
		Difficulty:  diff,
		Number:      g.Number,
		GasLimit:    g.GasLimit,
		GasUsed:     0,
		Time:        g.Timestamp,
		Extra:       g.ExtraData,
		MixDigest:   g.MixHash,
		Nonce:       g.Nonce,
	}
}

// EmptyRootHash is the keccak256 hash of the RLP empty string (0x80), the
// root of an empty trie and so the canonical "no transactions"/"no
// receipts" root.
var EmptyRootHash = common.HashData([]byte{0x80})

// EmptyUncleHash is the keccak256 RLP hash of an empty ommers list.
var EmptyUncleHash = common.HashData([]byte{0xc0})
