// Package types defines the block, header, transaction, and withdrawal
// records this sync system moves between the network/downloader,
// mdbx, and the external execution engine.
package types

import (
	"bytes"
	"math/big"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/rlp"
)

// Header is a block header. Only the fields the light sync needs to verify
// chain linkage and hand off to the executor are kept; consensus-rule
// fields (difficulty-adjustment inputs, mix digest validation, etc.) are
// carried opaquely since validating them is the external executor's job.
type Header struct {
	ParentHash  common.Hash
	UncleHash   common.Hash
	Coinbase    common.Address
	StateRoot   common.Hash
	TxRoot      common.Hash
	ReceiptRoot common.Hash
	Bloom       []byte
	Difficulty  *big.Int
	Number      uint64
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
	MixDigest   common.Hash
	Nonce       uint64

	WithdrawalsRoot *common.Hash
	BaseFee         *big.Int
}

// Hash returns the keccak256 of the header's RLP encoding, the block hash.
func (h *Header) Hash() common.Hash {
	return common.HashData(h.encode())
}

func (h *Header) encode() []byte {
	var buf bytes.Buffer
	rlp.List(&buf, func(b *bytes.Buffer) {
		rlp.EncodeBytes(b, h.ParentHash.Bytes())
		rlp.EncodeBytes(b, h.UncleHash.Bytes())
		rlp.EncodeBytes(b, h.Coinbase.Bytes())
		rlp.EncodeBytes(b, h.StateRoot.Bytes())
		rlp.EncodeBytes(b, h.TxRoot.Bytes())
		rlp.EncodeBytes(b, h.ReceiptRoot.Bytes())
		rlp.EncodeBytes(b, h.Bloom)
		rlp.EncodeBigInt(b, h.Difficulty)
		rlp.EncodeUint64(b, h.Number)
		rlp.EncodeUint64(b, h.GasLimit)
		rlp.EncodeUint64(b, h.GasUsed)
		rlp.EncodeUint64(b, h.Time)
		rlp.EncodeBytes(b, h.Extra)
		rlp.EncodeBytes(b, h.MixDigest.Bytes())
		rlp.EncodeUint64(b, h.Nonce)
		if h.BaseFee != nil {
			rlp.EncodeBigInt(b, h.BaseFee)
		}
		if h.WithdrawalsRoot != nil {
			rlp.EncodeBytes(b, h.WithdrawalsRoot.Bytes())
		}
	})
	return buf.Bytes()
}

// EncodeRLP serializes the header for storage in the Headers table.
func (h *Header) EncodeRLP() []byte { return h.encode() }

// DecodeHeaderRLP parses the bytes produced by EncodeRLP.
func DecodeHeaderRLP(enc []byte) (*Header, error) {
	s := rlp.NewStream(enc)
	list, err := s.EnterList()
	if err != nil {
		return nil, err
	}
	return decodeHeaderFromList(list)
}

// decodeHeaderFromList decodes header fields from a stream already
// positioned inside the header's RLP list, used both at the top level and
// when a header appears nested inside an ommers list.
func decodeHeaderFromList(list *rlp.Stream) (*Header, error) {
	h := &Header{}
	fields := []func() error{
		func() (err error) { h.ParentHash, err = readHash(list); return },
		func() (err error) { h.UncleHash, err = readHash(list); return },
		func() (err error) { h.Coinbase, err = readAddress(list); return },
		func() (err error) { h.StateRoot, err = readHash(list); return },
		func() (err error) { h.TxRoot, err = readHash(list); return },
		func() (err error) { h.ReceiptRoot, err = readHash(list); return },
		func() (err error) { h.Bloom, err = list.Bytes(); return },
		func() (err error) { h.Difficulty, err = list.BigInt(); return },
		func() (err error) { h.Number, err = list.Uint64(); return },
		func() (err error) { h.GasLimit, err = list.Uint64(); return },
		func() (err error) { h.GasUsed, err = list.Uint64(); return },
		func() (err error) { h.Time, err = list.Uint64(); return },
		func() (err error) { h.Extra, err = list.Bytes(); return },
		func() (err error) { h.MixDigest, err = readHash(list); return },
		func() (err error) { h.Nonce, err = list.Uint64(); return },
	}
	for _, f := range fields {
		if err := f(); err != nil {
			return nil, err
		}
	}
	if list.Len() > 0 {
		bf, err := list.BigInt()
		if err != nil {
			return nil, err
		}
		h.BaseFee = bf
	}
	if list.Len() > 0 {
		wr, err := readHash(list)
		if err != nil {
			return nil, err
		}
		h.WithdrawalsRoot = &wr
	}
	return h, nil
}

func readHash(s *rlp.Stream) (common.Hash, error) {
	b, err := s.Bytes()
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(b), nil
}

func readAddress(s *rlp.Stream) (common.Address, error) {
	b, err := s.Bytes()
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(b), nil
}
