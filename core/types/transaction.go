package types

import (
	"bytes"
	"math/big"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/rlp"
)

// Transaction is a legacy/EIP-155-signed transaction. Type-2 (dynamic fee)
// and access-list fields are intentionally not modeled: the light sync
// forwards opaque transaction bytes to the executor and only needs nonce,
// to, and the signature to recover the sender itself and compute the tx
// hash/ordering; the executor is responsible for gas accounting.
type Transaction struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address // nil for contract creation
	Value    *big.Int
	Data     []byte

	V *big.Int
	R *big.Int
	S *big.Int
}

func (t *Transaction) encode() []byte {
	var buf bytes.Buffer
	rlp.List(&buf, func(b *bytes.Buffer) {
		rlp.EncodeUint64(b, t.Nonce)
		rlp.EncodeBigInt(b, t.GasPrice)
		rlp.EncodeUint64(b, t.Gas)
		if t.To != nil {
			rlp.EncodeBytes(b, t.To.Bytes())
		} else {
			rlp.EncodeBytes(b, nil)
		}
		rlp.EncodeBigInt(b, t.Value)
		rlp.EncodeBytes(b, t.Data)
		rlp.EncodeBigInt(b, t.V)
		rlp.EncodeBigInt(b, t.R)
		rlp.EncodeBigInt(b, t.S)
	})
	return buf.Bytes()
}

// EncodeRLP serializes the transaction for storage in the Transactions
// table, keyed by its auto-increment tx id.
func (t *Transaction) EncodeRLP() []byte { return t.encode() }

func (t *Transaction) Hash() common.Hash { return common.HashData(t.encode()) }

// SignatureValues returns the raw signature, used by sender recovery.
func (t *Transaction) SignatureValues() (v, r, s *big.Int) { return t.V, t.R, t.S }

func DecodeTransactionRLP(enc []byte) (*Transaction, error) {
	s := rlp.NewStream(enc)
	list, err := s.EnterList()
	if err != nil {
		return nil, err
	}
	t := &Transaction{}
	if t.Nonce, err = list.Uint64(); err != nil {
		return nil, err
	}
	if t.GasPrice, err = list.BigInt(); err != nil {
		return nil, err
	}
	if t.Gas, err = list.Uint64(); err != nil {
		return nil, err
	}
	toBytes, err := list.Bytes()
	if err != nil {
		return nil, err
	}
	if len(toBytes) > 0 {
		a := common.BytesToAddress(toBytes)
		t.To = &a
	}
	if t.Value, err = list.BigInt(); err != nil {
		return nil, err
	}
	if t.Data, err = list.Bytes(); err != nil {
		return nil, err
	}
	if t.V, err = list.BigInt(); err != nil {
		return nil, err
	}
	if t.R, err = list.BigInt(); err != nil {
		return nil, err
	}
	if t.S, err = list.BigInt(); err != nil {
		return nil, err
	}
	return t, nil
}
