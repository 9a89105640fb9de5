package types

import (
	"bytes"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/rlp"
)

// Withdrawal is a post-Shanghai consensus-layer validator withdrawal.
type Withdrawal struct {
	Index          uint64
	ValidatorIndex uint64
	Address        common.Address
	Amount         uint64 // in Gwei
}

func (w *Withdrawal) encodeInto(buf *bytes.Buffer) {
	rlp.List(buf, func(b *bytes.Buffer) {
		rlp.EncodeUint64(b, w.Index)
		rlp.EncodeUint64(b, w.ValidatorIndex)
		rlp.EncodeBytes(b, w.Address.Bytes())
		rlp.EncodeUint64(b, w.Amount)
	})
}

func decodeWithdrawal(s *rlp.Stream) (*Withdrawal, error) {
	list, err := s.EnterList()
	if err != nil {
		return nil, err
	}
	w := &Withdrawal{}
	if w.Index, err = list.Uint64(); err != nil {
		return nil, err
	}
	if w.ValidatorIndex, err = list.Uint64(); err != nil {
		return nil, err
	}
	addrB, err := list.Bytes()
	if err != nil {
		return nil, err
	}
	w.Address = common.BytesToAddress(addrB)
	if w.Amount, err = list.Uint64(); err != nil {
		return nil, err
	}
	return w, nil
}

// StoredBlockBody is the value stored in the BlockBody table: bookkeeping
// to locate a block's transactions in the Transactions table plus whether
// it has ommers/withdrawals to look up in their own tables.
type StoredBlockBody struct {
	BaseTxID    uint64
	TxCount     uint32
	HasOmmers   bool
	HasWithdraw bool
}

func (b *StoredBlockBody) EncodeRLP() []byte {
	var buf bytes.Buffer
	rlp.List(&buf, func(w *bytes.Buffer) {
		rlp.EncodeUint64(w, b.BaseTxID)
		rlp.EncodeUint64(w, uint64(b.TxCount))
		rlp.EncodeUint64(w, boolToUint64(b.HasOmmers))
		rlp.EncodeUint64(w, boolToUint64(b.HasWithdraw))
	})
	return buf.Bytes()
}

func DecodeStoredBlockBodyRLP(enc []byte) (*StoredBlockBody, error) {
	s := rlp.NewStream(enc)
	list, err := s.EnterList()
	if err != nil {
		return nil, err
	}
	b := &StoredBlockBody{}
	if b.BaseTxID, err = list.Uint64(); err != nil {
		return nil, err
	}
	txCount, err := list.Uint64()
	if err != nil {
		return nil, err
	}
	b.TxCount = uint32(txCount)
	hasOmmers, err := list.Uint64()
	if err != nil {
		return nil, err
	}
	b.HasOmmers = hasOmmers != 0
	hasWithdraw, err := list.Uint64()
	if err != nil {
		return nil, err
	}
	b.HasWithdraw = hasWithdraw != 0
	return b, nil
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// EncodeOmmersRLP / DecodeOmmersRLP encode the []*Header ommers list stored
// in the Ommers table.
func EncodeOmmersRLP(ommers []*Header) []byte {
	var buf bytes.Buffer
	rlp.List(&buf, func(b *bytes.Buffer) {
		for _, h := range ommers {
			b.Write(h.encode())
		}
	})
	return buf.Bytes()
}

func DecodeOmmersRLP(enc []byte) ([]*Header, error) {
	s := rlp.NewStream(enc)
	list, err := s.EnterList()
	if err != nil {
		return nil, err
	}
	var out []*Header
	for list.Len() > 0 {
		inner, err := list.EnterList()
		if err != nil {
			return nil, err
		}
		h, err := decodeHeaderFromList(inner)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// EncodeWithdrawalsRLP / DecodeWithdrawalsRLP encode the []*Withdrawal list
// stored in the Withdrawals table.
func EncodeWithdrawalsRLP(ws []*Withdrawal) []byte {
	var buf bytes.Buffer
	rlp.List(&buf, func(b *bytes.Buffer) {
		for _, w := range ws {
			w.encodeInto(b)
		}
	})
	return buf.Bytes()
}

func DecodeWithdrawalsRLP(enc []byte) ([]*Withdrawal, error) {
	s := rlp.NewStream(enc)
	list, err := s.EnterList()
	if err != nil {
		return nil, err
	}
	var out []*Withdrawal
	for list.Len() > 0 {
		w, err := decodeWithdrawal(list)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}
