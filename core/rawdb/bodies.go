package rawdb

import (
	"encoding/binary"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/synclight/core/types"
)

func bodyKey(number uint64, hash common.Hash) []byte { return headerKey(number, hash) }

func ReadBody(tx kv.Tx, number uint64, hash common.Hash) (*types.StoredBlockBody, error) {
	v, err := tx.GetOne(kv.BlockBody, bodyKey(number, hash))
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, nil
	}
	return types.DecodeStoredBlockBodyRLP(v)
}

func WriteBody(tx kv.RwTx, number uint64, hash common.Hash, b *types.StoredBlockBody) error {
	return tx.Put(kv.BlockBody, bodyKey(number, hash), b.EncodeRLP())
}

func txIDKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

func ReadTransaction(tx kv.Tx, id uint64) (*types.Transaction, error) {
	v, err := tx.GetOne(kv.Transactions, txIDKey(id))
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, nil
	}
	return types.DecodeTransactionRLP(v)
}

func WriteTransaction(tx kv.RwTx, id uint64, t *types.Transaction) error {
	return tx.Put(kv.Transactions, txIDKey(id), t.EncodeRLP())
}

// ReadTransactions reads count transactions starting at baseTxID, in order.
func ReadTransactions(tx kv.Tx, baseTxID uint64, count uint32) ([]*types.Transaction, error) {
	out := make([]*types.Transaction, 0, count)
	for i := uint32(0); i < count; i++ {
		t, err := ReadTransaction(tx, baseTxID+uint64(i))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func ReadOmmers(tx kv.Tx, number uint64, hash common.Hash) ([]*types.Header, error) {
	v, err := tx.GetOne(kv.Ommers, bodyKey(number, hash))
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, nil
	}
	return types.DecodeOmmersRLP(v)
}

func WriteOmmers(tx kv.RwTx, number uint64, hash common.Hash, ommers []*types.Header) error {
	if len(ommers) == 0 {
		return nil
	}
	return tx.Put(kv.Ommers, bodyKey(number, hash), types.EncodeOmmersRLP(ommers))
}

func ReadWithdrawals(tx kv.Tx, number uint64, hash common.Hash) ([]*types.Withdrawal, error) {
	v, err := tx.GetOne(kv.Withdrawals, bodyKey(number, hash))
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, nil
	}
	return types.DecodeWithdrawalsRLP(v)
}

func WriteWithdrawals(tx kv.RwTx, number uint64, hash common.Hash, ws []*types.Withdrawal) error {
	if len(ws) == 0 {
		return nil
	}
	return tx.Put(kv.Withdrawals, bodyKey(number, hash), types.EncodeWithdrawalsRLP(ws))
}

// NextTxID returns the next free auto-increment transaction id, derived
// from the last written body's BaseTxID+TxCount, matching the bodies
// stage's sequential tx-id bookkeeping.
func NextTxID(tx kv.Tx) (uint64, error) {
	c, err := tx.Cursor(kv.BlockBody)
	if err != nil {
		return 0, err
	}
	defer c.Close()
	_, v, err := c.Last()
	if err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, nil
	}
	b, err := types.DecodeStoredBlockBodyRLP(v)
	if err != nil {
		return 0, err
	}
	return b.BaseTxID + uint64(b.TxCount), nil
}
