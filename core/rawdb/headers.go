// Package rawdb implements table-level read/write helpers over kv.Tx,
// encoding/decoding the RLP and key-layout conventions of each table, the
// way erigon's core/rawdb package does for its own chaindata tables.
package rawdb

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/erigon-lib/rlp"
	"github.com/erigontech/synclight/core/types"
)

// EncodeBlockNumber returns the big-endian 8-byte key prefix used by every
// block-indexed table.
func EncodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

func DecodeBlockNumber(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// headerKey is block_num_u64 + hash, the Headers/HeaderTD table key shape.
func headerKey(number uint64, hash common.Hash) []byte {
	k := make([]byte, 8+common.HashLength)
	binary.BigEndian.PutUint64(k, number)
	copy(k[8:], hash.Bytes())
	return k
}

func ReadCanonicalHash(tx kv.Tx, number uint64) (common.Hash, error) {
	v, err := tx.GetOne(kv.CanonicalHeaders, EncodeBlockNumber(number))
	if err != nil {
		return common.Hash{}, err
	}
	if len(v) == 0 {
		return common.Hash{}, nil
	}
	return common.BytesToHash(v), nil
}

func WriteCanonicalHash(tx kv.RwTx, number uint64, hash common.Hash) error {
	return tx.Put(kv.CanonicalHeaders, EncodeBlockNumber(number), hash.Bytes())
}

func ReadHeader(tx kv.Tx, number uint64, hash common.Hash) (*types.Header, error) {
	v, err := tx.GetOne(kv.Headers, headerKey(number, hash))
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, nil
	}
	return types.DecodeHeaderRLP(v)
}

func WriteHeader(tx kv.RwTx, h *types.Header) error {
	return tx.Put(kv.Headers, headerKey(h.Number, h.Hash()), h.EncodeRLP())
}

func ReadHeaderByHash(tx kv.Tx, number uint64, hash common.Hash) (*types.Header, error) {
	return ReadHeader(tx, number, hash)
}

// HeaderByNumberPrefix finds any header stored at the given block number
// regardless of hash, by seeking the Headers cursor to the number's 8-byte
// key prefix. Used by the headers stage to detect a header left over from
// an interrupted previous run, before its hash is known.
func HeaderByNumberPrefix(tx kv.Tx, number uint64) (*types.Header, error) {
	c, err := tx.Cursor(kv.Headers)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	prefix := EncodeBlockNumber(number)
	k, v, err := c.Seek(prefix)
	if err != nil {
		return nil, err
	}
	if k == nil || len(k) < 8 || !bytes.Equal(k[:8], prefix) {
		return nil, nil
	}
	return types.DecodeHeaderRLP(v)
}

// ReadTD reads the RLP-encoded cumulative total difficulty at (number,
// hash), matching HeaderTD's "block_num_u64 + hash -> td (RLP)" shape. A
// big.Int, not a fixed-width integer, since mainnet's cumulative TD long
// ago exceeded the range of a uint64.
func ReadTD(tx kv.Tx, number uint64, hash common.Hash) (*big.Int, error) {
	v, err := tx.GetOne(kv.HeaderTD, headerKey(number, hash))
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return new(big.Int), nil
	}
	return rlp.NewStream(v).BigInt()
}

func WriteTD(tx kv.RwTx, number uint64, hash common.Hash, td *big.Int) error {
	var buf bytes.Buffer
	rlp.EncodeBigInt(&buf, td)
	return tx.Put(kv.HeaderTD, headerKey(number, hash), buf.Bytes())
}
