package rawdb

import (
	"bytes"
	"encoding/binary"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/erigon-lib/types/accounts"
)

// accountKey and storagePrefix build the PlainAccountState/PlainStorageState
// keys: the address, followed for storage rows by the big-endian
// incarnation. PlainStorageState is dup-sorted on this prefix; the duplicate
// value is storageKey(32 bytes) || storageValue.
func accountKey(addr common.Address) []byte { return addr.Bytes() }

func storagePrefix(addr common.Address, incarnation uint64) []byte {
	k := make([]byte, common.AddressLength+8)
	copy(k, addr.Bytes())
	binary.BigEndian.PutUint64(k[common.AddressLength:], incarnation)
	return k
}

func ReadAccount(tx kv.Tx, addr common.Address) (*accounts.Account, error) {
	v, err := tx.GetOne(kv.PlainAccountState, accountKey(addr))
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, nil
	}
	a := &accounts.Account{}
	if err := a.DecodeForStorage(v); err != nil {
		return nil, err
	}
	return a, nil
}

func WriteAccount(tx kv.RwTx, addr common.Address, a *accounts.Account) error {
	return tx.Put(kv.PlainAccountState, accountKey(addr), a.EncodeForStorage())
}

func DeleteAccount(tx kv.RwTx, addr common.Address) error {
	return tx.Delete(kv.PlainAccountState, accountKey(addr))
}

func WriteCode(tx kv.RwTx, codeHash common.Hash, code []byte) error {
	if len(code) == 0 {
		return nil
	}
	return tx.Put(kv.Bytecodes, codeHash.Bytes(), code)
}

func ReadCode(tx kv.Tx, codeHash common.Hash) ([]byte, error) {
	if codeHash == accounts.EmptyCodeHash || codeHash == (common.Hash{}) {
		return nil, nil
	}
	return tx.GetOne(kv.Bytecodes, codeHash.Bytes())
}

// ReadStorage returns the value at (addr, incarnation, key), or a zero hash
// if unset (matching the EVM's "unset storage reads as zero" convention).
func ReadStorage(tx kv.Tx, addr common.Address, incarnation uint64, key common.Hash) (common.Hash, error) {
	c, err := tx.CursorDupSort(kv.PlainStorageState)
	if err != nil {
		return common.Hash{}, err
	}
	defer c.Close()
	v, err := c.SeekBothRange(storagePrefix(addr, incarnation), key.Bytes())
	if err != nil {
		return common.Hash{}, err
	}
	if len(v) < common.HashLength || !bytes.Equal(v[:common.HashLength], key.Bytes()) {
		return common.Hash{}, nil
	}
	return common.BytesToHash(v[common.HashLength:]), nil
}

// WriteStorage upserts (addr, incarnation, key) -> value, replacing any
// existing dup entry for the same key.
func WriteStorage(tx kv.RwTx, addr common.Address, incarnation uint64, key, value common.Hash) error {
	c, err := tx.RwCursorDupSort(kv.PlainStorageState)
	if err != nil {
		return err
	}
	defer c.Close()
	prefix := storagePrefix(addr, incarnation)
	existing, err := c.SeekBothRange(prefix, key.Bytes())
	if err != nil {
		return err
	}
	if len(existing) >= common.HashLength && bytes.Equal(existing[:common.HashLength], key.Bytes()) {
		// Only the matched slot's duplicate, not every slot of this
		// address+incarnation (that's WipeStorage's job).
		if err := c.DeleteCurrent(); err != nil {
			return err
		}
	}
	if value.IsZero() {
		return nil
	}
	dup := make([]byte, 0, common.HashLength*2)
	dup = append(dup, key.Bytes()...)
	dup = append(dup, value.Bytes()...)
	return c.Put(prefix, dup)
}

// WipeStorage deletes every storage row of addr under every incarnation,
// used when an executor changeset reports wipe_storage (account
// self-destructed or replaced at the same address). The incarnation
// argument does not narrow the deletion.
func WipeStorage(tx kv.RwTx, addr common.Address, _ uint64) error {
	c, err := tx.RwCursorDupSort(kv.PlainStorageState)
	if err != nil {
		return err
	}
	defer c.Close()
	for {
		k, _, err := c.Seek(addr.Bytes())
		if err != nil {
			return err
		}
		if k == nil || !bytes.HasPrefix(k, addr.Bytes()) {
			return nil
		}
		if err := c.DeleteCurrentDuplicates(); err != nil {
			return err
		}
	}
}
