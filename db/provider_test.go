package db

import (
	"context"
	"testing"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/erigon-lib/types/accounts"
	"github.com/erigontech/synclight/core/rawdb"
	"github.com/holiman/uint256"
)

// mustHash and mustAddress wrap the (value, error) hex parsers for fixed
// test literals.
func mustHash(s string) common.Hash {
	h, err := common.HexToHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

func mustAddress(s string) common.Address {
	a, err := common.HexToAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func TestWithReadTxReadsAccountStorageAndBlockHash(t *testing.T) {
	split, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer split.Close()

	addr := mustAddress("0x00000000000000000000000000000000000042")
	code := []byte{0x60, 0x00, 0x60, 0x00}
	codeHash := common.HashData(code)

	ctx := context.Background()
	err = split.State.Update(ctx, func(tx kv.RwTx) error {
		acct := &accounts.Account{Nonce: 1, Balance: *uint256.NewInt(7), Incarnation: 1, CodeHash: codeHash}
		if err := rawdb.WriteAccount(tx, addr, acct); err != nil {
			return err
		}
		if err := rawdb.WriteCode(tx, codeHash, code); err != nil {
			return err
		}
		return rawdb.WriteStorage(tx, addr, 1, mustHash("0x01"), mustHash("0x99"))
	})
	if err != nil {
		t.Fatalf("seed state: %v", err)
	}

	blockHash := mustHash("0xbeef")
	err = split.Headers.Update(ctx, func(tx kv.RwTx) error {
		return rawdb.WriteCanonicalHash(tx, 42, blockHash)
	})
	if err != nil {
		t.Fatalf("seed headers: %v", err)
	}

	err = WithReadTx(ctx, split, 16, func(p *StateProvider) error {
		acct, err := p.BasicAccount(addr)
		if err != nil {
			return err
		}
		if acct == nil || acct.Nonce != 1 {
			t.Fatalf("BasicAccount = %+v, want nonce 1", acct)
		}

		val, err := p.Storage(addr, 1, mustHash("0x01"))
		if err != nil {
			return err
		}
		if val != mustHash("0x99") {
			t.Fatalf("Storage = %s, want 0x99", val.String())
		}

		gotCode, err := p.Code(codeHash)
		if err != nil {
			return err
		}
		if string(gotCode) != string(code) {
			t.Fatalf("Code = %x, want %x", gotCode, code)
		}
		// A second read must come back from the cache and still match.
		gotCodeAgain, err := p.Code(codeHash)
		if err != nil {
			return err
		}
		if string(gotCodeAgain) != string(code) {
			t.Fatalf("cached Code = %x, want %x", gotCodeAgain, code)
		}

		hash, err := p.BlockHash(42)
		if err != nil {
			return err
		}
		if hash != blockHash {
			t.Fatalf("BlockHash(42) = %s, want %s", hash.String(), blockHash.String())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithReadTx: %v", err)
	}
}

func TestStateProviderCodeForEmptyHashIsNil(t *testing.T) {
	split, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer split.Close()

	err = WithReadTx(context.Background(), split, 16, func(p *StateProvider) error {
		code, err := p.Code(accounts.EmptyCodeHash)
		if err != nil {
			return err
		}
		if code != nil {
			t.Fatalf("Code(EmptyCodeHash) = %x, want nil", code)
		}
		code, err = p.Code(common.Hash{})
		if err != nil {
			return err
		}
		if code != nil {
			t.Fatalf("Code(zero hash) = %x, want nil", code)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithReadTx: %v", err)
	}
}
