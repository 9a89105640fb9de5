package rawdb_test

import (
	"context"
	"testing"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/synclight/core/rawdb"
	"github.com/erigontech/synclight/db"
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

func TestWriteStorageOverwritingOneSlotLeavesSiblingSlotsIntact(t *testing.T) {
	split, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	defer split.Close()

	addr := mustAddress("0x00000000000000000000000000000000000042")
	k1, v1 := mustHash("0x01"), mustHash("0xaa")
	k2, v2 := mustHash("0x02"), mustHash("0xbb")

	err = split.State.Update(context.Background(), func(tx kv.RwTx) error {
		if err := rawdb.WriteStorage(tx, addr, 1, k1, v1); err != nil {
			return err
		}
		return rawdb.WriteStorage(tx, addr, 1, k2, v2)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	v1New := mustHash("0xcc")
	err = split.State.Update(context.Background(), func(tx kv.RwTx) error {
		return rawdb.WriteStorage(tx, addr, 1, k1, v1New)
	})
	if err != nil {
		t.Fatalf("overwrite k1: %v", err)
	}

	err = split.State.View(context.Background(), func(tx kv.Tx) error {
		got1, err := rawdb.ReadStorage(tx, addr, 1, k1)
		if err != nil {
			return err
		}
		if got1 != v1New {
			t.Fatalf("k1 = %s, want updated value %s", got1.String(), v1New.String())
		}
		got2, err := rawdb.ReadStorage(tx, addr, 1, k2)
		if err != nil {
			return err
		}
		if got2 != v2 {
			t.Fatalf("k2 = %s, want untouched sibling value %s (overwriting k1 must not wipe it)", got2.String(), v2.String())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestWriteStorageZeroValueDeletesSlot(t *testing.T) {
	split, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	defer split.Close()

	addr := mustAddress("0x00000000000000000000000000000000000043")
	key := mustHash("0x01")

	err = split.State.Update(context.Background(), func(tx kv.RwTx) error {
		if err := rawdb.WriteStorage(tx, addr, 1, key, mustHash("0xaa")); err != nil {
			return err
		}
		return rawdb.WriteStorage(tx, addr, 1, key, common.Hash{})
	})
	if err != nil {
		t.Fatalf("seed then clear: %v", err)
	}

	err = split.State.View(context.Background(), func(tx kv.Tx) error {
		got, err := rawdb.ReadStorage(tx, addr, 1, key)
		if err != nil {
			return err
		}
		if !got.IsZero() {
			t.Fatalf("key = %s, want zero after clearing", got.String())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
}
