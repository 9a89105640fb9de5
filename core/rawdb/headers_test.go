package rawdb_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/synclight/core/rawdb"
	"github.com/erigontech/synclight/db"
)

func TestReadWriteTDSurvivesValuesBeyondUint64Range(t *testing.T) {
	split, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	defer split.Close()

	hash := mustHash("0xbeef")
	// mainnet's real cumulative total difficulty is well past the range of
	// a uint64; this value exercises that the encoding carries it intact.
	want := new(big.Int).Lsh(big.NewInt(1), 70)

	err = split.Headers.Update(context.Background(), func(tx kv.RwTx) error {
		return rawdb.WriteTD(tx, 1, hash, want)
	})
	if err != nil {
		t.Fatalf("WriteTD: %v", err)
	}

	err = split.Headers.View(context.Background(), func(tx kv.Tx) error {
		got, err := rawdb.ReadTD(tx, 1, hash)
		if err != nil {
			return err
		}
		if got.Cmp(want) != 0 {
			t.Fatalf("ReadTD = %s, want %s", got, want)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestReadTDMissingIsZero(t *testing.T) {
	split, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	defer split.Close()

	err = split.Headers.View(context.Background(), func(tx kv.Tx) error {
		got, err := rawdb.ReadTD(tx, 1, mustHash("0xdead"))
		if err != nil {
			return err
		}
		if got.Sign() != 0 {
			t.Fatalf("ReadTD for an absent key = %s, want 0", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
}
