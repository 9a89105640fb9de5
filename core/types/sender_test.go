package types

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/erigontech/erigon-lib/common"
)

func addressFromPubKey(pub *btcec.PublicKey) common.Address {
	uncompressed := pub.SerializeUncompressed()
	return common.BytesToAddress(common.HashData(uncompressed[1:]).Bytes()[12:])
}

func signAndSet(t *testing.T, tx *Transaction, priv *btcec.PrivateKey, chainID *big.Int) {
	t.Helper()
	hash := tx.signingHash(chainID)
	sig := ecdsa.SignCompact(priv, hash.Bytes(), false)
	recID := uint64(sig[0] - 27)

	r := new(big.Int).SetBytes(sig[1:33])
	s := new(big.Int).SetBytes(sig[33:65])

	tx.R, tx.S = r, s
	if chainID == nil {
		tx.V = big.NewInt(int64(recID) + 27)
	} else {
		v := new(big.Int).Mul(chainID, big.NewInt(2))
		v.Add(v, big.NewInt(35+int64(recID)))
		tx.V = v
	}
}

// mustAddress wraps the (value, error) hex parser for fixed test literals.
func mustAddress(s string) common.Address {
	a, err := common.HexToAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func newTestTx() *Transaction {
	to := mustAddress("0x00000000000000000000000000000000001234")
	return &Transaction{
		Nonce:    7,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21_000,
		To:       &to,
		Value:    big.NewInt(1_000),
		Data:     nil,
	}
}

func TestSenderLegacy(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	want := addressFromPubKey(priv.PubKey())

	tx := newTestTx()
	signAndSet(t, tx, priv, nil)

	got, err := Sender(tx, big.NewInt(1))
	if err != nil {
		t.Fatalf("Sender: %v", err)
	}
	if got != want {
		t.Fatalf("Sender = %s, want %s", got.String(), want.String())
	}
}

func TestSenderEIP155(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	want := addressFromPubKey(priv.PubKey())

	chainID := big.NewInt(1)
	tx := newTestTx()
	signAndSet(t, tx, priv, chainID)

	got, err := Sender(tx, chainID)
	if err != nil {
		t.Fatalf("Sender: %v", err)
	}
	if got != want {
		t.Fatalf("Sender = %s, want %s", got.String(), want.String())
	}
}

func TestSenderMissingSignature(t *testing.T) {
	tx := newTestTx()
	if _, err := Sender(tx, big.NewInt(1)); err == nil {
		t.Fatal("expected error for an unsigned transaction")
	}
}

func TestRecoveryID(t *testing.T) {
	id, chainID := recoveryID(big.NewInt(27))
	if id != 0 || chainID != nil {
		t.Fatalf("legacy V=27: got id=%d chainID=%v, want id=0 chainID=nil", id, chainID)
	}
	id, chainID = recoveryID(big.NewInt(28))
	if id != 1 || chainID != nil {
		t.Fatalf("legacy V=28: got id=%d chainID=%v, want id=1 chainID=nil", id, chainID)
	}
	// EIP-155 mainnet, recId=0: v = 1*2+35 = 37
	id, chainID = recoveryID(big.NewInt(37))
	if id != 0 || chainID.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("EIP-155 V=37: got id=%d chainID=%v, want id=0 chainID=1", id, chainID)
	}
	// EIP-155 mainnet, recId=1: v = 1*2+35+1 = 38
	id, chainID = recoveryID(big.NewInt(38))
	if id != 1 || chainID.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("EIP-155 V=38: got id=%d chainID=%v, want id=1 chainID=1", id, chainID)
	}
}
