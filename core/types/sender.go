package types

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/erigon-lib/rlp"
)

// Sender recovers the EOA that signed t, following EIP-155 when V encodes a
// chain id and falling back to the legacy (pre-155) scheme otherwise. This
// is the Go side of original_source's transaction.recover_signer call.
func Sender(t *Transaction, chainID *big.Int) (common.Address, error) {
	if t.V == nil || t.R == nil || t.S == nil {
		return common.Address{}, fmt.Errorf("types: transaction missing signature")
	}

	recID, signingChainID := recoveryID(t.V)
	hash := t.signingHash(signingChainID)

	sig := make([]byte, 65)
	sig[0] = byte(recID) + 27
	t.R.FillBytes(sig[1:33])
	t.S.FillBytes(sig[33:65])

	pub, _, err := ecdsa.RecoverCompact(sig, hash.Bytes())
	if err != nil {
		return common.Address{}, fmt.Errorf("types: recover sender: %w", err)
	}

	uncompressed := pub.SerializeUncompressed() // 0x04 || X(32) || Y(32)
	return common.BytesToAddress(common.HashData(uncompressed[1:]).Bytes()[12:]), nil
}

// recoveryID extracts the 0/1 recovery id and, if V encodes EIP-155, the
// chain id it was signed for (nil for legacy transactions).
func recoveryID(v *big.Int) (uint, *big.Int) {
	if v.Cmp(big.NewInt(35)) < 0 {
		return uint(v.Uint64() - 27), nil
	}
	// v = chainID*2 + 35 + recId
	chainIDDoubled := new(big.Int).Sub(v, big.NewInt(35))
	recID := new(big.Int).And(chainIDDoubled, big.NewInt(1)).Uint64()
	chainID := new(big.Int).Rsh(chainIDDoubled, 1)
	return uint(recID), chainID
}

// signingHash is the hash actually signed: the RLP of the transaction's
// fields with V/R/S replaced by (chainID, 0, 0) for EIP-155, or omitted
// entirely for legacy transactions.
func (t *Transaction) signingHash(chainID *big.Int) common.Hash {
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
		if chainID != nil {
			rlp.EncodeBigInt(b, chainID)
			rlp.EncodeUint64(b, 0)
			rlp.EncodeUint64(b, 0)
		}
	})
	return common.HashData(buf.Bytes())
}
