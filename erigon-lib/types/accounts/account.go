// Package accounts implements erigon's compact "EncodeForStorage" account
// encoding: a bitmap byte selecting which of (nonce, balance, incarnation,
// codeHash) are non-default, followed by only the present fields.
package accounts

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/erigontech/erigon-lib/common"
	"github.com/holiman/uint256"
)

// Account is the plain-state account record stored in PlainAccountState.
type Account struct {
	Nonce       uint64
	Balance     uint256.Int
	Incarnation uint64
	CodeHash    common.Hash // empty-code hash when the account has no code
}

var EmptyCodeHash = common.HashData(nil)

// IsEmpty reports whether the account is "empty" in the EIP-161 sense:
// zero nonce, zero balance, and no code.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && (a.CodeHash == common.Hash{} || a.CodeHash == EmptyCodeHash)
}

const (
	fieldNonce = 1 << iota
	fieldBalance
	fieldIncarnation
	fieldCodeHash
)

// EncodeForStorage serialises the account into erigon's compact storage
// encoding: a one-byte field bitmap followed, for each non-default field,
// by a one-byte length and the field's leading-zero-trimmed bytes.
func (a *Account) EncodeForStorage() []byte {
	var fieldSet byte
	var buf bytes.Buffer

	var nonceBytes []byte
	if a.Nonce != 0 {
		fieldSet |= fieldNonce
		nonceBytes = trimLeadingZeroes(uint64ToBytes(a.Nonce))
	}

	var balanceBytes []byte
	if !a.Balance.IsZero() {
		fieldSet |= fieldBalance
		balanceBytes = a.Balance.Bytes()
	}

	var incBytes []byte
	if a.Incarnation != 0 {
		fieldSet |= fieldIncarnation
		incBytes = trimLeadingZeroes(uint64ToBytes(a.Incarnation))
	}

	var codeHashBytes []byte
	if a.CodeHash != (common.Hash{}) && a.CodeHash != EmptyCodeHash {
		fieldSet |= fieldCodeHash
		codeHashBytes = a.CodeHash.Bytes()
	}

	buf.WriteByte(fieldSet)
	writeLenPrefixed(&buf, nonceBytes, fieldSet&fieldNonce != 0)
	writeLenPrefixed(&buf, balanceBytes, fieldSet&fieldBalance != 0)
	writeLenPrefixed(&buf, incBytes, fieldSet&fieldIncarnation != 0)
	writeLenPrefixed(&buf, codeHashBytes, fieldSet&fieldCodeHash != 0)
	return buf.Bytes()
}

func writeLenPrefixed(buf *bytes.Buffer, b []byte, present bool) {
	if !present {
		return
	}
	buf.WriteByte(byte(len(b)))
	buf.Write(b)
}

// DecodeForStorage reverses EncodeForStorage.
func (a *Account) DecodeForStorage(enc []byte) error {
	*a = Account{}
	if len(enc) == 0 {
		return nil
	}
	fieldSet := enc[0]
	pos := 1

	readField := func() ([]byte, error) {
		if pos >= len(enc) {
			return nil, errors.New("accounts: truncated encoding")
		}
		l := int(enc[pos])
		pos++
		if pos+l > len(enc) {
			return nil, errors.New("accounts: truncated field")
		}
		v := enc[pos : pos+l]
		pos += l
		return v, nil
	}

	if fieldSet&fieldNonce != 0 {
		b, err := readField()
		if err != nil {
			return err
		}
		a.Nonce = bytesToUint64(b)
	}
	if fieldSet&fieldBalance != 0 {
		b, err := readField()
		if err != nil {
			return err
		}
		a.Balance.SetBytes(b)
	}
	if fieldSet&fieldIncarnation != 0 {
		b, err := readField()
		if err != nil {
			return err
		}
		a.Incarnation = bytesToUint64(b)
	}
	if fieldSet&fieldCodeHash != 0 {
		b, err := readField()
		if err != nil {
			return err
		}
		a.CodeHash = common.BytesToHash(b)
	} else {
		a.CodeHash = EmptyCodeHash
	}
	return nil
}

func uint64ToBytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func bytesToUint64(b []byte) uint64 {
	var full [8]byte
	copy(full[8-len(b):], b)
	return binary.BigEndian.Uint64(full[:])
}

func trimLeadingZeroes(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}
