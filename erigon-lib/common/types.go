package common

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// Address is a 20 byte Ethereum account address.
type Address [AddressLength]byte

func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) IsZero() bool { return a == Address{} }

// Hash is a 32 byte keccak256/RLP hash, block hash, or storage key.
type Hash [HashLength]byte

func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) IsZero() bool { return h == Hash{} }

// HashData returns the keccak256 digest of b.
func HashData(b []byte) Hash {
	d := sha3.NewLegacyKeccak256()
	d.Write(b)
	var h Hash
	d.Sum(h[:0])
	return h
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a 0x-prefixed hex string, so Hash satisfies
// encoding.TextUnmarshaler for JSON genesis files and kong flag values.
func (h *Hash) UnmarshalText(text []byte) error {
	v, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

func (a *Address) UnmarshalText(text []byte) error {
	v, err := HexToAddress(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// HexToHash parses a 0x-prefixed hex string into a Hash. Used by chain-spec
// and debug-tip config parsing.
func HexToHash(s string) (Hash, error) {
	b, err := decodeHexPrefixed(s)
	if err != nil {
		return Hash{}, err
	}
	return BytesToHash(b), nil
}

func HexToAddress(s string) (Address, error) {
	b, err := decodeHexPrefixed(s)
	if err != nil {
		return Address{}, err
	}
	return BytesToAddress(b), nil
}

func decodeHexPrefixed(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex %q: %w", s, err)
	}
	return b, nil
}
