// Package rlp implements the minimal subset of Ethereum's Recursive Length
// Prefix encoding this module needs to turn headers, bodies, transactions
// and account records into mdbx value bytes: byte strings, lists, and
// unsigned integers.
package rlp

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
)

var ErrUnexpectedKind = errors.New("rlp: unexpected item kind")

// EncodeBytes appends the RLP byte-string encoding of b to buf.
func EncodeBytes(buf *bytes.Buffer, b []byte) {
	if len(b) == 1 && b[0] < 0x80 {
		buf.WriteByte(b[0])
		return
	}
	writeHead(buf, 0x80, 0xb7, len(b))
	buf.Write(b)
}

// EncodeUint64 appends the RLP encoding of i, stripped of leading zero bytes.
func EncodeUint64(buf *bytes.Buffer, i uint64) {
	if i == 0 {
		buf.WriteByte(0x80)
		return
	}
	var tmp [8]byte
	n := 8
	for n > 0 {
		n--
		tmp[n] = byte(i)
		i >>= 8
		if i == 0 {
			break
		}
	}
	EncodeBytes(buf, tmp[n:])
}

// EncodeBigInt appends the RLP encoding of a non-negative big.Int.
func EncodeBigInt(buf *bytes.Buffer, v *big.Int) {
	if v == nil || v.Sign() == 0 {
		buf.WriteByte(0x80)
		return
	}
	EncodeBytes(buf, v.Bytes())
}

// List encodes the concatenation of the items written by fn as an RLP list.
func List(buf *bytes.Buffer, fn func(*bytes.Buffer)) {
	var inner bytes.Buffer
	fn(&inner)
	writeHead(buf, 0xc0, 0xf7, inner.Len())
	buf.Write(inner.Bytes())
}

func writeHead(buf *bytes.Buffer, short, longBase byte, size int) {
	if size < 56 {
		buf.WriteByte(short + byte(size))
		return
	}
	var sizeBytes []byte
	n := size
	for n > 0 {
		sizeBytes = append([]byte{byte(n)}, sizeBytes...)
		n >>= 8
	}
	buf.WriteByte(longBase + byte(len(sizeBytes)))
	buf.Write(sizeBytes)
}

// Stream decodes RLP items in sequence from a byte slice.
type Stream struct {
	b   []byte
	pos int
}

func NewStream(b []byte) *Stream { return &Stream{b: b} }

func (s *Stream) Len() int { return len(s.b) - s.pos }

// Bytes reads the next item as a byte string.
func (s *Stream) Bytes() ([]byte, error) {
	kind, content, rest, err := s.next()
	if err != nil {
		return nil, err
	}
	if kind == kindList {
		return nil, ErrUnexpectedKind
	}
	s.pos = len(s.b) - len(rest)
	return content, nil
}

// Uint64 reads the next item as an unsigned integer.
func (s *Stream) Uint64() (uint64, error) {
	b, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	if len(b) > 8 {
		return 0, fmt.Errorf("rlp: uint64 overflow, %d bytes", len(b))
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// BigInt reads the next item as a non-negative big integer.
func (s *Stream) BigInt() (*big.Int, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// EnterList descends into a list item, returning a sub-stream scoped to its
// content; the caller must not continue reading from the parent until done.
func (s *Stream) EnterList() (*Stream, error) {
	kind, content, rest, err := s.next()
	if err != nil {
		return nil, err
	}
	if kind != kindList {
		return nil, ErrUnexpectedKind
	}
	s.pos = len(s.b) - len(rest)
	return &Stream{b: content}, nil
}

type itemKind int

const (
	kindByteStr itemKind = iota
	kindList
)

func (s *Stream) next() (itemKind, []byte, []byte, error) {
	if s.pos >= len(s.b) {
		return 0, nil, nil, errors.New("rlp: EOF")
	}
	b := s.b[s.pos:]
	prefix := b[0]
	switch {
	case prefix < 0x80:
		return kindByteStr, b[:1], b[1:], nil
	case prefix < 0xb8:
		size := int(prefix - 0x80)
		if len(b) < 1+size {
			return 0, nil, nil, errors.New("rlp: truncated byte string")
		}
		return kindByteStr, b[1 : 1+size], b[1+size:], nil
	case prefix < 0xc0:
		n := int(prefix - 0xb7)
		size, rest, err := readSize(b[1:], n)
		if err != nil {
			return 0, nil, nil, err
		}
		if len(rest) < size {
			return 0, nil, nil, errors.New("rlp: truncated long byte string")
		}
		return kindByteStr, rest[:size], rest[size:], nil
	case prefix < 0xf8:
		size := int(prefix - 0xc0)
		if len(b) < 1+size {
			return 0, nil, nil, errors.New("rlp: truncated list")
		}
		return kindList, b[1 : 1+size], b[1+size:], nil
	default:
		n := int(prefix - 0xf7)
		size, rest, err := readSize(b[1:], n)
		if err != nil {
			return 0, nil, nil, err
		}
		if len(rest) < size {
			return 0, nil, nil, errors.New("rlp: truncated long list")
		}
		return kindList, rest[:size], rest[size:], nil
	}
}

func readSize(b []byte, n int) (int, []byte, error) {
	if len(b) < n {
		return 0, nil, errors.New("rlp: truncated length prefix")
	}
	size := 0
	for i := 0; i < n; i++ {
		size = size<<8 | int(b[i])
	}
	return size, b[n:], nil
}
