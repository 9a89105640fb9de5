package kv

import "context"

// DB is an opened mdbx environment restricted to one of the three split
// schemas (headers/bodies/state). Mirrors erigon's kv.RwDB surface, trimmed
// to what this module's stages use.
type DB interface {
	BeginRo(ctx context.Context) (Tx, error)
	BeginRw(ctx context.Context) (RwTx, error)
	// Update runs fn inside a read-write transaction, committing on nil
	// error and rolling back otherwise.
	Update(ctx context.Context, fn func(tx RwTx) error) error
	// View runs fn inside a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error
	Close()
	Path() string
}

// Tx is a read-only transaction.
type Tx interface {
	GetOne(table string, key []byte) ([]byte, error)
	Cursor(table string) (Cursor, error)
	CursorDupSort(table string) (CursorDupSort, error)
	Rollback()
}

// RwTx is a read-write transaction.
type RwTx interface {
	Tx
	Put(table string, key, value []byte) error
	Delete(table string, key []byte) error
	RwCursor(table string) (RwCursor, error)
	RwCursorDupSort(table string) (RwCursorDupSort, error)
	Commit() error
}

// Cursor iterates a table in key order.
type Cursor interface {
	First() (k, v []byte, err error)
	Next() (k, v []byte, err error)
	Prev() (k, v []byte, err error)
	Last() (k, v []byte, err error)
	Seek(seek []byte) (k, v []byte, err error)
	SeekExact(key []byte) (v []byte, err error)
	Close()
}

// RwCursor additionally supports writes positioned via the cursor.
type RwCursor interface {
	Cursor
	Put(k, v []byte) error
	Delete(k []byte) error
	Append(k, v []byte) error
}

// CursorDupSort additionally walks the duplicate values at one key.
type CursorDupSort interface {
	Cursor
	SeekBothExact(key, value []byte) (k, v []byte, err error)
	SeekBothRange(key, value []byte) (v []byte, err error)
	FirstDup() ([]byte, error)
	NextDup() (k, v []byte, err error)
}

type RwCursorDupSort interface {
	CursorDupSort
	RwCursor
	PutNoDupData(k, v []byte) error
	// DeleteCurrent removes only the duplicate the cursor is positioned on
	// (mdbx_cursor_del(0)), leaving the key's other duplicates untouched.
	DeleteCurrent() error
	// DeleteCurrentDuplicates removes every duplicate under the cursor's
	// current key (mdbx_cursor_del(MDBX_ALLDUPS)).
	DeleteCurrentDuplicates() error
	AppendDup(k, v []byte) error
}

// Absence: this package declares no ErrKeyNotFound sentinel the way
// erigon's kv package does. Implementations here return (nil, nil) from
// SeekExact/GetOne for an absent key, matching mdbx-go's own Get
// convention, so callers treat a nil value as "absent".
