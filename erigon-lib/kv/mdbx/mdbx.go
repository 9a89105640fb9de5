// Package mdbx wraps github.com/erigontech/mdbx-go with erigon's kv.DB/Tx/
// Cursor interfaces, restricted to the tables one of the three split
// environments (headers/bodies/state) owns.
package mdbx

import (
	"context"
	"fmt"
	"os"

	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/mdbx-go/mdbx"
)

const defaultMapSize = 2 << 30 // 2GiB, grown automatically by mdbx's geometry

type MdbxKV struct {
	env   *mdbx.Env
	path  string
	dbis  map[string]mdbx.DBI
	cfg   kv.TableCfg
	label string
}

// Open creates-or-opens an mdbx environment at path with exactly the tables
// named, applying dup-sort flags from cfg. label is used only in error
// messages ("headers", "bodies", "state").
func Open(path, label string, tables []string, cfg kv.TableCfg) (*MdbxKV, error) {
	env, err := mdbx.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("mdbx %s: new env: %w", label, err)
	}
	if err := env.SetGeometry(-1, -1, -1, -1, -1, -1); err != nil {
		return nil, fmt.Errorf("mdbx %s: set geometry: %w", label, err)
	}
	if err := env.SetOption(mdbx.OptMaxDB, uint64(len(tables)+2)); err != nil {
		return nil, fmt.Errorf("mdbx %s: set max dbs: %w", label, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("mdbx %s: mkdir %s: %w", label, path, err)
	}
	if err := env.Open(path, mdbx.Coalesce|mdbx.LifoReclaim, 0o644); err != nil {
		return nil, fmt.Errorf("mdbx %s: open %s: %w", label, path, err)
	}

	db := &MdbxKV{env: env, path: path, dbis: map[string]mdbx.DBI{}, cfg: cfg, label: label}
	if err := env.Update(func(txn *mdbx.Txn) error {
		for _, name := range tables {
			flags := uint(mdbx.Create)
			if cfg[name].Flags&kv.DupSort != 0 {
				flags |= mdbx.DupSort
			}
			dbi, err := txn.OpenDBISimple(name, flags)
			if err != nil {
				return fmt.Errorf("open table %s: %w", name, err)
			}
			db.dbis[name] = dbi
		}
		return nil
	}); err != nil {
		env.Close()
		return nil, fmt.Errorf("mdbx %s: create tables: %w", label, err)
	}
	return db, nil
}

func (db *MdbxKV) Path() string { return db.path }

func (db *MdbxKV) Close() { db.env.Close() }

func (db *MdbxKV) BeginRo(_ context.Context) (kv.Tx, error) {
	txn, err := db.env.BeginTxn(nil, mdbx.Readonly)
	if err != nil {
		return nil, err
	}
	return &mdbxTx{txn: txn, db: db}, nil
}

func (db *MdbxKV) BeginRw(_ context.Context) (kv.RwTx, error) {
	txn, err := db.env.BeginTxn(nil, 0)
	if err != nil {
		return nil, err
	}
	return &mdbxTx{txn: txn, db: db}, nil
}

func (db *MdbxKV) View(ctx context.Context, fn func(tx kv.Tx) error) error {
	tx, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return fn(tx)
}

func (db *MdbxKV) Update(ctx context.Context, fn func(tx kv.RwTx) error) error {
	tx, err := db.BeginRw(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type mdbxTx struct {
	txn *mdbx.Txn
	db  *MdbxKV
}

func (t *mdbxTx) dbi(table string) (mdbx.DBI, error) {
	dbi, ok := t.db.dbis[table]
	if !ok {
		return 0, fmt.Errorf("mdbx %s: unknown table %q", t.db.label, table)
	}
	return dbi, nil
}

func (t *mdbxTx) GetOne(table string, key []byte) ([]byte, error) {
	dbi, err := t.dbi(table)
	if err != nil {
		return nil, err
	}
	v, err := t.txn.Get(dbi, key)
	if mdbx.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (t *mdbxTx) Put(table string, key, value []byte) error {
	dbi, err := t.dbi(table)
	if err != nil {
		return err
	}
	return t.txn.Put(dbi, key, value, 0)
}

func (t *mdbxTx) Delete(table string, key []byte) error {
	dbi, err := t.dbi(table)
	if err != nil {
		return err
	}
	err = t.txn.Del(dbi, key, nil)
	if mdbx.IsNotFound(err) {
		return nil
	}
	return err
}

func (t *mdbxTx) Cursor(table string) (kv.Cursor, error) {
	dbi, err := t.dbi(table)
	if err != nil {
		return nil, err
	}
	c, err := t.txn.OpenCursor(dbi)
	if err != nil {
		return nil, err
	}
	return &mdbxCursor{c: c}, nil
}

func (t *mdbxTx) RwCursor(table string) (kv.RwCursor, error) {
	c, err := t.Cursor(table)
	if err != nil {
		return nil, err
	}
	return c.(*mdbxCursor), nil
}

func (t *mdbxTx) CursorDupSort(table string) (kv.CursorDupSort, error) {
	c, err := t.Cursor(table)
	if err != nil {
		return nil, err
	}
	return c.(*mdbxCursor), nil
}

func (t *mdbxTx) RwCursorDupSort(table string) (kv.RwCursorDupSort, error) {
	c, err := t.Cursor(table)
	if err != nil {
		return nil, err
	}
	return c.(*mdbxCursor), nil
}

func (t *mdbxTx) Commit() error { return t.txn.Commit() }
func (t *mdbxTx) Rollback()     { t.txn.Abort() }

type mdbxCursor struct {
	c *mdbx.Cursor
}

func norm(k, v []byte, err error) ([]byte, []byte, error) {
	if mdbx.IsNotFound(err) {
		return nil, nil, nil
	}
	return k, v, err
}

func (c *mdbxCursor) First() ([]byte, []byte, error) { return norm(c.c.Get(nil, nil, mdbx.First)) }
func (c *mdbxCursor) Next() ([]byte, []byte, error)  { return norm(c.c.Get(nil, nil, mdbx.Next)) }
func (c *mdbxCursor) Prev() ([]byte, []byte, error)  { return norm(c.c.Get(nil, nil, mdbx.Prev)) }
func (c *mdbxCursor) Last() ([]byte, []byte, error)  { return norm(c.c.Get(nil, nil, mdbx.Last)) }
func (c *mdbxCursor) Seek(seek []byte) ([]byte, []byte, error) {
	return norm(c.c.Get(seek, nil, mdbx.SetRange))
}
func (c *mdbxCursor) SeekExact(key []byte) ([]byte, error) {
	_, v, err := norm(c.c.Get(key, nil, mdbx.Set))
	return v, err
}
func (c *mdbxCursor) Close() { c.c.Close() }

func (c *mdbxCursor) Put(k, v []byte) error    { return c.c.Put(k, v, 0) }
func (c *mdbxCursor) Append(k, v []byte) error { return c.c.Put(k, v, mdbx.Append) }
func (c *mdbxCursor) Delete(k []byte) error {
	if _, _, err := c.c.Get(k, nil, mdbx.Set); err != nil {
		if mdbx.IsNotFound(err) {
			return nil
		}
		return err
	}
	return c.c.Del(0)
}

func (c *mdbxCursor) SeekBothExact(key, value []byte) ([]byte, []byte, error) {
	return norm(c.c.Get(key, value, mdbx.GetBoth))
}
func (c *mdbxCursor) SeekBothRange(key, value []byte) ([]byte, error) {
	_, v, err := norm(c.c.Get(key, value, mdbx.GetBothRange))
	return v, err
}
func (c *mdbxCursor) FirstDup() ([]byte, error) {
	_, v, err := norm(c.c.Get(nil, nil, mdbx.FirstDup))
	return v, err
}
func (c *mdbxCursor) NextDup() ([]byte, []byte, error) { return norm(c.c.Get(nil, nil, mdbx.NextDup)) }

func (c *mdbxCursor) PutNoDupData(k, v []byte) error { return c.c.Put(k, v, mdbx.NoDupData) }
func (c *mdbxCursor) AppendDup(k, v []byte) error    { return c.c.Put(k, v, mdbx.AppendDup) }
func (c *mdbxCursor) DeleteCurrent() error           { return c.c.Del(0) }
func (c *mdbxCursor) DeleteCurrentDuplicates() error { return c.c.Del(mdbx.AllDups) }
