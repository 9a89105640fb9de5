package db

import (
	"context"
	"path/filepath"

	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/erigon-lib/kv/mdbx"
)

// SplitDatabase owns the three independent mdbx environments this system
// keeps: headers, bodies, and state. Each can be snapshotted and restored
// independently, per spec. Grounded on original_source's SplitDatabase.
type SplitDatabase struct {
	Headers kv.DB
	Bodies  kv.DB
	State   kv.DB

	headersPath string
	bodiesPath  string
	statePath   string
}

// Open creates-or-opens all three environments under dir/{headers,bodies,state}.
func Open(dir string) (*SplitDatabase, error) {
	headersPath := filepath.Join(dir, "headers")
	bodiesPath := filepath.Join(dir, "bodies")
	statePath := filepath.Join(dir, "state")

	headers, err := mdbx.Open(headersPath, "headers", kv.HeaderTables, kv.ChaindataTablesCfg)
	if err != nil {
		return nil, err
	}
	bodies, err := mdbx.Open(bodiesPath, "bodies", kv.BodyTables, kv.ChaindataTablesCfg)
	if err != nil {
		headers.Close()
		return nil, err
	}
	state, err := mdbx.Open(statePath, "state", kv.StateTables, kv.ChaindataTablesCfg)
	if err != nil {
		headers.Close()
		bodies.Close()
		return nil, err
	}

	return &SplitDatabase{
		Headers: headers, Bodies: bodies, State: state,
		headersPath: headersPath, bodiesPath: bodiesPath, statePath: statePath,
	}, nil
}

// openEnv opens a single mdbx environment at path with the given table
// set, used by Initializer to transiently probe an existing environment's
// progress before the full SplitDatabase is opened.
func openEnv(path string, tables []string) (kv.DB, error) {
	return mdbx.Open(path, filepath.Base(path), tables, kv.ChaindataTablesCfg)
}

func (d *SplitDatabase) Close() {
	d.Headers.Close()
	d.Bodies.Close()
	d.State.Close()
}

// Path returns the on-disk path for one of "headers", "bodies", "state".
func (d *SplitDatabase) Path(which string) string {
	switch which {
	case "headers":
		return d.headersPath
	case "bodies":
		return d.bodiesPath
	case "state":
		return d.statePath
	default:
		return ""
	}
}

func (d *SplitDatabase) DB(which string) kv.DB {
	switch which {
	case "headers":
		return d.Headers
	case "bodies":
		return d.Bodies
	case "state":
		return d.State
	default:
		return nil
	}
}

// Progress reads the given stage's SyncStageProgress marker from its owning
// environment (headers/bodies live in their own env, state's stage
// progress lives in the state env).
func Progress(ctx context.Context, d kv.DB, stageID string) (uint64, error) {
	var progress uint64
	err := d.View(ctx, func(tx kv.Tx) error {
		v, err := tx.GetOne(kv.SyncStageProgress, []byte(stageID))
		if err != nil {
			return err
		}
		if len(v) == 8 {
			progress = decodeProgress(v)
		}
		return nil
	})
	return progress, err
}

func SaveProgress(ctx context.Context, d kv.DB, stageID string, progress uint64) error {
	return d.Update(ctx, func(tx kv.RwTx) error {
		return tx.Put(kv.SyncStageProgress, []byte(stageID), encodeProgress(progress))
	})
}

func encodeProgress(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func decodeProgress(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
