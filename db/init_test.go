package db

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"testing"

	"github.com/erigontech/erigon-lib/chain"
	log "github.com/erigontech/erigon-lib/log/v3"
	"github.com/erigontech/synclight/compress"
)

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeStore) Retrieve(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := f.objects[key]
	return v, ok, nil
}

func (f *fakeStore) Save(ctx context.Context, key string, content []byte) error {
	f.objects[key] = content
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func testGenesis() *chain.Genesis {
	return &chain.Genesis{
		Config:     &chain.Config{ChainID: big.NewInt(1337)},
		GasLimit:   5_000_000,
		Difficulty: big.NewInt(1),
	}
}

func TestInitializerOpenWritesGenesisWithoutStore(t *testing.T) {
	dir := t.TempDir()
	init := &Initializer{Dir: dir, Genesis: testGenesis(), Logger: log.Root()}

	split, err := init.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer split.Close()

	progress, err := Progress(context.Background(), split.Headers, "Headers")
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if progress != 0 {
		t.Fatalf("fresh genesis-only database progress = %d, want 0", progress)
	}
}

func TestInitializerOpenTwiceIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	genesis := testGenesis()

	split1, err := (&Initializer{Dir: dir, Genesis: genesis, Logger: log.Root()}).Open(context.Background())
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	split1.Close()

	split2, err := (&Initializer{Dir: dir, Genesis: genesis, Logger: log.Root()}).Open(context.Background())
	if err != nil {
		t.Fatalf("second Open with matching genesis: %v", err)
	}
	split2.Close()
}

func TestInitializerRestoresNewerRemoteSnapshot(t *testing.T) {
	genesis := testGenesis()
	ctx := context.Background()

	sourceDir := t.TempDir()
	src, err := (&Initializer{Dir: sourceDir, Genesis: genesis, Logger: log.Root()}).Open(ctx)
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	if err := SaveProgress(ctx, src.Headers, "Headers", 5); err != nil {
		t.Fatalf("advance source progress: %v", err)
	}
	headersDat := src.Path("headers") + "/mdbx.dat"
	src.Close()

	content, err := compress.CompressFile(headersDat)
	if err != nil {
		t.Fatalf("compress source snapshot: %v", err)
	}

	store := newFakeStore()
	if err := store.Save(ctx, HeadersSnapshotPrefix+"5.dat.gz", content); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	targetDir := t.TempDir()
	target, err := (&Initializer{Dir: targetDir, Store: store, Genesis: genesis, Logger: log.Root()}).Open(ctx)
	if err != nil {
		t.Fatalf("open target: %v", err)
	}
	defer target.Close()

	progress, err := Progress(ctx, target.Headers, "Headers")
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if progress != 5 {
		t.Fatalf("restored progress = %d, want 5 (from the remote snapshot)", progress)
	}
}

func TestParseSnapshotKey(t *testing.T) {
	n, ok := parseSnapshotKey("headers-100000.dat.gz", HeadersSnapshotPrefix)
	if !ok || n != 100_000 {
		t.Fatalf("parseSnapshotKey = (%d, %v), want (100000, true)", n, ok)
	}
	if _, ok := parseSnapshotKey("bodies-100000.dat.gz", HeadersSnapshotPrefix); ok {
		t.Fatal("wrong prefix must not match")
	}
	if _, ok := parseSnapshotKey("headers-not-a-number.dat.gz", HeadersSnapshotPrefix); ok {
		t.Fatal("non-numeric progress must not match")
	}
	n, ok = parseSnapshotKey("state-snapshots/state-200000.dat.gz", StateSnapshotPrefix)
	if !ok || n != 200_000 {
		t.Fatalf("parseSnapshotKey(state) = (%d, %v), want (200000, true)", n, ok)
	}
}
