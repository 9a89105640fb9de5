package snapshotsync

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	log "github.com/erigontech/erigon-lib/log/v3"
)

type fakeStore struct {
	objects map[string][]byte
	deletes []string
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
	f.deletes = append(f.deletes, key)
	return nil
}

func TestManagerUploadRetainsOnlyLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "mdbx.dat")
	if err := os.WriteFile(dataPath, []byte("some state bytes"), 0o644); err != nil {
		t.Fatalf("seed data file: %v", err)
	}

	store := newFakeStore()
	// Two older snapshots already sit under the prefix.
	store.objects["state-snapshots/state-100000.dat.gz"] = []byte("old")
	store.objects["state-snapshots/state-50000.dat.gz"] = []byte("older")

	m := &Manager{Store: store, Logger: log.Root()}
	if err := m.Upload(context.Background(), "state", dataPath, "state-snapshots/state-", 200_000); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	keys, err := store.List(context.Background(), "state-snapshots/state-")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 || keys[0] != "state-snapshots/state-200000.dat.gz" {
		t.Fatalf("after GC, keys = %v, want exactly the newest upload", keys)
	}
}

func TestManagerUploadMissingLocalFileIsAnError(t *testing.T) {
	store := newFakeStore()
	m := &Manager{Store: store, Logger: log.Root()}
	err := m.Upload(context.Background(), "headers", filepath.Join(t.TempDir(), "missing.dat"), "headers/", 1)
	if err == nil {
		t.Fatal("expected an error when the local snapshot file doesn't exist")
	}
	if len(store.objects) != 0 {
		t.Fatal("a failed compress must not reach Save")
	}
}

func TestManagerUploadDeletesStaleObjectUnderSamePrefix(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "mdbx.dat")
	if err := os.WriteFile(dataPath, []byte("bytes"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := newFakeStore()
	store.objects["headers/1.dat.gz"] = []byte("stale")

	m := &Manager{Store: store, Logger: log.Root()}
	if err := m.Upload(context.Background(), "headers", dataPath, "headers/", 2); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, ok := store.objects["headers/2.dat.gz"]; !ok {
		t.Fatal("the new upload must be present")
	}
	if _, ok := store.objects["headers/1.dat.gz"]; ok {
		t.Fatal("the stale snapshot must be garbage-collected")
	}
}
