// Package remotestore implements the snapshot object store: a thin
// List/Retrieve/Save/Delete interface over an S3-compatible bucket,
// grounded on original_source's remote/digitalocean/store.rs.
package remotestore

import "context"

// Store is the remote snapshot object store. Keys are full object paths
// ("{prefix}{progress}.dat.gz"); Retrieve reports (nil, false, nil) for a
// missing key rather than an error, matching the Rust NoSuchKey -> None
// convention.
type Store interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Retrieve(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, content []byte) error
	Delete(ctx context.Context, key string) error
}

// RemoteStoreError wraps a non-fatal network/object-store failure, per the
// error taxonomy: retried at the next snapshot boundary rather than
// aborting sync.
type RemoteStoreError struct {
	Op  string
	Key string
	Err error
}

func (e *RemoteStoreError) Error() string {
	if e.Key != "" {
		return "remotestore: " + e.Op + " " + e.Key + ": " + e.Err.Error()
	}
	return "remotestore: " + e.Op + ": " + e.Err.Error()
}

func (e *RemoteStoreError) Unwrap() error { return e.Err }
