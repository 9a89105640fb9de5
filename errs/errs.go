// Package errs collects the error taxonomy this system's CLI and stages
// use to decide exit codes and retry behavior. Individual components also
// define their own closely-scoped error types next to the code that
// raises them (db.GenesisHashMismatch, remotestore.RemoteStoreError,
// executor.ExecutionError); this package holds the ones shared across
// package boundaries.
package errs

import "fmt"

// ConfigError wraps a malformed or missing configuration value, raised
// before sync starts.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}
func (e *ConfigError) Unwrap() error { return e.Err }

// DatabaseError wraps an mdbx failure that isn't one of the more specific
// taxonomy members below (disk full, corrupted environment, etc.).
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string { return fmt.Sprintf("database: %s: %v", e.Op, e.Err) }
func (e *DatabaseError) Unwrap() error { return e.Err }

// ProviderError wraps a failure reading account/storage/block-hash state
// through the StateProvider while the executor is running.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("provider: %s: %v", e.Op, e.Err) }
func (e *ProviderError) Unwrap() error { return e.Err }

// TransactionsGap is returned when a body's StoredBlockBody.BaseTxID
// doesn't line up with the transactions already written: the bodies
// stage's tx-id bookkeeping invariant was violated.
type TransactionsGap struct {
	BlockNumber uint64
	WantBaseID  uint64
	HaveBaseID  uint64
}

func (e *TransactionsGap) Error() string {
	return fmt.Sprintf("transactions gap at block %d: want base tx id %d, have %d",
		e.BlockNumber, e.WantBaseID, e.HaveBaseID)
}

// SenderRecoveryFailed is returned when ECDSA signature recovery fails for
// a transaction during parallel sender recovery.
type SenderRecoveryFailed struct {
	BlockNumber uint64
	TxIndex     int
	Err         error
}

func (e *SenderRecoveryFailed) Error() string {
	return fmt.Sprintf("sender recovery failed at block %d tx %d: %v", e.BlockNumber, e.TxIndex, e.Err)
}
func (e *SenderRecoveryFailed) Unwrap() error { return e.Err }

// NetworkError wraps a downloader-side network failure (peer disconnect,
// timeout). Non-fatal for snapshot bookkeeping purposes: callers retry at
// the next sync-loop iteration.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network: %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ChannelClosed is returned when a downloader's header/body channel closes
// before delivering the expected range, signaling the downloader gave up
// or was cancelled.
type ChannelClosed struct {
	What string
}

func (e *ChannelClosed) Error() string { return fmt.Sprintf("%s channel closed unexpectedly", e.What) }
