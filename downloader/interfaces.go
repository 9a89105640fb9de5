// Package downloader declares the external network collaborators this
// system syncs against: a header downloader and a body downloader. Their
// implementations (devp2p, a trusted peer, a local fixture) are out of
// scope; this package only fixes the interface the stages program against,
// grounded on original_source's reth_interfaces::p2p downloader traits.
package downloader

import (
	"context"

	"github.com/erigontech/erigon-lib/common"
	"github.com/erigontech/synclight/core/types"
)

// SyncTarget describes what the headers stage should download toward: a
// gap between the local canonical tip and a known header (Gap), or simply
// "whatever the network's current tip is" (Tip).
type SyncTarget struct {
	// GapHeader is set when the local chain is linked to a header we've
	// already seen (e.g. from a previous partial sync); the downloader
	// fills the gap up to it.
	GapHeader *types.Header
	// TipHash is set when we only know the remote's announced tip hash
	// and must download until we connect back to our local chain.
	TipHash common.Hash
}

// SyncGap is the result of computing where header sync should resume:
// the local canonical tip and, if known, the close-the-gap target.
type SyncGap struct {
	LocalHeadNumber uint64
	LocalHeadHash   common.Hash
	Target          SyncTarget
	// Reached reports whether local head already meets the target
	// (nothing to do this round).
	Reached bool
}

// HeaderDownloader streams headers from network tip down to the local
// chain (or up to a local gap target), in reverse order, the way erigon's
// own header downloader fills sync gaps.
type HeaderDownloader interface {
	// DownloadHeaders returns headers in descending-number order starting
	// just above gap.LocalHeadNumber, terminating once it reaches a header
	// whose hash already matches local chain data (or gap.Target.GapHeader).
	DownloadHeaders(ctx context.Context, gap SyncGap) (<-chan *types.Header, <-chan error)
}

// BodyDownloader fetches the bodies (transactions/ommers/withdrawals) for
// a contiguous range of already-downloaded headers.
type BodyDownloader interface {
	DownloadBodies(ctx context.Context, headers []*types.Header) (<-chan *types.Block, <-chan error)
}
