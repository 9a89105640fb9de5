// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package snapshotsync manages this node's own uploaded snapshots in the
// remote object store: upload a freshly-compressed environment, then
// retain only the newest object under that environment's prefix. Adapted
// from erigon's BitTorrent-backed turbo/snapshotsync package: this system
// has one trusted object store rather than a decentralized swarm, so the
// "wait for peers to seed" logic is replaced with "list, upload, delete
// the rest".
package snapshotsync

import (
	"context"
	"fmt"

	log "github.com/erigontech/erigon-lib/log/v3"
	"github.com/erigontech/synclight/compress"
	"github.com/erigontech/synclight/metrics"
	"github.com/erigontech/synclight/remotestore"
)

// Manager uploads a database's current snapshot and retains only the
// latest object per environment prefix.
type Manager struct {
	Store  remotestore.Store
	Logger log.Logger
}

// Upload compresses localPath and saves it to the remote store under
// "{prefix}{progress}.dat.gz", then deletes every other object sharing
// prefix. Upload errors are returned (caller logs and retries at the next
// snapshot boundary per spec §7's non-fatal RemoteStoreError rule); delete
// failures during GC are logged and swallowed, since a leftover stale
// snapshot is cosmetic, not a correctness problem.
func (m *Manager) Upload(ctx context.Context, logPrefix, localPath, prefix string, progress uint64) error {
	log.Info(fmt.Sprintf("[%s] compressing snapshot", logPrefix), "path", localPath, "progress", progress)
	content, err := compress.CompressFile(localPath)
	if err != nil {
		return fmt.Errorf("snapshotsync: compress %s: %w", localPath, err)
	}

	key := fmt.Sprintf("%s%d.dat.gz", prefix, progress)
	if err := m.Store.Save(ctx, key, content); err != nil {
		metrics.SnapshotUploadFailures.WithLabelValues(logPrefix).Inc()
		return fmt.Errorf("snapshotsync: save %s: %w", key, err)
	}
	metrics.SnapshotUploads.WithLabelValues(logPrefix).Inc()
	log.Info(fmt.Sprintf("[%s] uploaded snapshot", logPrefix), "key", key, "bytes", len(content))

	m.retainOnly(ctx, logPrefix, prefix, key)
	return nil
}

// retainOnly deletes every object under prefix except keep, logging
// (not failing) individual delete errors.
func (m *Manager) retainOnly(ctx context.Context, logPrefix, prefix, keep string) {
	keys, err := m.Store.List(ctx, prefix)
	if err != nil {
		log.Warn(fmt.Sprintf("[%s] list snapshots for gc", logPrefix), "prefix", prefix, "err", err)
		return
	}
	for _, k := range keys {
		if k == keep {
			continue
		}
		if err := m.Store.Delete(ctx, k); err != nil {
			log.Warn(fmt.Sprintf("[%s] delete stale snapshot", logPrefix), "key", k, "err", err)
			continue
		}
		metrics.SnapshotDeletes.WithLabelValues(logPrefix).Inc()
		log.Info(fmt.Sprintf("[%s] deleted stale snapshot", logPrefix), "key", k)
	}
}
