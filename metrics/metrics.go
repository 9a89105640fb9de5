// Package metrics exposes the orchestrator's stage progress and snapshot
// upload/delete activity as prometheus gauges/counters, matching erigon's
// own go.mod dependency on prometheus/client_golang for its ambient
// observability surface.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	StageProgress = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "synclight",
		Name:      "stage_progress_block_number",
		Help:      "Highest block number each sync stage has processed.",
	}, []string{"stage"})

	SnapshotUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synclight",
		Name:      "snapshot_uploads_total",
		Help:      "Successful snapshot uploads per database.",
	}, []string{"database"})

	SnapshotUploadFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synclight",
		Name:      "snapshot_upload_failures_total",
		Help:      "Failed snapshot uploads per database.",
	}, []string{"database"})

	SnapshotDeletes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synclight",
		Name:      "snapshot_deletes_total",
		Help:      "Stale snapshot objects garbage-collected per database.",
	}, []string{"database"})
)

// Register adds every collector to reg, called once from cmd/synclight's
// main before starting the orchestrator.
func Register(reg *prometheus.Registry) {
	reg.MustRegister(StageProgress, SnapshotUploads, SnapshotUploadFailures, SnapshotDeletes)
}
