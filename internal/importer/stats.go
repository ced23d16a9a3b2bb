package importer

import (
	"sync/atomic"
	"time"
)

// Stats holds running totals of an importer. All counters are updated
// atomically and may be read while imports run.
type Stats struct {
	triangles         atomic.Int64
	vertices          atomic.Int64
	meshes            atomic.Int64
	activeRequests    atomic.Int64
	uncompressedBytes atomic.Int64
	downloadedBytes   atomic.Int64
	lastMapping       atomic.Int64
	lastSRC           atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Triangles         int64
	Vertices          int64
	Meshes            int64
	Objects           int64
	ActiveRequests    int64
	UncompressedBytes int64
	DownloadedBytes   int64
	LastMappingTime   time.Duration
	LastSRCTime       time.Duration
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Triangles:         s.triangles.Load(),
		Vertices:          s.vertices.Load(),
		Meshes:            s.meshes.Load(),
		ActiveRequests:    s.activeRequests.Load(),
		UncompressedBytes: s.uncompressedBytes.Load(),
		DownloadedBytes:   s.downloadedBytes.Load(),
		LastMappingTime:   time.Duration(s.lastMapping.Load()),
		LastSRCTime:       time.Duration(s.lastSRC.Load()),
	}
}
