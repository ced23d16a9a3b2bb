// Package importer drives the fetch, decode and build pipeline of SRC assets
// into a supermesh, one asset at a time or a whole model revision at once.
package importer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/supermesh/internal/logger"
	"github.com/Faultbox/supermesh/internal/supermesh"
	"github.com/Faultbox/supermesh/internal/transport"
	"github.com/Faultbox/supermesh/pkg/mapping"
	"github.com/Faultbox/supermesh/pkg/math"
	"github.com/Faultbox/supermesh/pkg/src"
)

// DefaultConcurrency is the number of assets a batch imports at once when
// Options leaves it unset.
const DefaultConcurrency = 4

// ErrAssetPanic marks an asset whose import panicked. The batch records it
// like any other failure and carries on.
var ErrAssetPanic = errors.New("importer: asset import panicked")

// Options configures an Importer.
type Options struct {
	// Concurrency bounds the assets in flight per batch.
	Concurrency int

	// StrictMeshes drops a mesh whose index or position view is unusable.
	StrictMeshes bool
}

// Importer imports assets into a supermesh.
type Importer struct {
	fetcher transport.Fetcher
	mesh    *supermesh.Supermesh
	opts    Options
	log     *zap.Logger
	stats   Stats
}

// New creates an importer. A nil log uses the global logger.
func New(fetcher transport.Fetcher, mesh *supermesh.Supermesh, opts Options, log *zap.Logger) *Importer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if log == nil {
		log = logger.Named("importer")
	}
	return &Importer{
		fetcher: fetcher,
		mesh:    mesh,
		opts:    opts,
		log:     log,
	}
}

// Supermesh returns the target supermesh.
func (im *Importer) Supermesh() *supermesh.Supermesh {
	return im.mesh
}

// Stats returns a snapshot of the running totals.
func (im *Importer) Stats() StatsSnapshot {
	s := im.stats.Snapshot()
	s.Objects = int64(im.mesh.Registry().Len())
	return s
}

// AssetResult describes one imported asset.
type AssetResult struct {
	URI       string
	Meshes    int
	Triangles int
	Vertices  int

	// Translucent is the asset-wide material flag.
	Translucent bool

	// Warnings collects row, channel and identity problems that did not stop
	// the import.
	Warnings []error

	// Err is the error that stopped the import, if any.
	Err error
}

// ImportAsset imports the asset at uri (without suffix). The mapping is
// fetched and resolved first; the SRC is only fetched when that succeeded.
// The returned error equals result.Err.
func (im *Importer) ImportAsset(ctx context.Context, uri string, offset math.Vec3) (*AssetResult, error) {
	res := &AssetResult{URI: uri}
	res.Err = im.importAsset(ctx, uri, offset, res)
	return res, res.Err
}

func (im *Importer) importAsset(ctx context.Context, uri string, offset math.Vec3, res *AssetResult) error {
	log := im.log.With(zap.String("asset", uri))

	data, elapsed, err := im.fetch(ctx, transport.MappingURI(uri))
	if err != nil {
		log.Error("mapping request failed", zap.Error(err))
		return errors.Wrap(err, "fetching mapping")
	}
	im.stats.lastMapping.Store(int64(elapsed))

	m, err := mapping.Parse(data)
	if err != nil {
		log.Error("mapping rejected", zap.Error(err))
		return err
	}
	resolved, err := mapping.Resolve(m, im.mesh.Registry(), im.mesh.Diffuse(), log)
	if err != nil {
		return err
	}
	res.Translucent = resolved.Translucent
	res.Warnings = append(res.Warnings, resolved.Skipped...)
	im.mesh.UpdateParameterMaps(false)

	data, elapsed, err = im.fetch(ctx, transport.SRCURI(uri))
	if err != nil {
		log.Error("src request failed", zap.Error(err))
		return errors.Wrap(err, "fetching src")
	}
	im.stats.lastSRC.Store(int64(elapsed))

	asset, err := src.Decode(data,
		src.WithLogger(log),
		src.WithStrictMeshes(im.opts.StrictMeshes))
	if err != nil {
		return err
	}
	im.stats.uncompressedBytes.Add(int64(asset.UncompressedSize))

	for i := range asset.Meshes {
		raw := &asset.Meshes[i]
		res.Warnings = append(res.Warnings, raw.Errors...)

		mesh, err := supermesh.Build(uri, raw, resolved.LocalToGlobal, offset, resolved.Translucent)
		if err != nil {
			log.Warn("object ids dropped", zap.String("mesh", raw.Name), zap.Error(err))
			res.Warnings = append(res.Warnings, err)
		}
		im.mesh.AddMesh(mesh)

		res.Meshes++
		res.Triangles += mesh.TriangleCount()
		res.Vertices += len(mesh.Positions)
	}
	for _, name := range asset.Dropped {
		res.Warnings = append(res.Warnings, errors.Errorf("mesh %s dropped", name))
	}

	im.stats.meshes.Add(int64(res.Meshes))
	im.stats.triangles.Add(int64(res.Triangles))
	im.stats.vertices.Add(int64(res.Vertices))

	log.Info("asset imported",
		zap.Int("meshes", res.Meshes),
		zap.Int("triangles", res.Triangles),
		zap.Int("vertices", res.Vertices),
		zap.Bool("translucent", res.Translucent),
		zap.Int("warnings", len(res.Warnings)))
	return nil
}

// fetch wraps the transport with request accounting.
func (im *Importer) fetch(ctx context.Context, uri string) ([]byte, time.Duration, error) {
	im.stats.activeRequests.Add(1)
	defer im.stats.activeRequests.Add(-1)

	start := time.Now()
	data, err := im.fetcher.Fetch(ctx, uri)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, err
	}
	im.stats.downloadedBytes.Add(int64(len(data)))
	im.log.Debug("fetched", zap.String("uri", uri), zap.Int("bytes", len(data)), zap.Duration("elapsed", elapsed))
	return data, elapsed, nil
}
