package importer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/supermesh/internal/supermesh"
	"github.com/Faultbox/supermesh/internal/transport"
	"github.com/Faultbox/supermesh/pkg/math"
)

// Batch imports many assets concurrently. Every asset added reports
// completion exactly once, whatever the outcome, and the batch is done when
// its outstanding counter returns to zero.
type Batch struct {
	im         *Importer
	id         string
	log        *zap.Logger
	onComplete func(*AssetResult)

	sem         chan struct{}
	outstanding atomic.Int64
	wg          sync.WaitGroup

	mu      sync.Mutex
	results []*AssetResult
	err     error
}

// NewBatch starts an empty batch. onComplete, if not nil, is called once per
// asset from the goroutine that imported it.
func (im *Importer) NewBatch(onComplete func(*AssetResult)) *Batch {
	id := newJobID()
	return &Batch{
		im:         im,
		id:         id,
		log:        im.log.With(zap.String("job", id)),
		onComplete: onComplete,
		sem:        make(chan struct{}, im.opts.Concurrency),
	}
}

func newJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ID returns the batch's job id, attached to all of its log lines.
func (b *Batch) ID() string {
	return b.id
}

// Add schedules an asset.
func (b *Batch) Add(ctx context.Context, uri string, offset math.Vec3) {
	b.outstanding.Add(1)
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		res := &AssetResult{URI: uri}
		defer b.complete(res)
		defer func() {
			if r := recover(); r != nil {
				res.Err = errors.Wrapf(ErrAssetPanic, "%v", r)
			}
		}()

		select {
		case b.sem <- struct{}{}:
			defer func() { <-b.sem }()
		case <-ctx.Done():
			res.Err = errors.Wrapf(transport.ErrTransport, "%s: %v", uri, ctx.Err())
			return
		}

		res.Err = b.im.importAsset(ctx, uri, offset, res)
	}()
}

func (b *Batch) complete(res *AssetResult) {
	if res.Err != nil {
		res.Err = errors.Wrap(res.Err, res.URI)
		b.log.Error("asset failed", zap.String("asset", res.URI), zap.Error(res.Err))
	}

	b.mu.Lock()
	b.results = append(b.results, res)
	b.err = multierr.Append(b.err, res.Err)
	b.mu.Unlock()

	if b.onComplete != nil {
		b.onComplete(res)
	}

	if left := b.outstanding.Add(-1); left == 0 {
		b.log.Info("all assets completed")
	}
}

// Outstanding returns the number of assets not yet completed.
func (b *Batch) Outstanding() int64 {
	return b.outstanding.Load()
}

// Wait blocks until every added asset completed and returns the results in
// completion order with the combined error of the failed assets.
func (b *Batch) Wait() ([]*AssetResult, error) {
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*AssetResult(nil), b.results...), b.err
}

// RevisionResult describes an imported model revision.
type RevisionResult struct {
	JobID  string
	Units  supermesh.Unit
	Assets []*AssetResult
}

// ImportRevision imports every asset of a model revision. The model settings
// and the asset list are fetched in parallel; a settings failure only leaves
// the supermesh unscaled. An asset list failure aborts the import. Failed
// assets do not stop their siblings; their errors are combined in the
// returned error.
func (im *Importer) ImportRevision(ctx context.Context, teamspace, model, revision string, onComplete func(*AssetResult)) (*RevisionResult, error) {
	batch := im.NewBatch(onComplete)
	log := batch.log.With(zap.String("teamspace", teamspace), zap.String("model", model))
	res := &RevisionResult{JobID: batch.ID()}

	settingsDone := make(chan struct{})
	go func() {
		defer close(settingsDone)
		data, _, err := im.fetch(ctx, transport.ModelSettingsURI(teamspace, model))
		if err != nil {
			log.Warn("model settings unavailable", zap.Error(err))
			return
		}
		settings, err := ParseModelSettings(data)
		if err != nil {
			log.Warn("model settings rejected", zap.Error(err))
			return
		}
		res.Units = supermesh.ParseUnit(settings.Properties.Unit)
		im.mesh.SetUnits(res.Units)
		log.Info("model units", zap.String("unit", string(res.Units)), zap.Float32("scale", res.Units.Scale()))
	}()

	data, _, err := im.fetch(ctx, transport.RevisionAssetsURI(teamspace, model, revision))
	if err != nil {
		<-settingsDone
		return res, errors.Wrap(err, "fetching asset list")
	}
	list, err := ParseAssetList(data)
	if err != nil {
		<-settingsDone
		return res, err
	}

	plan := list.Plan()
	log.Info("importing revision", zap.String("revision", revision), zap.Int("assets", len(plan)))
	for _, a := range plan {
		batch.Add(ctx, a.URI, a.Offset)
	}

	<-settingsDone
	res.Assets, err = batch.Wait()
	return res, err
}
