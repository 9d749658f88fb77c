package ingest

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/internal/infrastructure/cache"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/metrics"
	"github.com/turtacn/qsarflow/pkg/errors"
)

// SnapshotStore is the persistence surface the pipeline needs for result
// reuse.  A nil store disables caching entirely.
type SnapshotStore interface {
	Lookup(stamp, inputSum string) ([]byte, bool, error)
	Save(stamp, inputSum string, payload []byte) error
}

// Pipeline is the top-level ingestion orchestrator.
type Pipeline struct {
	cfg   config.Config
	store SnapshotStore
	m     *metrics.Metrics
	log   logging.Logger
}

// NewPipeline assembles a Pipeline.  store and m may be nil.
func NewPipeline(cfg config.Config, store SnapshotStore, m *metrics.Metrics, log logging.Logger) *Pipeline {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Pipeline{cfg: cfg, store: store, m: m, log: log}
}

// Run ingests the input file at path and returns the resulting dataset.
//
// When caching is enabled, a snapshot keyed by the parameter stamp and the
// input checksum short-circuits the whole computation: same input, same
// settings, same result.
func (p *Pipeline) Run(ctx context.Context, path string) (*Dataset, error) {
	start := time.Now()

	stamp := cache.Stamp(p.cfg)
	sum, err := cache.InputChecksum(path)
	if err != nil {
		return nil, err
	}
	p.log.Info("ingestion started",
		logging.String("input", path),
		logging.String("stamp", stamp),
		logging.String("checksum", sum))

	if ds, ok := p.lookup(stamp, sum); ok {
		p.log.Info("snapshot hit, skipping computation",
			logging.Int("objects", ds.NumObjects()))
		return ds, nil
	}

	var ds *Dataset
	if p.cfg.Input.Type == config.InputData {
		ds, err = ReadDataFile(path, p.cfg.Input)
	} else {
		ds, err = p.runChemistry(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	p.save(stamp, sum, ds)
	p.m.RunDuration.Observe(time.Since(start).Seconds())
	p.log.Info("ingestion finished",
		logging.Int("objects", ds.NumObjects()),
		logging.Int("variables", ds.NumVars()),
		logging.Int("skipped", ds.Skipped),
		logging.Duration("elapsed", time.Since(start)))
	return ds, nil
}

// runChemistry executes the full structure workflow: annotation extraction,
// parallel per-chunk processing, consolidation, and row alignment.
func (p *Pipeline) runChemistry(ctx context.Context, path string) (*Dataset, error) {
	ann, err := Extract(path, p.cfg.Input)
	if err != nil {
		return nil, err
	}

	wf := NewWorkflow(p.cfg, p.log)
	disp := NewDispatcher(wf, p.cfg.Worker, p.log)
	results, scratch, err := disp.Run(ctx, path)
	if scratch != "" && !p.cfg.Worker.KeepIntermediates {
		defer func() {
			if err := os.RemoveAll(scratch); err != nil {
				p.log.Warn("cannot remove scratch directory", logging.Err(err))
			}
		}()
	}
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Err != nil {
			stage := errors.GetStage(r.Err)
			if stage == "" {
				stage = StageConsolidate
			}
			p.m.ChunksFailed.WithLabelValues(stage).Inc()
		}
	}

	cons, err := Consolidate(results)
	if err != nil {
		return nil, err
	}
	if cons.Result.Rows() > ann.Len() {
		return nil, errors.Newf(errors.CodeShapeMismatch,
			"consolidated %d rows from %d input structures",
			cons.Result.Rows(), ann.Len())
	}

	aligned := ann.Select(cons.Kept)
	base := filepath.Base(path)
	p.m.MoleculesProcessed.WithLabelValues(base).Add(float64(cons.Result.Rows()))
	p.m.MoleculesSkipped.WithLabelValues(base).Add(float64(cons.Skipped))

	return &Dataset{
		X:            cons.Result.Matrix,
		VarNames:     cons.Result.Names,
		Names:        aligned.Names,
		Activities:   aligned.Activities,
		Experimental: aligned.Experimental,
		Skipped:      cons.Skipped,
	}, nil
}

func (p *Pipeline) lookup(stamp, sum string) (*Dataset, bool) {
	if p.store == nil || !p.cfg.Cache.Enabled {
		return nil, false
	}
	payload, ok, err := p.store.Lookup(stamp, sum)
	if err != nil {
		p.log.Warn("snapshot lookup failed", logging.Err(err))
		return nil, false
	}
	if !ok {
		p.m.CacheMisses.Inc()
		return nil, false
	}
	ds, err := DecodeDataset(payload)
	if err != nil {
		p.log.Warn("snapshot payload corrupt, recomputing", logging.Err(err))
		p.m.CacheMisses.Inc()
		return nil, false
	}
	p.m.CacheHits.Inc()
	return ds, true
}

func (p *Pipeline) save(stamp, sum string, ds *Dataset) {
	if p.store == nil || !p.cfg.Cache.Enabled {
		return
	}
	payload, err := ds.Encode()
	if err != nil {
		p.log.Warn("cannot encode snapshot", logging.Err(err))
		return
	}
	if err := p.store.Save(stamp, sum, payload); err != nil {
		p.log.Warn("cannot save snapshot", logging.Err(err))
	}
}
