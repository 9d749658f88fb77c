package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/qsarflow/internal/infrastructure/sdfile"
	"github.com/turtacn/qsarflow/pkg/errors"
)

// ChunkResult carries the outcome of one chunk's workflow pass.  Errors are
// recorded here instead of aborting the other workers; the consolidation step
// decides what a failed chunk means for the run.
type ChunkResult struct {
	// Index is the chunk's position in split order.
	Index int

	// Offset is the global record index of the chunk's first structure.
	Offset int

	Output *ChunkOutput
	Err    error
}

// Dispatcher splits an input file into chunks and runs the workflow on each
// chunk concurrently.
type Dispatcher struct {
	wf  *Workflow
	cfg config.WorkerConfig
	log logging.Logger
}

// NewDispatcher builds a Dispatcher around a workflow.
func NewDispatcher(wf *Workflow, cfg config.WorkerConfig, log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if cfg.NumCPUs < 1 {
		cfg.NumCPUs = 1
	}
	return &Dispatcher{wf: wf, cfg: cfg, log: log}
}

// Run splits path into up to NumCPUs chunks inside a fresh scratch directory
// and processes them in parallel.  It returns the per-chunk results in split
// order along with the scratch directory path; the caller owns cleanup.
//
// Every chunk's internal identifier base is its global start offset, so the
// identifiers stay dense and unique across chunk boundaries regardless of
// worker count.
func (d *Dispatcher) Run(ctx context.Context, path string) ([]ChunkResult, string, error) {
	scratch := filepath.Join(os.TempDir(), "qsarflow-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, "", errors.Wrap(err, errors.CodeIO,
			fmt.Sprintf("cannot create scratch directory %s", scratch))
	}

	chunks, counts, offsets, err := sdfile.Split(path, d.cfg.NumCPUs, scratch)
	if err != nil {
		return nil, scratch, errors.WithStage(err, StageSplit)
	}
	d.log.Info("input split",
		logging.String("scratch", scratch),
		logging.Int("chunks", len(chunks)),
		logging.Int("workers", d.cfg.NumCPUs))

	results := make([]ChunkResult, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.NumCPUs)
	for i := range chunks {
		i := i
		results[i] = ChunkResult{Index: i, Offset: offsets[i]}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			out, err := d.wf.Run(chunks[i], offsets[i])
			if err != nil {
				d.log.Error("chunk failed",
					logging.Int("chunk", i),
					logging.Int("structures", counts[i]),
					logging.Err(err))
				results[i].Err = err
				return nil
			}
			results[i].Output = out
			return nil
		})
	}
	// Workers record failures in the result slice, so Wait cannot fail.
	_ = g.Wait()

	return results, scratch, nil
}
