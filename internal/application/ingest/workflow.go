package ingest

import (
	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/internal/domain/descriptor"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/qsarflow/pkg/errors"
)

// Stage tags attached to errors so a failure names the step that produced it.
const (
	StageStandardize = "standardize"
	StageIonize      = "ionize"
	StageConvert3D   = "convert3d"
	StageDescriptors = "descriptors"
	StageSplit       = "split"
	StageConsolidate = "consolidate"
)

// Workflow runs the full preparation sequence for one SD file: standardize,
// optionally ionize, optionally convert to 3D, then compute descriptors.
type Workflow struct {
	cfg config.Config
	log logging.Logger
}

// NewWorkflow builds a Workflow for the given configuration.
func NewWorkflow(cfg config.Config, log logging.Logger) *Workflow {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Workflow{cfg: cfg, log: log}
}

// ChunkOutput is what one workflow pass produces for a single file.
type ChunkOutput struct {
	// Result holds the descriptor matrix and variable names.  Nil when
	// every structure in the file was skipped during standardization.
	Result *descriptor.Result

	// Kept lists the record indices within the input file that survived
	// standardization, in output row order.
	Kept []int

	// Skipped counts the structures dropped during standardization.
	Skipped int
}

// Run executes the stage sequence on the file at path.  idBase offsets the
// internal identifier numbering; the dispatcher passes each chunk's start
// object index.  Any stage error short-circuits the sequence and comes back
// tagged with the stage name.
func (wf *Workflow) Run(path string, idBase int) (*ChunkOutput, error) {
	std := NewStandardizer(wf.cfg.Standardize, wf.log)
	std.IDBase = idBase
	cur, kept, skipped, err := std.Run(path)
	if err != nil {
		return nil, errors.WithStage(err, StageStandardize)
	}
	wf.log.Debug("standardization done",
		logging.String("file", cur),
		logging.Int("kept", len(kept)),
		logging.Int("skipped", skipped))

	// Nothing survived standardization.  That is the molecule-level skip
	// path, not a chunk failure: report an empty output and let the
	// consolidator fold the skip count into the run total.
	if len(kept) == 0 {
		wf.log.Warn("no structures survived standardization",
			logging.String("file", path),
			logging.Int("skipped", skipped))
		return &ChunkOutput{Skipped: skipped}, nil
	}

	cur, err = NewIonizer(wf.cfg.Ionize, wf.log).Run(cur)
	if err != nil {
		return nil, errors.WithStage(err, StageIonize)
	}

	cur, err = NewConverter(wf.cfg.Convert3D, wf.log).Run(cur)
	if err != nil {
		return nil, errors.WithStage(err, StageConvert3D)
	}

	res, err := descriptor.Compute(cur,
		wf.cfg.Descriptors.Methods,
		descriptor.Settings(wf.cfg.Descriptors.Settings),
		wf.log)
	if err != nil {
		return nil, errors.WithStage(err, StageDescriptors)
	}
	if res.Rows() != len(kept) {
		return nil, errors.WithStage(errors.Newf(errors.CodeRowCountMismatch,
			"descriptor rows (%d) do not match standardized structures (%d)",
			res.Rows(), len(kept)), StageDescriptors)
	}

	return &ChunkOutput{Result: res, Kept: kept, Skipped: skipped}, nil
}
