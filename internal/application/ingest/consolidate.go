package ingest

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/qsarflow/internal/domain/descriptor"
	"github.com/turtacn/qsarflow/pkg/errors"
)

// Consolidated is the merger of all chunk outputs back into one result.
type Consolidated struct {
	// Result stacks the chunk matrices vertically, rows in original input
	// order.
	Result *descriptor.Result

	// Kept lists the surviving structures as global input record indices.
	Kept []int

	// Skipped is the total count of structures dropped across all chunks.
	Skipped int
}

// Consolidate merges per-chunk results in split order.  A single failed
// chunk fails the whole run: partial matrices are worthless for modeling, so
// the first recorded error surfaces immediately.  All chunks must agree on
// variable names and column count; disagreement means the chunks were not
// processed under identical settings and is fatal.
func Consolidate(results []ChunkResult) (*Consolidated, error) {
	if len(results) == 0 {
		return nil, errors.New(errors.CodeEmptyRun, "no chunk results to consolidate")
	}

	for _, r := range results {
		if r.Err != nil {
			return nil, errors.WithStage(errors.Wrap(r.Err, errors.CodeChunkFailed,
				fmt.Sprintf("chunk %d failed", r.Index)), StageConsolidate)
		}
	}

	// A nil Result marks a chunk whose structures were all skipped; it
	// contributes its skip count and nothing else, so shape checks compare
	// against the first chunk that actually produced rows.
	var first *descriptor.Result
	firstIdx := 0
	totalRows := 0
	skipped := 0
	for _, r := range results {
		out := r.Output
		skipped += out.Skipped
		if out.Result == nil {
			continue
		}
		if first == nil {
			first = out.Result
			firstIdx = r.Index
		} else if out.Result.Cols() != first.Cols() || !sameNames(out.Result.Names, first.Names) {
			return nil, errors.WithStage(errors.Newf(errors.CodeShapeMismatch,
				"chunk %d produced %d variables, chunk %d produced %d",
				r.Index, out.Result.Cols(), firstIdx, first.Cols()), StageConsolidate)
		}
		totalRows += out.Result.Rows()
	}
	if first == nil || totalRows == 0 {
		return nil, errors.WithStage(errors.New(errors.CodeEmptyRun,
			"no structures survived processing"), StageConsolidate)
	}

	stacked := mat.NewDense(totalRows, first.Cols(), nil)
	kept := make([]int, 0, totalRows)
	row := 0
	for _, r := range results {
		out := r.Output
		if out.Result == nil {
			continue
		}
		for i := 0; i < out.Result.Rows(); i++ {
			stacked.SetRow(row, mat.Row(nil, i, out.Result.Matrix))
			row++
		}
		for _, local := range out.Kept {
			kept = append(kept, r.Offset+local)
		}
	}

	names := make([]string, len(first.Names))
	copy(names, first.Names)
	return &Consolidated{
		Result:  &descriptor.Result{Matrix: stacked, Names: names},
		Kept:    kept,
		Skipped: skipped,
	}, nil
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
