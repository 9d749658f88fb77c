package ingest

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/internal/domain/descriptor"
	"github.com/turtacn/qsarflow/pkg/errors"
)

func moleculeCfg(workers int) config.Config {
	cfg := *config.NewDefault()
	cfg.Worker.NumCPUs = workers
	cfg.Cache.Enabled = false
	return cfg
}

func runConsolidated(t *testing.T, path string, workers int) *Consolidated {
	t.Helper()
	cfg := moleculeCfg(workers)
	disp := NewDispatcher(NewWorkflow(cfg, nil), cfg.Worker, nil)

	results, scratch, err := disp.Run(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(scratch) })

	cons, err := Consolidate(results)
	require.NoError(t, err)
	return cons
}

func TestWorkerCountDoesNotChangeResult(t *testing.T) {
	path := writeSD(t, t.TempDir(),
		ethanolBlock, sodiumAcetateBlock, aceticAcidBlock, methylamineBlock, ethanolBlock)

	serial := runConsolidated(t, path, 1)
	parallel := runConsolidated(t, path, 3)

	assert.Equal(t, serial.Kept, parallel.Kept)
	assert.Equal(t, serial.Result.Names, parallel.Result.Names)
	assert.True(t, mat.Equal(serial.Result.Matrix, parallel.Result.Matrix),
		"matrix must be identical for any worker count")
}

func TestWorkflowSkipPropagation(t *testing.T) {
	path := writeSD(t, t.TempDir(), ethanolBlock, brokenBlock, aceticAcidBlock)

	cons := runConsolidated(t, path, 2)
	assert.Equal(t, []int{0, 2}, cons.Kept, "global indices skip the broken record")
	assert.Equal(t, 1, cons.Skipped)
	assert.Equal(t, 2, cons.Result.Rows())
}

func TestChunkOfOnlySkippedStructures(t *testing.T) {
	// Three records over two workers puts the broken record alone in the
	// second chunk.  An all-skipped chunk is still the molecule-level skip
	// path: the run must succeed and agree with the single-worker result.
	path := writeSD(t, t.TempDir(), ethanolBlock, sodiumAcetateBlock, brokenBlock)

	serial := runConsolidated(t, path, 1)
	parallel := runConsolidated(t, path, 2)

	assert.Equal(t, []int{0, 1}, parallel.Kept)
	assert.Equal(t, 1, parallel.Skipped)
	assert.Equal(t, serial.Kept, parallel.Kept)
	assert.True(t, mat.Equal(serial.Result.Matrix, parallel.Result.Matrix))
}

func TestWorkflowStageTagging(t *testing.T) {
	path := writeSD(t, t.TempDir(), ethanolBlock)
	cfg := moleculeCfg(1)
	cfg.Convert3D.Methods = []string{"corina"}

	_, err := NewWorkflow(cfg, nil).Run(path, 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConvert3DMethodUnknown))
	assert.Equal(t, StageConvert3D, errors.GetStage(err))
}

func TestConsolidateFailures(t *testing.T) {
	ok := &ChunkOutput{
		Result: &descriptor.Result{
			Matrix: mat.NewDense(1, 2, []float64{1, 2}),
			Names:  []string{"a", "b"},
		},
		Kept: []int{0},
	}

	t.Run("single failed chunk fails the run", func(t *testing.T) {
		results := []ChunkResult{
			{Index: 0, Offset: 0, Output: ok},
			{Index: 1, Offset: 1, Err: errors.New(errors.CodeStandardizeFailed, "disk died")},
		}
		_, err := Consolidate(results)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeChunkFailed))
		assert.Contains(t, err.Error(), "chunk 1")
	})

	t.Run("column disagreement is fatal", func(t *testing.T) {
		narrow := &ChunkOutput{
			Result: &descriptor.Result{
				Matrix: mat.NewDense(1, 1, []float64{9}),
				Names:  []string{"a"},
			},
			Kept: []int{0},
		}
		results := []ChunkResult{
			{Index: 0, Offset: 0, Output: ok},
			{Index: 1, Offset: 1, Output: narrow},
		}
		_, err := Consolidate(results)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeShapeMismatch))
	})

	t.Run("no results is an empty run", func(t *testing.T) {
		_, err := Consolidate(nil)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeEmptyRun))
	})

	t.Run("all chunks empty is an empty run", func(t *testing.T) {
		results := []ChunkResult{
			{Index: 0, Offset: 0, Output: &ChunkOutput{Skipped: 1}},
			{Index: 1, Offset: 1, Output: &ChunkOutput{Skipped: 2}},
		}
		_, err := Consolidate(results)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeEmptyRun))
	})
}

func TestConsolidateToleratesEmptyChunks(t *testing.T) {
	mk := func(vals []float64, kept []int) *ChunkOutput {
		return &ChunkOutput{
			Result: &descriptor.Result{
				Matrix: mat.NewDense(len(kept), 1, vals),
				Names:  []string{"x"},
			},
			Kept: kept,
		}
	}
	results := []ChunkResult{
		{Index: 0, Offset: 0, Output: mk([]float64{1}, []int{0})},
		{Index: 1, Offset: 1, Output: &ChunkOutput{Skipped: 2}},
		{Index: 2, Offset: 3, Output: mk([]float64{4}, []int{0})},
	}

	cons, err := Consolidate(results)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, cons.Kept)
	assert.Equal(t, 2, cons.Skipped)
	assert.Equal(t, 2, cons.Result.Rows())
}

func TestConsolidateOffsetsTranslate(t *testing.T) {
	mk := func(vals []float64, kept []int) *ChunkOutput {
		return &ChunkOutput{
			Result: &descriptor.Result{
				Matrix: mat.NewDense(len(kept), 1, vals),
				Names:  []string{"x"},
			},
			Kept: kept,
		}
	}
	results := []ChunkResult{
		{Index: 0, Offset: 0, Output: mk([]float64{1, 2}, []int{0, 1})},
		{Index: 1, Offset: 2, Output: mk([]float64{3}, []int{1})},
	}

	cons, err := Consolidate(results)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3}, cons.Kept)
	assert.Equal(t, 3, cons.Result.Rows())
	assert.Equal(t, 3.0, cons.Result.Matrix.At(2, 0))
}
