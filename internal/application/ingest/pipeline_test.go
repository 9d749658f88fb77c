package ingest

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/metrics"
)

// memStore is an in-memory SnapshotStore recording call counts.
type memStore struct {
	snapshots map[string][]byte
	lookups   int
	saves     int
}

func newMemStore() *memStore {
	return &memStore{snapshots: map[string][]byte{}}
}

func (s *memStore) Lookup(stamp, inputSum string) ([]byte, bool, error) {
	s.lookups++
	payload, ok := s.snapshots[stamp+"/"+inputSum]
	return payload, ok, nil
}

func (s *memStore) Save(stamp, inputSum string, payload []byte) error {
	s.saves++
	s.snapshots[stamp+"/"+inputSum] = payload
	return nil
}

func TestPipelineMoleculeRun(t *testing.T) {
	path := writeSD(t, t.TempDir(), ethanolBlock, sodiumAcetateBlock, brokenBlock)
	cfg := moleculeCfg(2)

	p := NewPipeline(cfg, nil, metrics.NewNop(), nil)
	ds, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, ds.NumObjects())
	assert.Equal(t, 1, ds.Skipped)
	assert.Len(t, ds.Names, 2)
	assert.Len(t, ds.Activities, 2)
	assert.Equal(t, "ethanol", ds.Names[0])
	assert.Equal(t, "sodium acetate", ds.Names[1])
	assert.True(t, math.IsNaN(ds.Activities[0]), "no activity field in fixture")

	mwCol := -1
	for i, n := range ds.VarNames {
		if n == "properties.MW" {
			mwCol = i
		}
	}
	require.GreaterOrEqual(t, mwCol, 0)
	assert.InDelta(t, 46.07, ds.X.At(0, mwCol), 0.01)
}

func TestPipelineCacheRoundTrip(t *testing.T) {
	path := writeSD(t, t.TempDir(), ethanolBlock, aceticAcidBlock)
	cfg := moleculeCfg(1)
	cfg.Cache.Enabled = true

	store := newMemStore()
	p := NewPipeline(cfg, store, metrics.NewNop(), nil)

	first, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)

	second, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves, "second run must not recompute")
	assert.Equal(t, 2, store.lookups)

	assert.Equal(t, first.Names, second.Names)
	assert.Equal(t, first.VarNames, second.VarNames)
	assert.Equal(t, first.NumObjects(), second.NumObjects())
}

func TestPipelineCacheKeyedByInput(t *testing.T) {
	dir := t.TempDir()
	path := writeSD(t, dir, ethanolBlock)
	cfg := moleculeCfg(1)
	cfg.Cache.Enabled = true

	store := newMemStore()
	p := NewPipeline(cfg, store, metrics.NewNop(), nil)

	_, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	// Changing the input invalidates the snapshot even under the same stamp.
	require.NoError(t, os.Remove(path))
	path2 := writeSD(t, dir, ethanolBlock, aceticAcidBlock)
	ds, err := p.Run(context.Background(), path2)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumObjects())
	assert.Equal(t, 2, store.saves)
}

func TestPipelineScratchCleanup(t *testing.T) {
	path := writeSD(t, t.TempDir(), ethanolBlock)
	cfg := moleculeCfg(2)

	tmpBefore := countScratchDirs(t)
	p := NewPipeline(cfg, nil, nil, nil)
	_, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, tmpBefore, countScratchDirs(t), "scratch directory removed after the run")
}

func TestPipelineKeepIntermediates(t *testing.T) {
	path := writeSD(t, t.TempDir(), ethanolBlock)
	cfg := moleculeCfg(2)
	cfg.Worker.KeepIntermediates = true

	before := countScratchDirs(t)
	p := NewPipeline(cfg, nil, nil, nil)
	_, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	after := countScratchDirs(t)
	assert.Equal(t, before+1, after, "scratch directory retained on request")

	// Remove what this test left behind.
	entries, _ := os.ReadDir(os.TempDir())
	for _, e := range entries {
		if e.IsDir() && len(e.Name()) > 9 && e.Name()[:9] == "qsarflow-" {
			os.RemoveAll(filepath.Join(os.TempDir(), e.Name()))
		}
	}
}

func countScratchDirs(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(os.TempDir())
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if e.IsDir() && len(e.Name()) > 9 && e.Name()[:9] == "qsarflow-" {
			n++
		}
	}
	return n
}

func TestPipelineDataInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.tsv")
	content := "name\tactivity\tMW\tlogP\n" +
		"mol1\t1.5\t46.07\t-0.31\n" +
		"mol2\t\t58.08\t0.15\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := moleculeCfg(1)
	cfg.Input.Type = config.InputData

	p := NewPipeline(cfg, nil, nil, nil)
	ds, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, ds.NumObjects())
	assert.Equal(t, []string{"MW", "logP"}, ds.VarNames)
	assert.InDelta(t, 1.5, ds.Activities[0], 1e-9)
	assert.True(t, math.IsNaN(ds.Activities[1]))
	assert.InDelta(t, 58.08, ds.X.At(1, 0), 1e-9)
}

func TestPipelineDataInputPositionalNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.tsv")
	content := "MW\tlogP\n46.07\t-0.31\n58.08\t0.15\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := moleculeCfg(1)
	cfg.Input.Type = config.InputData

	ds, err := NewPipeline(cfg, nil, nil, nil).Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"obj0", "obj1"}, ds.Names, "positional names are zero-based")
}
