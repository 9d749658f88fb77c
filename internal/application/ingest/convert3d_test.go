package ingest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/internal/domain/molecule"
	"github.com/turtacn/qsarflow/internal/infrastructure/sdfile"
	"github.com/turtacn/qsarflow/pkg/errors"
)

func TestConverterDisabledIsPassThrough(t *testing.T) {
	path := writeSD(t, t.TempDir(), ethanolBlock)
	conv := NewConverter(config.Convert3DConfig{}, nil)

	out, err := conv.Run(path)
	require.NoError(t, err)
	assert.Equal(t, path, out)
}

func TestConverterNoRecognizedMethod(t *testing.T) {
	conv := NewConverter(config.Convert3DConfig{Methods: []string{"corina", "omega"}}, nil)
	_, err := conv.Run("whatever.sdf")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConvert3DMethodUnknown))
}

func TestConverterEmbed(t *testing.T) {
	path := writeSD(t, t.TempDir(), ethanolBlock)
	conv := NewConverter(config.Convert3DConfig{Methods: []string{config.Convert3DEmbed}}, nil)

	out, err := conv.Run(path)
	require.NoError(t, err)
	assert.NotEqual(t, path, out)

	records, err := sdfile.ReadAll(out)
	require.NoError(t, err)
	mol, err := molecule.ParseMolBlock(records[0].Molblock)
	require.NoError(t, err)

	hasZ := false
	for _, a := range mol.Atoms {
		if a.Z != 0 {
			hasZ = true
		}
	}
	assert.True(t, hasZ, "embedding must leave the plane")
}

func TestConverterEmbedDeterministic(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	pathA := writeSD(t, dirA, ethanolBlock, sodiumAcetateBlock)
	pathB := writeSD(t, dirB, ethanolBlock, sodiumAcetateBlock)

	conv := NewConverter(config.Convert3DConfig{Methods: []string{config.Convert3DEmbed}}, nil)
	outA, err := conv.Run(pathA)
	require.NoError(t, err)
	outB, err := conv.Run(pathB)
	require.NoError(t, err)

	bytesA, err := os.ReadFile(outA)
	require.NoError(t, err)
	bytesB, err := os.ReadFile(outB)
	require.NoError(t, err)
	assert.Equal(t, bytesA, bytesB, "embedding is reproducible across runs")
}
