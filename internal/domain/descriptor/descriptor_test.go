package descriptor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/qsarflow/pkg/errors"
)

const ethanolBlock = `ethanol
  test

  3  2  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.5000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    2.2500    1.2990    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
  2  3  1  0
M  END
`

const propaneBlock = `propane
  test

  3  2  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.5000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    2.2500    1.2990    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
  2  3  1  0
M  END
`

func writeFixture(t *testing.T, blocks ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mols.sdf")
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b)
		sb.WriteString("$$$$\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestComputeProperties(t *testing.T) {
	path := writeFixture(t, ethanolBlock, propaneBlock)

	res, err := Compute(path, []string{MethodProperties}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Rows())
	assert.Equal(t, len(propertyNames), res.Cols())
	assert.Equal(t, "properties.MW", res.Names[0])

	// Row 0 is ethanol: MW ~46.07, one heteroatom.
	assert.InDelta(t, 46.07, res.Matrix.At(0, 0), 0.01)
	hetCol := indexOf(t, res.Names, "properties.Heteroatoms")
	assert.Equal(t, 1.0, res.Matrix.At(0, hetCol))
	assert.Equal(t, 0.0, res.Matrix.At(1, hetCol))
}

func TestComputeMultiMethodConcat(t *testing.T) {
	path := writeFixture(t, ethanolBlock, propaneBlock)

	res, err := Compute(path, []string{MethodProperties, MethodTopological}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Rows())
	assert.Equal(t, len(propertyNames)+len(topologicalNames), res.Cols())
	assert.True(t, strings.HasPrefix(res.Names[0], "properties."))
	assert.True(t, strings.HasPrefix(res.Names[len(propertyNames)], "topological."))
}

func TestComputeMorganSettings(t *testing.T) {
	path := writeFixture(t, ethanolBlock)

	res, err := Compute(path, []string{MethodMorgan},
		Settings{"morgan.bits": "32"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 32, res.Cols())
	sum := mat.Sum(res.Matrix)
	assert.Greater(t, sum, 0.0, "some environment must hash somewhere")
}

func TestComputeUnknownMethods(t *testing.T) {
	path := writeFixture(t, ethanolBlock)

	t.Run("unknown method skipped when another succeeds", func(t *testing.T) {
		res, err := Compute(path, []string{"quantum", MethodProperties}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, len(propertyNames), res.Cols())
	})

	t.Run("all methods unknown is fatal", func(t *testing.T) {
		_, err := Compute(path, []string{"quantum", "docking"}, nil, nil)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeNoDescriptors))
	})
}

func TestDisabledMethodNeverRuns(t *testing.T) {
	invoked := false
	require.NoError(t, Register("tracer", func(path string, settings Settings) (*Result, error) {
		invoked = true
		return computeProperties(path, settings)
	}))

	path := writeFixture(t, ethanolBlock)
	_, err := Compute(path, []string{MethodProperties}, nil, nil)
	require.NoError(t, err)
	assert.False(t, invoked, "unlisted method must not be invoked")

	_, err = Compute(path, []string{"tracer"}, nil, nil)
	require.NoError(t, err)
	assert.True(t, invoked)
}

func TestRegisterConflict(t *testing.T) {
	err := Register(MethodProperties, computeProperties)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestRegisteredMethodsSorted(t *testing.T) {
	names := RegisteredMethods()
	assert.Contains(t, names, MethodProperties)
	assert.Contains(t, names, MethodTopological)
	assert.Contains(t, names, MethodMorgan)
	assert.True(t, sortedStrings(names))
}

func sortedStrings(names []string) bool {
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			return false
		}
	}
	return true
}

func indexOf(t *testing.T, names []string, want string) int {
	t.Helper()
	for i, n := range names {
		if n == want {
			return i
		}
	}
	t.Fatalf("column %q not found in %v", want, names)
	return -1
}
