package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

const sodiumAcetateBlock = `sodium acetate
  test

  5  3  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.5000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    2.2500    1.2990    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
    2.2500   -1.2990    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
    5.0000    0.0000    0.0000 Na  0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
  2  3  2  0
  2  4  1  0
M  CHG  2   4  -1   5   1
M  END
`

func TestParseMolBlock(t *testing.T) {
	t.Run("ethanol", func(t *testing.T) {
		m, err := ParseMolBlock(ethanolBlock)
		require.NoError(t, err)

		assert.Equal(t, "ethanol", m.Title)
		assert.Equal(t, 3, m.NumAtoms())
		assert.Equal(t, 2, m.NumBonds())
		assert.Equal(t, "O", m.Atoms[2].Symbol)
		assert.InDelta(t, 1.299, m.Atoms[2].Y, 1e-6)
	})

	t.Run("charge properties override", func(t *testing.T) {
		m, err := ParseMolBlock(sodiumAcetateBlock)
		require.NoError(t, err)

		assert.Equal(t, -1, m.Charge(3))
		assert.Equal(t, 1, m.Charge(4))
		assert.Equal(t, 0, m.NetCharge())
	})

	t.Run("truncated block is malformed", func(t *testing.T) {
		_, err := ParseMolBlock("only\ntwo lines")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeMolBlockMalformed))
	})

	t.Run("bond outside atom table is malformed", func(t *testing.T) {
		block := `bad
  test

  1  1  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
  1  9  1  0
M  END
`
		_, err := ParseMolBlock(block)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeMolBlockMalformed))
	})
}

func TestWriteMolBlockRoundTrip(t *testing.T) {
	m, err := ParseMolBlock(sodiumAcetateBlock)
	require.NoError(t, err)

	back, err := ParseMolBlock(WriteMolBlock(m))
	require.NoError(t, err)

	assert.Equal(t, m.Title, back.Title)
	assert.Equal(t, m.NumAtoms(), back.NumAtoms())
	assert.Equal(t, m.NumBonds(), back.NumBonds())
	assert.Equal(t, m.Charges, back.Charges)
}

func TestFragmentsAndSubset(t *testing.T) {
	m, err := ParseMolBlock(sodiumAcetateBlock)
	require.NoError(t, err)

	frags := m.Fragments()
	require.Len(t, frags, 2)
	assert.Len(t, frags[0], 4, "largest fragment first")
	assert.Len(t, frags[1], 1)

	acetate := m.Subset(frags[0])
	assert.Equal(t, 4, acetate.NumAtoms())
	assert.Equal(t, 3, acetate.NumBonds())
	assert.Equal(t, -1, acetate.NetCharge(), "counter-ion charge dropped with its atom")
}
