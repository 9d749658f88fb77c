package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const benzeneBlock = `benzene
  test

  6  6  0  0  0  0  0  0  0  0999 V2000
    0.0000    1.4000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.2124    0.7000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.2124   -0.7000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    0.0000   -1.4000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
   -1.2124   -0.7000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
   -1.2124    0.7000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  2  0
  2  3  1  0
  3  4  2  0
  4  5  1  0
  5  6  2  0
  6  1  1  0
M  END
`

func TestImplicitHydrogens(t *testing.T) {
	m, err := ParseMolBlock(ethanolBlock)
	require.NoError(t, err)

	// CH3-CH2-OH: 3 + 2 + 1 implicit hydrogens.
	assert.Equal(t, []int{3, 2, 1}, m.ImplicitHydrogens())
}

func TestMolecularWeight(t *testing.T) {
	m, err := ParseMolBlock(ethanolBlock)
	require.NoError(t, err)

	// C2H6O = 46.07 g/mol.
	assert.InDelta(t, 46.07, m.MolecularWeight(), 0.01)
}

func TestHBondCounts(t *testing.T) {
	m, err := ParseMolBlock(ethanolBlock)
	require.NoError(t, err)

	assert.Equal(t, 1, m.HBondDonors())
	assert.Equal(t, 1, m.HBondAcceptors())
}

const butaneBlock = `butane
  test

  4  3  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.5000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    2.2500    1.2990    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    3.7500    1.2990    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
  2  3  1  0
  3  4  1  0
M  END
`

func TestRotatableBonds(t *testing.T) {
	t.Run("terminal bonds excluded", func(t *testing.T) {
		m, err := ParseMolBlock(butaneBlock)
		require.NoError(t, err)
		// Only the central C-C bond has a further heavy neighbour on both
		// sides.
		assert.Equal(t, 1, m.RotatableBonds())
	})

	t.Run("ring bonds never rotate", func(t *testing.T) {
		m, err := ParseMolBlock(benzeneBlock)
		require.NoError(t, err)
		assert.Equal(t, 0, m.RotatableBonds())
	})
}

func TestRingCount(t *testing.T) {
	benzene, err := ParseMolBlock(benzeneBlock)
	require.NoError(t, err)
	assert.Equal(t, 1, benzene.RingCount())

	chain, err := ParseMolBlock(ethanolBlock)
	require.NoError(t, err)
	assert.Equal(t, 0, chain.RingCount())
}

func TestChargedValences(t *testing.T) {
	m, err := ParseMolBlock(sodiumAcetateBlock)
	require.NoError(t, err)

	implicit := m.ImplicitHydrogens()
	// Carboxylate O⁻ carries no implicit hydrogen.
	assert.Equal(t, 0, implicit[3])
	// Carbonyl O is fully bonded.
	assert.Equal(t, 0, implicit[2])
	// Methyl carbon keeps its three hydrogens.
	assert.Equal(t, 3, implicit[0])
}
