package descriptor

import (
	"github.com/turtacn/qsarflow/internal/domain/molecule"
)

// propertyNames lists the constitutional descriptors in column order.
var propertyNames = []string{
	"MW",             // molecular weight, implicit hydrogens included
	"HeavyAtoms",     // non-hydrogen atom count
	"Heteroatoms",    // heavy atoms other than carbon
	"Bonds",          // explicit bond count
	"Rings",          // smallest set of smallest rings (cyclomatic number)
	"RotatableBonds", // acyclic single bonds between substituted heavy atoms
	"HBD",            // hydrogen-bond donors (N/O bearing H)
	"HBA",            // hydrogen-bond acceptors (N + O)
	"NetCharge",      // sum of formal charges
	"Fragments",      // connected components (1 after salt stripping)
}

// computeProperties is the "properties" built-in: fast constitutional
// descriptors derived directly from the connection table.
func computeProperties(path string, _ Settings) (*Result, error) {
	return perMolecule(path, propertyNames, func(m *molecule.Molecule) []float64 {
		heavy := 0
		hetero := 0
		for _, a := range m.Atoms {
			if a.Symbol == "H" {
				continue
			}
			heavy++
			if molecule.IsHeteroatom(a.Symbol) {
				hetero++
			}
		}
		return []float64{
			m.MolecularWeight(),
			float64(heavy),
			float64(hetero),
			float64(m.NumBonds()),
			float64(m.RingCount()),
			float64(m.RotatableBonds()),
			float64(m.HBondDonors()),
			float64(m.HBondAcceptors()),
			float64(m.NetCharge()),
			float64(len(m.Fragments())),
		}
	})
}
