package molecule

// Element data tables used by standardization and descriptor computation.
// Coverage is the organic subset plus the counter-ions common in screening
// collections; unknown elements fall back to carbon-like defaults.

// atomicNumbers maps element symbols to atomic numbers.
var atomicNumbers = map[string]int{
	"H": 1, "He": 2, "Li": 3, "Be": 4, "B": 5, "C": 6, "N": 7, "O": 8,
	"F": 9, "Ne": 10, "Na": 11, "Mg": 12, "Al": 13, "Si": 14, "P": 15,
	"S": 16, "Cl": 17, "Ar": 18, "K": 19, "Ca": 20, "Fe": 26, "Cu": 29,
	"Zn": 30, "Se": 34, "Br": 35, "Sn": 50, "I": 53, "Pt": 78,
}

// atomicMasses maps element symbols to standard atomic masses.
var atomicMasses = map[string]float64{
	"H": 1.008, "Li": 6.94, "B": 10.81, "C": 12.011, "N": 14.007,
	"O": 15.999, "F": 18.998, "Na": 22.990, "Mg": 24.305, "Al": 26.982,
	"Si": 28.085, "P": 30.974, "S": 32.06, "Cl": 35.45, "K": 39.098,
	"Ca": 40.078, "Fe": 55.845, "Cu": 63.546, "Zn": 65.38, "Se": 78.971,
	"Br": 79.904, "Sn": 118.71, "I": 126.90, "Pt": 195.08,
}

// standardValences maps element symbols to their default valence, used to
// infer implicit hydrogens from the connection table.
var standardValences = map[string]int{
	"H": 1, "B": 3, "C": 4, "N": 3, "O": 2, "F": 1, "Si": 4, "P": 3,
	"S": 2, "Cl": 1, "Br": 1, "I": 1,
}

// AtomicNumber returns the atomic number of symbol, or 0 when unknown.
func AtomicNumber(symbol string) int {
	return atomicNumbers[symbol]
}

// AtomicMass returns the standard atomic mass of symbol.  Unknown elements
// default to the mass of carbon so that weight sums stay plausible.
func AtomicMass(symbol string) float64 {
	if m, ok := atomicMasses[symbol]; ok {
		return m
	}
	return atomicMasses["C"]
}

// IsHeteroatom reports whether symbol is a heavy atom other than carbon.
func IsHeteroatom(symbol string) bool {
	return symbol != "C" && symbol != "H"
}

// MolecularWeight returns the sum of atomic masses including implicit
// hydrogens inferred from standard valences.
func (m *Molecule) MolecularWeight() float64 {
	w := 0.0
	implicit := m.ImplicitHydrogens()
	for i, a := range m.Atoms {
		w += AtomicMass(a.Symbol)
		w += float64(implicit[i]) * atomicMasses["H"]
	}
	return w
}

// ImplicitHydrogens infers, for each atom, how many hydrogens the standard
// valence model implies beyond the explicit bonds.  A positive formal charge
// on nitrogen adds a site; a negative charge on oxygen or sulfur removes one.
// Elements without a tabulated valence report zero.
func (m *Molecule) ImplicitHydrogens() []int {
	sums := m.BondOrderSum()
	out := make([]int, len(m.Atoms))
	for i, a := range m.Atoms {
		val, ok := standardValences[a.Symbol]
		if !ok {
			continue
		}
		chg := m.Charge(i)
		switch {
		case a.Symbol == "N" && chg > 0:
			val += chg
		case (a.Symbol == "O" || a.Symbol == "S") && chg < 0:
			val += chg // negative charge consumes a valence slot
		}
		h := val - sums[i]
		if h > 0 {
			out[i] = h
		}
	}
	return out
}

// HBondDonors counts nitrogen and oxygen atoms carrying at least one implicit
// or explicit hydrogen.
func (m *Molecule) HBondDonors() int {
	implicit := m.ImplicitHydrogens()
	adj := m.Adjacency()
	count := 0
	for i, a := range m.Atoms {
		if a.Symbol != "N" && a.Symbol != "O" {
			continue
		}
		h := implicit[i]
		for _, nb := range adj[i] {
			if m.Atoms[nb].Symbol == "H" {
				h++
			}
		}
		if h > 0 {
			count++
		}
	}
	return count
}

// HBondAcceptors counts nitrogen and oxygen atoms, the classic Lipinski
// acceptor definition.
func (m *Molecule) HBondAcceptors() int {
	count := 0
	for _, a := range m.Atoms {
		if a.Symbol == "N" || a.Symbol == "O" {
			count++
		}
	}
	return count
}

// RotatableBonds counts acyclic single bonds between two heavy atoms that
// each have at least one further heavy-atom neighbour (terminal bonds do not
// rotate meaningfully).
func (m *Molecule) RotatableBonds() int {
	inRing := m.ringBondSet()
	degree := make([]int, len(m.Atoms))
	for _, b := range m.Bonds {
		degree[b.A1]++
		degree[b.A2]++
	}
	count := 0
	for i, b := range m.Bonds {
		if b.Order != 1 || inRing[i] {
			continue
		}
		if m.Atoms[b.A1].Symbol == "H" || m.Atoms[b.A2].Symbol == "H" {
			continue
		}
		if degree[b.A1] > 1 && degree[b.A2] > 1 {
			count++
		}
	}
	return count
}

// ringBondSet marks the bonds that participate in a cycle: a bond is a ring
// bond exactly when removing it does not disconnect its endpoints.
func (m *Molecule) ringBondSet() []bool {
	out := make([]bool, len(m.Bonds))
	for i, b := range m.Bonds {
		out[i] = m.connectedWithout(b.A1, b.A2, i)
	}
	return out
}

// connectedWithout reports whether from can still reach to when bond skip is
// removed from the graph.
func (m *Molecule) connectedWithout(from, to, skip int) bool {
	adj := make([][]int, len(m.Atoms))
	for j, b := range m.Bonds {
		if j == skip {
			continue
		}
		adj[b.A1] = append(adj[b.A1], b.A2)
		adj[b.A2] = append(adj[b.A2], b.A1)
	}
	seen := make([]bool, len(m.Atoms))
	stack := []int{from}
	seen[from] = true
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v == to {
			return true
		}
		for _, w := range adj[v] {
			if !seen[w] {
				seen[w] = true
				stack = append(stack, w)
			}
		}
	}
	return false
}
