// Package molecule provides the molecular structure model used throughout
// qsarflow: a connection-table representation parsed from V2000 mol blocks,
// graph operations over it, and the element data needed for descriptor
// computation.  The representation is deliberately small; full chemical
// perception (aromaticity models, stereochemistry) would come from a toolkit
// such as RDKit behind a service boundary.
package molecule

import "sort"

// Atom is one entry of the connection table.
type Atom struct {
	Symbol  string
	X, Y, Z float64
}

// Bond connects two atoms by zero-based index.
type Bond struct {
	A1, A2 int
	Order  int // 1 single, 2 double, 3 triple, 4 aromatic
}

// Molecule is a parsed structure: title, atoms, bonds, and formal charges.
type Molecule struct {
	Title   string
	Atoms   []Atom
	Bonds   []Bond
	Charges map[int]int // atom index → formal charge
}

// NumAtoms returns the atom count.
func (m *Molecule) NumAtoms() int { return len(m.Atoms) }

// NumBonds returns the bond count.
func (m *Molecule) NumBonds() int { return len(m.Bonds) }

// Charge returns the formal charge of atom i.
func (m *Molecule) Charge(i int) int {
	if m.Charges == nil {
		return 0
	}
	return m.Charges[i]
}

// NetCharge returns the sum of all formal charges.
func (m *Molecule) NetCharge() int {
	total := 0
	for _, c := range m.Charges {
		total += c
	}
	return total
}

// Adjacency returns the neighbour lists of the molecular graph.
func (m *Molecule) Adjacency() [][]int {
	adj := make([][]int, len(m.Atoms))
	for _, b := range m.Bonds {
		adj[b.A1] = append(adj[b.A1], b.A2)
		adj[b.A2] = append(adj[b.A2], b.A1)
	}
	return adj
}

// BondOrderSum returns, for each atom, the sum of the orders of its bonds.
// Aromatic bonds count 1.5, rounded up per pair at the end.
func (m *Molecule) BondOrderSum() []int {
	twice := make([]int, len(m.Atoms)) // doubled to keep aromatic arithmetic integral
	for _, b := range m.Bonds {
		o := b.Order * 2
		if b.Order == 4 {
			o = 3 // aromatic counts 1.5
		}
		twice[b.A1] += o
		twice[b.A2] += o
	}
	sums := make([]int, len(m.Atoms))
	for i, t := range twice {
		sums[i] = (t + 1) / 2
	}
	return sums
}

// Fragments returns the connected components of the molecular graph, each as
// a sorted list of atom indices, ordered largest first (ties broken by the
// smallest member index so the result is deterministic).
func (m *Molecule) Fragments() [][]int {
	adj := m.Adjacency()
	seen := make([]bool, len(m.Atoms))
	var frags [][]int

	for start := range m.Atoms {
		if seen[start] {
			continue
		}
		var comp []int
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, v)
			for _, w := range adj[v] {
				if !seen[w] {
					seen[w] = true
					stack = append(stack, w)
				}
			}
		}
		sort.Ints(comp)
		frags = append(frags, comp)
	}

	sort.SliceStable(frags, func(i, j int) bool {
		if len(frags[i]) != len(frags[j]) {
			return len(frags[i]) > len(frags[j])
		}
		return frags[i][0] < frags[j][0]
	})
	return frags
}

// Subset returns a new Molecule containing only the atoms whose indices are
// listed in keep (which must be sorted ascending), with bonds and charges
// re-indexed accordingly.  The title is preserved.
func (m *Molecule) Subset(keep []int) *Molecule {
	remap := make(map[int]int, len(keep))
	sub := &Molecule{Title: m.Title, Charges: map[int]int{}}
	for newIdx, oldIdx := range keep {
		remap[oldIdx] = newIdx
		sub.Atoms = append(sub.Atoms, m.Atoms[oldIdx])
		if c := m.Charge(oldIdx); c != 0 {
			sub.Charges[newIdx] = c
		}
	}
	for _, b := range m.Bonds {
		n1, ok1 := remap[b.A1]
		n2, ok2 := remap[b.A2]
		if ok1 && ok2 {
			sub.Bonds = append(sub.Bonds, Bond{A1: n1, A2: n2, Order: b.Order})
		}
	}
	return sub
}

// RingCount returns the cyclomatic number of the molecular graph
// (bonds − atoms + connected components), the standard smallest count of
// independent rings.
func (m *Molecule) RingCount() int {
	n := len(m.Atoms)
	if n == 0 {
		return 0
	}
	return len(m.Bonds) - n + len(m.Fragments())
}
