package descriptor

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/turtacn/qsarflow/internal/domain/molecule"
)

// Morgan method defaults, overridable through descriptors.settings
// ("morgan.bits", "morgan.radius").
const (
	defaultMorganBits   = 64
	defaultMorganRadius = 2
)

// computeMorgan is the "morgan" built-in: circular atom-environment hashing
// folded into a fixed number of count columns.  It follows the classic
// iterative-invariant scheme: every atom starts from a hash of its element,
// degree, and charge; each round rehashes the atom's invariant together with
// the sorted (bond order, neighbour invariant) pairs, and every intermediate
// invariant sets one folded bucket.
func computeMorgan(path string, settings Settings) (*Result, error) {
	bits := settings.Int("morgan.bits", defaultMorganBits)
	if bits < 8 {
		bits = defaultMorganBits
	}
	radius := settings.Int("morgan.radius", defaultMorganRadius)
	if radius < 0 {
		radius = defaultMorganRadius
	}

	names := make([]string, bits)
	for i := range names {
		names[i] = formatHashName(i)
	}

	return perMolecule(path, names, func(m *molecule.Molecule) []float64 {
		row := make([]float64, bits)
		for _, env := range environmentHashes(m, radius) {
			row[int(env%uint64(bits))]++
		}
		return row
	})
}

// environmentHashes returns one hash per (atom, radius level) environment.
func environmentHashes(m *molecule.Molecule, radius int) []uint64 {
	n := len(m.Atoms)
	adj := m.Adjacency()

	// Bond orders by endpoint pair for the neighbour tuples.
	order := make(map[[2]int]int, len(m.Bonds))
	for _, b := range m.Bonds {
		order[[2]int{b.A1, b.A2}] = b.Order
		order[[2]int{b.A2, b.A1}] = b.Order
	}

	inv := make([]uint64, n)
	degree := make([]int, n)
	for v := 0; v < n; v++ {
		degree[v] = len(adj[v])
		inv[v] = hashEnvironment(fmt.Sprintf("%s:%d:%d",
			m.Atoms[v].Symbol, degree[v], m.Charge(v)))
	}

	hashes := make([]uint64, 0, n*(radius+1))
	hashes = append(hashes, inv...)

	for r := 1; r <= radius; r++ {
		next := make([]uint64, n)
		for v := 0; v < n; v++ {
			pairs := make([]string, 0, len(adj[v]))
			for _, w := range adj[v] {
				pairs = append(pairs, fmt.Sprintf("%d:%016x", order[[2]int{v, w}], inv[w]))
			}
			sort.Strings(pairs)
			seed := fmt.Sprintf("%016x", inv[v])
			for _, p := range pairs {
				seed += "|" + p
			}
			next[v] = hashEnvironment(seed)
		}
		inv = next
		hashes = append(hashes, inv...)
	}

	return hashes
}

// hashEnvironment maps an environment descriptor string to a 64-bit hash.
func hashEnvironment(s string) uint64 {
	sum := sha256.Sum256([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}
