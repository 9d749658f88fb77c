package descriptor

import (
	"math"

	"github.com/turtacn/qsarflow/internal/domain/molecule"
)

// topologicalNames lists the graph-invariant descriptors in column order.
var topologicalNames = []string{
	"Wiener",    // sum of all-pairs shortest-path distances
	"ZagrebM1",  // sum of squared vertex degrees
	"ZagrebM2",  // sum of degree products over edges
	"Randic",    // connectivity index, sum of 1/sqrt(du*dv) over edges
	"Diameter",  // maximum vertex eccentricity
	"Radius",    // minimum vertex eccentricity
	"MeanEcc",   // mean vertex eccentricity
	"Paths2",    // paths of length 2
	"Paths3",    // paths of length 3
	"Triangles", // three-cycles
}

// computeTopological is the "topological" built-in: classical 2D graph
// invariants over the heavy-atom skeleton.  Disconnected pairs (multiple
// fragments) contribute nothing to distance-based terms.
func computeTopological(path string, _ Settings) (*Result, error) {
	return perMolecule(path, topologicalNames, func(m *molecule.Molecule) []float64 {
		adj := m.Adjacency()
		n := len(m.Atoms)

		degree := make([]int, n)
		for i := range adj {
			degree[i] = len(adj[i])
		}

		wiener := 0.0
		diameter := 0.0
		radius := math.Inf(1)
		eccSum := 0.0
		for v := 0; v < n; v++ {
			dist := bfsDistances(adj, v)
			ecc := 0
			for w := 0; w < n; w++ {
				if dist[w] < 0 {
					continue
				}
				if w > v {
					wiener += float64(dist[w])
				}
				if dist[w] > ecc {
					ecc = dist[w]
				}
			}
			eccSum += float64(ecc)
			if float64(ecc) > diameter {
				diameter = float64(ecc)
			}
			if float64(ecc) < radius {
				radius = float64(ecc)
			}
		}
		if n == 0 {
			radius = 0
		}

		zagreb1 := 0.0
		for _, d := range degree {
			zagreb1 += float64(d * d)
		}
		zagreb2 := 0.0
		randic := 0.0
		for _, b := range m.Bonds {
			du, dv := degree[b.A1], degree[b.A2]
			zagreb2 += float64(du * dv)
			if du > 0 && dv > 0 {
				randic += 1.0 / math.Sqrt(float64(du*dv))
			}
		}

		paths2 := 0.0
		for _, d := range degree {
			paths2 += float64(d*(d-1)) / 2
		}
		triangles := countTriangles(adj)
		paths3 := 0.0
		for _, b := range m.Bonds {
			paths3 += float64((degree[b.A1] - 1) * (degree[b.A2] - 1))
		}
		paths3 -= 3 * triangles

		meanEcc := 0.0
		if n > 0 {
			meanEcc = eccSum / float64(n)
		}

		return []float64{
			wiener, zagreb1, zagreb2, randic,
			diameter, radius, meanEcc,
			paths2, paths3, triangles,
		}
	})
}

// bfsDistances returns shortest-path distances from src; unreachable vertices
// are marked -1.
func bfsDistances(adj [][]int, src int) []int {
	dist := make([]int, len(adj))
	for i := range dist {
		dist[i] = -1
	}
	dist[src] = 0
	queue := []int{src}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range adj[v] {
			if dist[w] < 0 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
		}
	}
	return dist
}

// countTriangles counts three-cycles in the graph.
func countTriangles(adj [][]int) float64 {
	n := len(adj)
	neighbor := make([]map[int]bool, n)
	for v := range adj {
		neighbor[v] = make(map[int]bool, len(adj[v]))
		for _, w := range adj[v] {
			neighbor[v][w] = true
		}
	}
	count := 0
	for v := 0; v < n; v++ {
		for _, w := range adj[v] {
			if w <= v {
				continue
			}
			for _, u := range adj[w] {
				if u > w && neighbor[v][u] {
					count++
				}
			}
		}
	}
	return float64(count)
}
