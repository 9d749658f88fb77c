package ingest

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/internal/domain/molecule"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/qsarflow/internal/infrastructure/sdfile"
	"github.com/turtacn/qsarflow/pkg/errors"
)

const threeDSuffix = "_3d"

// Geometry constants for the embedding refinement.
const (
	targetBondLength = 1.5
	minNonBonded     = 2.0
	relaxSteps       = 200
	relaxRate        = 0.12
)

// Converter generates 3D coordinates for the structures of an SD file.  An
// empty method list is a declared no-op.  When methods are given, the first
// recognized one runs; a list with no recognized method is a configuration
// error.
type Converter struct {
	Methods []string
	Log     logging.Logger
}

// NewConverter builds a Converter from configuration.
func NewConverter(cfg config.Convert3DConfig, log logging.Logger) *Converter {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Converter{Methods: cfg.Methods, Log: log}
}

// Run converts the SD file at path and returns the path of the result.  With
// no configured methods the input path is returned unchanged.
func (c *Converter) Run(path string) (string, error) {
	if len(c.Methods) == 0 {
		return path, nil
	}
	recognized := false
	for _, m := range c.Methods {
		if m == config.Convert3DEmbed {
			recognized = true
			break
		}
		c.Log.Warn("ignoring unknown 3D conversion method", logging.String("method", m))
	}
	if !recognized {
		return "", errors.New(errors.CodeConvert3DMethodUnknown,
			fmt.Sprintf("no recognized 3D conversion method in [%s]",
				strings.Join(c.Methods, ", ")))
	}

	records, err := sdfile.ReadAll(path)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConvert3DFailed,
			"cannot read input for 3D conversion")
	}

	outPath := insertSuffix(path, threeDSuffix)
	f, err := os.Create(outPath)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConvert3DFailed,
			fmt.Sprintf("cannot create %s", outPath))
	}
	w := bufio.NewWriter(f)

	for i, rec := range records {
		mol, err := molecule.ParseMolBlock(rec.Molblock)
		if err != nil {
			c.Log.Warn("passing through unparsable structure",
				logging.Int("record", i), logging.Err(err))
		} else {
			embedCoordinates(mol)
			rec.Molblock = molecule.WriteMolBlock(mol)
		}
		if err := sdfile.WriteRecord(w, rec); err != nil {
			f.Close()
			return "", errors.Wrap(err, errors.CodeConvert3DFailed,
				fmt.Sprintf("write error in %s", outPath))
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return "", errors.Wrap(err, errors.CodeConvert3DFailed,
			fmt.Sprintf("flush error in %s", outPath))
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, errors.CodeConvert3DFailed,
			fmt.Sprintf("close error in %s", outPath))
	}
	return outPath, nil
}

// embedCoordinates assigns deterministic 3D coordinates: atoms start on a
// spherical spiral and a distance-geometry style relaxation pulls bonded
// pairs toward a common bond length while pushing clashing non-bonded pairs
// apart.  The result is reproducible across runs and chunk splits.
func embedCoordinates(mol *molecule.Molecule) {
	n := mol.NumAtoms()
	if n == 0 {
		return
	}
	const golden = 2.39996322972865332 // golden angle in radians
	for i := range mol.Atoms {
		t := float64(i)
		r := targetBondLength * math.Sqrt(t+1)
		mol.Atoms[i].X = r * math.Cos(golden*t)
		mol.Atoms[i].Y = r * math.Sin(golden*t)
		mol.Atoms[i].Z = 0.5 * targetBondLength * math.Cos(0.7*t)
	}

	for step := 0; step < relaxSteps; step++ {
		for _, b := range mol.Bonds {
			nudge(mol, b.A1, b.A2, targetBondLength)
		}
		bonded := bondedPairs(mol)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if bonded[pairKey(i, j)] {
					continue
				}
				if dist(mol, i, j) < minNonBonded {
					nudge(mol, i, j, minNonBonded)
				}
			}
		}
	}
}

func bondedPairs(mol *molecule.Molecule) map[int]bool {
	m := make(map[int]bool, len(mol.Bonds))
	for _, b := range mol.Bonds {
		m[pairKey(b.A1, b.A2)] = true
	}
	return m
}

func pairKey(i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i*1<<20 + j
}

func dist(mol *molecule.Molecule, i, j int) float64 {
	dx := mol.Atoms[i].X - mol.Atoms[j].X
	dy := mol.Atoms[i].Y - mol.Atoms[j].Y
	dz := mol.Atoms[i].Z - mol.Atoms[j].Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// nudge moves atoms i and j symmetrically so their distance approaches
// target.
func nudge(mol *molecule.Molecule, i, j int, target float64) {
	d := dist(mol, i, j)
	if d < 1e-9 {
		mol.Atoms[j].X += 1e-3 * float64(j+1)
		return
	}
	scale := relaxRate * (d - target) / d
	dx := (mol.Atoms[j].X - mol.Atoms[i].X) * scale / 2
	dy := (mol.Atoms[j].Y - mol.Atoms[i].Y) * scale / 2
	dz := (mol.Atoms[j].Z - mol.Atoms[i].Z) * scale / 2
	mol.Atoms[i].X += dx
	mol.Atoms[i].Y += dy
	mol.Atoms[i].Z += dz
	mol.Atoms[j].X -= dx
	mol.Atoms[j].Y -= dy
	mol.Atoms[j].Z -= dz
}
