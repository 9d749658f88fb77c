package ingest

import (
	"bufio"
	"fmt"
	"os"

	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/internal/domain/molecule"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/qsarflow/internal/infrastructure/sdfile"
	"github.com/turtacn/qsarflow/pkg/errors"
)

const ionSuffix = "_ion"

// Approximate pKa values driving the fixed-pH charge model.
const (
	carboxylPKa = 4.8
	aminePKa    = 9.25
)

// Ionizer adjusts protonation states of the structures in an SD file for a
// fixed pH.  An empty method is a declared no-op: Run returns the input path
// untouched.
type Ionizer struct {
	Method string
	PH     float64
	Log    logging.Logger
}

// NewIonizer builds an Ionizer from configuration.
func NewIonizer(cfg config.IonizeConfig, log logging.Logger) *Ionizer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Ionizer{Method: cfg.Method, PH: cfg.PH, Log: log}
}

// Run ionizes the SD file at path and returns the path of the result.  When
// no method is configured the input path is returned unchanged and no file is
// written.
func (n *Ionizer) Run(path string) (string, error) {
	switch n.Method {
	case "":
		return path, nil
	case config.IonizeFixedPH:
	default:
		return "", errors.New(errors.CodeIonizeMethodUnknown,
			fmt.Sprintf("unrecognized ionization method %q", n.Method))
	}

	records, err := sdfile.ReadAll(path)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeIonizeFailed,
			"cannot read input for ionization")
	}

	outPath := insertSuffix(path, ionSuffix)
	f, err := os.Create(outPath)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeIonizeFailed,
			fmt.Sprintf("cannot create %s", outPath))
	}
	w := bufio.NewWriter(f)

	for i, rec := range records {
		mol, err := molecule.ParseMolBlock(rec.Molblock)
		if err != nil {
			// Standardization already filtered unparsable structures; pass
			// anything that slips through unchanged rather than dropping it.
			n.Log.Warn("passing through unparsable structure",
				logging.Int("record", i), logging.Err(err))
		} else {
			n.adjustCharges(mol)
			rec.Molblock = molecule.WriteMolBlock(mol)
		}
		if err := sdfile.WriteRecord(w, rec); err != nil {
			f.Close()
			return "", errors.Wrap(err, errors.CodeIonizeFailed,
				fmt.Sprintf("write error in %s", outPath))
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return "", errors.Wrap(err, errors.CodeIonizeFailed,
			fmt.Sprintf("flush error in %s", outPath))
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, errors.CodeIonizeFailed,
			fmt.Sprintf("close error in %s", outPath))
	}
	return outPath, nil
}

// adjustCharges applies the fixed-pH model in place: carboxylic acids lose a
// proton above their pKa, basic amines gain one below theirs.
func (n *Ionizer) adjustCharges(mol *molecule.Molecule) {
	adj := mol.Adjacency()
	implicitH := mol.ImplicitHydrogens()
	for i, atom := range mol.Atoms {
		if mol.Charge(i) != 0 {
			continue
		}
		switch atom.Symbol {
		case "O":
			if n.PH > carboxylPKa && isCarboxylHydroxyl(mol, adj, implicitH, i) {
				mol.Charges[i] = -1
			}
		case "N":
			if n.PH < aminePKa && isBasicAmine(mol, adj, implicitH, i) {
				mol.Charges[i] = 1
			}
		}
	}
}

// isCarboxylHydroxyl reports whether atom i is the protonated oxygen of a
// carboxylic acid: a single-bonded O with an implicit hydrogen attached to a
// carbon that carries a double-bonded oxygen.
func isCarboxylHydroxyl(mol *molecule.Molecule, adj [][]int, implicitH []int, i int) bool {
	if implicitH[i] == 0 || len(adj[i]) != 1 {
		return false
	}
	c := adj[i][0]
	if mol.Atoms[c].Symbol != "C" {
		return false
	}
	for _, b := range mol.Bonds {
		var other int
		switch {
		case b.A1 == c:
			other = b.A2
		case b.A2 == c:
			other = b.A1
		default:
			continue
		}
		if other != i && b.Order == 2 && mol.Atoms[other].Symbol == "O" {
			return true
		}
	}
	return false
}

// isBasicAmine reports whether atom i is an sp3 nitrogen with at least one
// implicit hydrogen slot and no adjacent carbonyl (amides stay neutral).
func isBasicAmine(mol *molecule.Molecule, adj [][]int, implicitH []int, i int) bool {
	if implicitH[i] == 0 {
		return false
	}
	for _, b := range mol.Bonds {
		if (b.A1 == i || b.A2 == i) && b.Order != 1 {
			return false
		}
	}
	for _, nb := range adj[i] {
		if mol.Atoms[nb].Symbol != "C" {
			continue
		}
		for _, b := range mol.Bonds {
			var other int
			switch {
			case b.A1 == nb:
				other = b.A2
			case b.A2 == nb:
				other = b.A1
			default:
				continue
			}
			if b.Order == 2 && mol.Atoms[other].Symbol == "O" {
				return false
			}
		}
	}
	return true
}
