// Package ingest implements the data-ingestion workflow: standardization,
// optional ionization and 3D conversion, descriptor generation, parallel
// dispatch over file chunks, and consolidation of the per-chunk results into
// a single feature matrix.
package ingest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/internal/domain/molecule"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/qsarflow/internal/infrastructure/sdfile"
	"github.com/turtacn/qsarflow/pkg/errors"
)

// InternalIDField is the SD data field carrying the sequential internal
// identifier assigned during standardization.
const InternalIDField = "qsarID"

// FormatInternalID renders the internal identifier for object number n.
func FormatInternalID(n int) string {
	return fmt.Sprintf("fl%010d", n)
}

// ParseInternalID extracts the object number from an internal identifier.
func ParseInternalID(id string) (int, bool) {
	if !strings.HasPrefix(id, "fl") || len(id) != 12 {
		return 0, false
	}
	n := 0
	for _, r := range id[2:] {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// stdSuffix is inserted before the extension of the standardized output file.
const stdSuffix = "_std"

// counterIons lists single-atom fragments treated as salts or counter-ions;
// standardization strips them when a larger parent fragment exists.
var counterIons = map[string]bool{
	"Li": true, "Na": true, "K": true, "Mg": true, "Ca": true, "Zn": true,
	"F": true, "Cl": true, "Br": true, "I": true,
}

// Standardizer canonicalizes the structures of one SD file, writing them to a
// new file with sequential internal identifiers.
type Standardizer struct {
	// Method is the normalization procedure; see config.StandardizeConfig.
	Method string

	// IDBase offsets the internal identifier numbering.  The dispatcher sets
	// it to each chunk's start object index so identifiers stay globally
	// unique after consolidation.
	IDBase int

	// DeleteOriginal removes the input file once the output is fully written.
	DeleteOriginal bool

	Log logging.Logger
}

// NewStandardizer builds a Standardizer from configuration.
func NewStandardizer(cfg config.StandardizeConfig, log logging.Logger) *Standardizer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Standardizer{
		Method:         cfg.Method,
		DeleteOriginal: cfg.DeleteOriginal,
		Log:            log,
	}
}

// Run processes the SD file at path and returns the output file path, the
// record indices (zero-based, within this file) of the structures that
// survived, and the count of skipped structures.
//
// Per-structure policy: a record whose mol block cannot be parsed is logged
// and skipped; the batch continues.  A structure where the normalization
// procedure finds nothing to do (already a single parent fragment, or salts
// only) passes through unchanged.  I/O failures abort the whole batch.
func (s *Standardizer) Run(path string) (string, []int, int, error) {
	records, err := sdfile.ReadAll(path)
	if err != nil {
		return "", nil, 0, errors.Wrap(err, errors.CodeStandardizeFailed,
			"cannot read input for standardization")
	}

	outPath := insertSuffix(path, stdSuffix)
	f, err := os.Create(outPath)
	if err != nil {
		return "", nil, 0, errors.Wrap(err, errors.CodeStandardizeFailed,
			fmt.Sprintf("cannot create %s", outPath))
	}
	w := bufio.NewWriter(f)

	var kept []int
	count := 0
	skipped := 0
	for i, rec := range records {
		mol, err := molecule.ParseMolBlock(rec.Molblock)
		if err != nil {
			s.Log.Warn("skipping unparsable structure",
				logging.Int("record", i), logging.Err(err))
			skipped++
			continue
		}

		if s.Method == config.StandardizeLargestFragment {
			mol = stripSalts(mol)
		}

		out := sdfile.Record{Molblock: molecule.WriteMolBlock(mol)}
		out.SetField(InternalIDField, FormatInternalID(s.IDBase+count))
		if err := sdfile.WriteRecord(w, out); err != nil {
			f.Close()
			return "", nil, 0, errors.Wrap(err, errors.CodeStandardizeFailed,
				fmt.Sprintf("write error in %s", outPath))
		}
		kept = append(kept, i)
		count++
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return "", nil, 0, errors.Wrap(err, errors.CodeStandardizeFailed,
			fmt.Sprintf("flush error in %s", outPath))
	}
	if err := f.Close(); err != nil {
		return "", nil, 0, errors.Wrap(err, errors.CodeStandardizeFailed,
			fmt.Sprintf("close error in %s", outPath))
	}

	// Only after the output is guaranteed on disk.
	if s.DeleteOriginal {
		if err := os.Remove(path); err != nil {
			s.Log.Warn("cannot remove original input", logging.Err(err))
		}
	}

	return outPath, kept, skipped, nil
}

// stripSalts keeps the largest connected fragment of mol.  When the largest
// fragment is itself a recognized counter-ion (the structure is salts all the
// way down) there is no applicable transformation and the original molecule
// passes through unchanged.
func stripSalts(mol *molecule.Molecule) *molecule.Molecule {
	frags := mol.Fragments()
	if len(frags) <= 1 {
		return mol
	}
	largest := frags[0]
	if len(largest) == 1 && counterIons[mol.Atoms[largest[0]].Symbol] {
		return mol
	}
	return mol.Subset(largest)
}

// insertSuffix derives an output filename by inserting suffix before the
// extension: "input.sdf" → "input_std.sdf".
func insertSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
