// Package descriptor computes molecular-descriptor matrices from structure
// files.  Each method reads a full SD file and produces one numeric matrix
// (rows = molecules, columns = descriptor variables) together with the
// parallel list of variable names.  Methods are pluggable: built-ins cover
// constitutional, topological, and circular-environment descriptors, and
// callers can register custom generators under the same contract.
package descriptor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/qsarflow/internal/domain/molecule"
	"github.com/turtacn/qsarflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/qsarflow/internal/infrastructure/sdfile"
	"github.com/turtacn/qsarflow/pkg/errors"
)

// Built-in method names.
const (
	MethodProperties  = "properties"
	MethodTopological = "topological"
	MethodMorgan      = "morgan"
)

// Result is one computed descriptor block: a dense matrix and a name per
// column.  len(Names) always equals the matrix column count.
type Result struct {
	Matrix *mat.Dense
	Names  []string
}

// Rows returns the number of objects in the result.
func (r *Result) Rows() int {
	rows, _ := r.Matrix.Dims()
	return rows
}

// Cols returns the number of descriptor variables in the result.
func (r *Result) Cols() int {
	_, cols := r.Matrix.Dims()
	return cols
}

// Settings carries descriptor sub-parameters as flat "method.key" → value
// strings, mirroring the configuration surface.
type Settings map[string]string

// Int returns the integer setting for key, or def when absent or malformed.
func (s Settings) Int(key string, def int) int {
	if raw, ok := s[key]; ok {
		if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			return v
		}
	}
	return def
}

// Generator computes one descriptor block from the SD file at path.
type Generator func(path string, settings Settings) (*Result, error)

// ─────────────────────────────────────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────────────────────────────────────

var (
	registryMu sync.RWMutex
	registry   = map[string]Generator{
		MethodProperties:  computeProperties,
		MethodTopological: computeTopological,
		MethodMorgan:      computeMorgan,
	}
)

// Register installs a custom descriptor generator under name, making it
// selectable from the descriptors.methods configuration alongside the
// built-ins.  Registering over an existing name is an error.
func Register(name string, gen Generator) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		return errors.Newf(errors.CodeInvalidParam,
			"descriptor method %q is already registered", name)
	}
	registry[name] = gen
	return nil
}

// lookup resolves a method name to its Generator.
func lookup(name string) (Generator, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	gen, ok := registry[name]
	return gen, ok
}

// RegisteredMethods returns the sorted list of available method names.
func RegisteredMethods() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ─────────────────────────────────────────────────────────────────────────────
// Compute — method dispatch and column-wise merge
// ─────────────────────────────────────────────────────────────────────────────

// Compute runs every method named in methods, in order, against the SD file
// at path.  Only listed methods are invoked.  A method that fails (unknown
// name or computation error) is logged and skipped; when none succeed the
// whole stage fails with CodeNoDescriptors.
//
// The blocks of all successful methods are concatenated column-wise into a
// single matrix after verifying their row counts agree; variable names are
// prefixed with the producing method ("properties.MW").
func Compute(path string, methods []string, settings Settings, log logging.Logger) (*Result, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	var blocks []*Result
	var blockMethods []string
	var failures []string

	for _, name := range methods {
		gen, ok := lookup(name)
		if !ok {
			log.Warn("descriptor method not registered", logging.String("method", name))
			failures = append(failures, name+": not registered")
			continue
		}
		res, err := gen(path, settings)
		if err != nil {
			log.Warn("descriptor method failed",
				logging.String("method", name), logging.Err(err))
			failures = append(failures, name+": "+err.Error())
			continue
		}
		blocks = append(blocks, res)
		blockMethods = append(blockMethods, name)
	}

	if len(blocks) == 0 {
		return nil, errors.New(errors.CodeNoDescriptors,
			"no descriptor method produced results").
			WithDetail(strings.Join(failures, "; "))
	}

	return concatColumns(blocks, blockMethods)
}

// concatColumns merges per-method blocks into one matrix.  Row-count
// disagreement between methods over the same file indicates inconsistent
// parsing and is fatal.
func concatColumns(blocks []*Result, methods []string) (*Result, error) {
	rows := blocks[0].Rows()
	totalCols := 0
	for i, b := range blocks {
		if b.Rows() != rows {
			return nil, errors.Newf(errors.CodeRowCountMismatch,
				"method %s produced %d rows, expected %d", methods[i], b.Rows(), rows)
		}
		totalCols += b.Cols()
	}

	merged := mat.NewDense(rows, totalCols, nil)
	names := make([]string, 0, totalCols)
	colOffset := 0
	for i, b := range blocks {
		cols := b.Cols()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				merged.Set(r, colOffset+c, b.Matrix.At(r, c))
			}
		}
		for _, n := range b.Names {
			names = append(names, methods[i]+"."+n)
		}
		colOffset += cols
	}

	return &Result{Matrix: merged, Names: names}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared per-file scaffolding for the built-in methods
// ─────────────────────────────────────────────────────────────────────────────

// perMolecule parses every record in the SD file at path and applies fn to
// each parseable molecule, assembling the returned rows into a matrix.
// Unparsable records are skipped; by the time descriptors run the file has
// been through standardization, so in practice every record parses.
func perMolecule(path string, names []string, fn func(*molecule.Molecule) []float64) (*Result, error) {
	records, err := sdfile.ReadAll(path)
	if err != nil {
		return nil, err
	}

	var data []float64
	rows := 0
	for _, rec := range records {
		mol, err := molecule.ParseMolBlock(rec.Molblock)
		if err != nil {
			continue
		}
		row := fn(mol)
		if len(row) != len(names) {
			return nil, errors.Newf(errors.CodeDescriptorFailed,
				"row width %d does not match %d variable names", len(row), len(names))
		}
		data = append(data, row...)
		rows++
	}
	if rows == 0 {
		return nil, errors.Newf(errors.CodeDescriptorFailed,
			"no parseable molecules in %s", path)
	}

	return &Result{
		Matrix: mat.NewDense(rows, len(names), data),
		Names:  append([]string(nil), names...),
	}, nil
}

// formatHashName renders a folded-bit column name like "B0042".
func formatHashName(i int) string {
	return fmt.Sprintf("B%04d", i)
}
