package molecule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/qsarflow/pkg/errors"
)

// ParseMolBlock parses a V2000 mol block into a Molecule.  Parsing is
// fixed-width with a whitespace-split fallback so that both toolkit output
// and hand-written fixtures load.  Any structural defect (truncated header,
// counts that do not match the block, bond indices out of range) yields a
// CodeMolBlockMalformed error; callers at molecule granularity treat that as
// a skip, not an abort.
func ParseMolBlock(text string) (*Molecule, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	if len(lines) < 4 {
		return nil, errors.New(errors.CodeMolBlockMalformed, "mol block shorter than header")
	}

	m := &Molecule{
		Title:   strings.TrimSpace(lines[0]),
		Charges: map[int]int{},
	}

	counts := lines[3]
	nAtoms, err := countsField(counts, 0)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMolBlockMalformed, "bad atom count")
	}
	nBonds, err := countsField(counts, 1)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMolBlockMalformed, "bad bond count")
	}
	if nAtoms < 0 || nBonds < 0 || len(lines) < 4+nAtoms+nBonds {
		return nil, errors.Newf(errors.CodeMolBlockMalformed,
			"counts line declares %d atoms / %d bonds but block has %d lines",
			nAtoms, nBonds, len(lines))
	}

	for i := 0; i < nAtoms; i++ {
		atom, err := parseAtomLine(lines[4+i])
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeMolBlockMalformed,
				fmt.Sprintf("atom line %d", i+1))
		}
		m.Atoms = append(m.Atoms, atom)
	}

	for i := 0; i < nBonds; i++ {
		bond, err := parseBondLine(lines[4+nAtoms+i])
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeMolBlockMalformed,
				fmt.Sprintf("bond line %d", i+1))
		}
		if bond.A1 < 0 || bond.A1 >= nAtoms || bond.A2 < 0 || bond.A2 >= nAtoms {
			return nil, errors.Newf(errors.CodeMolBlockMalformed,
				"bond line %d references atom outside table", i+1)
		}
		m.Bonds = append(m.Bonds, bond)
	}

	// Property block: only M  CHG carries information we model.  A charge
	// property supersedes the atom-block charge column entirely, per ctfile
	// conventions.
	for _, line := range lines[4+nAtoms+nBonds:] {
		if strings.HasPrefix(line, "M  CHG") {
			if err := parseChargeLine(line, m); err != nil {
				return nil, err
			}
		}
		if strings.HasPrefix(line, "M  END") {
			break
		}
	}

	return m, nil
}

// countsField extracts the idx-th three-column integer of the counts line.
func countsField(line string, idx int) (int, error) {
	start := idx * 3
	if len(line) >= start+3 {
		if v, err := strconv.Atoi(strings.TrimSpace(line[start : start+3])); err == nil {
			return v, nil
		}
	}
	// Fallback for loosely formatted blocks.
	fields := strings.Fields(line)
	if idx < len(fields) {
		return strconv.Atoi(fields[idx])
	}
	return 0, fmt.Errorf("counts line %q lacks field %d", line, idx)
}

// parseAtomLine reads "x y z symbol ..." from a V2000 atom line.
func parseAtomLine(line string) (Atom, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Atom{}, fmt.Errorf("atom line %q has %d fields, need 4", line, len(fields))
	}
	var coords [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return Atom{}, fmt.Errorf("coordinate %q: %w", fields[i], err)
		}
		coords[i] = v
	}
	sym := fields[3]
	if sym == "" || len(sym) > 3 {
		return Atom{}, fmt.Errorf("element symbol %q", sym)
	}
	return Atom{Symbol: sym, X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// parseBondLine reads a V2000 bond line, fixed-width first so three-digit
// atom numbers survive, falling back to whitespace splitting.
func parseBondLine(line string) (Bond, error) {
	var a1, a2, order int
	var err error
	if len(line) >= 9 {
		a1, err = strconv.Atoi(strings.TrimSpace(line[0:3]))
		if err == nil {
			a2, err = strconv.Atoi(strings.TrimSpace(line[3:6]))
		}
		if err == nil {
			order, err = strconv.Atoi(strings.TrimSpace(line[6:9]))
		}
	} else {
		err = fmt.Errorf("short bond line")
	}
	if err != nil {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return Bond{}, fmt.Errorf("bond line %q has %d fields, need 3", line, len(fields))
		}
		if a1, err = strconv.Atoi(fields[0]); err != nil {
			return Bond{}, err
		}
		if a2, err = strconv.Atoi(fields[1]); err != nil {
			return Bond{}, err
		}
		if order, err = strconv.Atoi(fields[2]); err != nil {
			return Bond{}, err
		}
	}
	if order < 1 || order > 4 {
		return Bond{}, fmt.Errorf("bond order %d out of range", order)
	}
	return Bond{A1: a1 - 1, A2: a2 - 1, Order: order}, nil
}

// parseChargeLine reads an "M  CHG  n aaa vvv ..." property line.
func parseChargeLine(line string, m *Molecule) error {
	fields := strings.Fields(line)
	// fields[0]="M" [1]="CHG" [2]=count, then pairs.
	if len(fields) < 3 {
		return errors.New(errors.CodeMolBlockMalformed, "truncated M  CHG line")
	}
	n, err := strconv.Atoi(fields[2])
	if err != nil || len(fields) < 3+2*n {
		return errors.Newf(errors.CodeMolBlockMalformed, "M  CHG declares %s pairs", fields[2])
	}
	for i := 0; i < n; i++ {
		idx, err1 := strconv.Atoi(fields[3+2*i])
		chg, err2 := strconv.Atoi(fields[4+2*i])
		if err1 != nil || err2 != nil || idx < 1 || idx > len(m.Atoms) {
			return errors.New(errors.CodeMolBlockMalformed, "bad M  CHG pair")
		}
		m.Charges[idx-1] = chg
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Writing
// ─────────────────────────────────────────────────────────────────────────────

// WriteMolBlock renders m as a V2000 mol block, terminated by "M  END".
// The second header line names the producing program, as toolkits do.
func WriteMolBlock(m *Molecule) string {
	var sb strings.Builder
	sb.WriteString(m.Title + "\n")
	sb.WriteString("  qsarflow\n")
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n",
		len(m.Atoms), len(m.Bonds))

	for _, a := range m.Atoms {
		fmt.Fprintf(&sb, "%10.4f%10.4f%10.4f %-3s 0  0  0  0  0  0  0  0  0  0  0  0\n",
			a.X, a.Y, a.Z, a.Symbol)
	}
	for _, b := range m.Bonds {
		fmt.Fprintf(&sb, "%3d%3d%3d  0\n", b.A1+1, b.A2+1, b.Order)
	}

	// Emit charges in ascending atom order, eight pairs per property line.
	if len(m.Charges) > 0 {
		idxs := make([]int, 0, len(m.Charges))
		for i := range m.Charges {
			idxs = append(idxs, i)
		}
		sort.Ints(idxs)
		for start := 0; start < len(idxs); start += 8 {
			end := start + 8
			if end > len(idxs) {
				end = len(idxs)
			}
			fmt.Fprintf(&sb, "M  CHG%3d", end-start)
			for _, i := range idxs[start:end] {
				fmt.Fprintf(&sb, " %3d %3d", i+1, m.Charges[i])
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("M  END\n")
	return sb.String()
}
