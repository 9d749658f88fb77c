// Package sdfile reads and writes SD files (structure-data files), the
// industry-standard container for batches of molecules.  An SD file is a
// sequence of records, each holding one V2000 mol block followed by optional
// named data fields and terminated by a "$$$$" line.
//
// The package deals purely with the record framing; interpreting the mol
// block itself is the job of the molecule domain package.
package sdfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/qsarflow/pkg/errors"
)

// recordTerminator separates records in an SD file.
const recordTerminator = "$$$$"

// Record is one framed SD-file record: the raw mol block text plus the data
// fields that follow it.  DataOrder preserves the field order found in the
// file so that rewriting a record is loss-free.
type Record struct {
	Molblock  string
	Data      map[string]string
	DataOrder []string
}

// Field returns the named data field and whether it was present.
func (r *Record) Field(name string) (string, bool) {
	v, ok := r.Data[name]
	return v, ok
}

// SetField adds or replaces a data field, keeping insertion order stable.
func (r *Record) SetField(name, value string) {
	if r.Data == nil {
		r.Data = map[string]string{}
	}
	if _, exists := r.Data[name]; !exists {
		r.DataOrder = append(r.DataOrder, name)
	}
	r.Data[name] = value
}

// ─────────────────────────────────────────────────────────────────────────────
// Reading
// ─────────────────────────────────────────────────────────────────────────────

// ReadAll parses every record in the SD file at path.  Framing is tolerant:
// whatever text precedes the data fields is taken as the mol block, and a
// trailing record without a terminator is still returned.  A file that cannot
// be opened is a file-level fatal error.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSDFileUnreadable,
			fmt.Sprintf("cannot open %s", path))
	}
	defer f.Close()

	var records []Record
	var molLines []string
	var cur *Record
	var fieldName string
	var fieldLines []string

	flushField := func() {
		if cur != nil && fieldName != "" {
			cur.SetField(fieldName, strings.Join(fieldLines, "\n"))
		}
		fieldName = ""
		fieldLines = nil
	}
	flushRecord := func() {
		flushField()
		if cur != nil {
			records = append(records, *cur)
		} else if len(molLines) > 0 {
			records = append(records, Record{Molblock: strings.Join(molLines, "\n") + "\n"})
		}
		cur = nil
		molLines = nil
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")

		switch {
		case strings.HasPrefix(line, recordTerminator):
			flushRecord()

		case strings.HasPrefix(line, ">"):
			// Start of a data field: ">  <name>" with optional extras.
			flushField()
			if cur == nil {
				cur = &Record{Molblock: strings.Join(molLines, "\n") + "\n"}
			}
			fieldName = parseFieldHeader(line)

		case cur != nil:
			// Inside a data field; a blank line ends the value but we defer
			// the flush to the next header or terminator so multi-paragraph
			// values survive.
			if fieldName != "" {
				if line == "" {
					flushField()
				} else {
					fieldLines = append(fieldLines, line)
				}
			}

		default:
			molLines = append(molLines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeSDFileUnreadable,
			fmt.Sprintf("read error in %s", path))
	}

	// Trailing record without terminator.
	if cur != nil || hasContent(molLines) {
		flushRecord()
	}

	return records, nil
}

// hasContent reports whether the pending mol-block lines contain anything
// beyond whitespace.
func hasContent(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

// parseFieldHeader extracts the field name from a "> <name>" header line.
// Returns "" when the header carries no angle-bracketed name.
func parseFieldHeader(line string) string {
	open := strings.Index(line[1:], "<")
	if open < 0 {
		return ""
	}
	open++ // compensate the [1:] offset
	end := strings.Index(line[open:], ">")
	if end < 0 {
		return ""
	}
	return line[open+1 : open+end]
}

// Count returns the number of records in the SD file at path.
func Count(path string) (int, error) {
	records, err := ReadAll(path)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Writing
// ─────────────────────────────────────────────────────────────────────────────

// WriteRecord appends one record to w in SD-file framing.
func WriteRecord(w *bufio.Writer, rec Record) error {
	mol := rec.Molblock
	if !strings.HasSuffix(mol, "\n") {
		mol += "\n"
	}
	if _, err := w.WriteString(mol); err != nil {
		return err
	}
	for _, name := range rec.DataOrder {
		if _, err := fmt.Fprintf(w, "> <%s>\n%s\n\n", name, rec.Data[name]); err != nil {
			return err
		}
	}
	if _, err := w.WriteString(recordTerminator + "\n"); err != nil {
		return err
	}
	return nil
}

// WriteAll writes records to a new SD file at path, replacing any existing
// file only after a fully successful write of every record.
func WriteAll(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.CodeSDFileWriteFailed,
			fmt.Sprintf("cannot create %s", path))
	}
	w := bufio.NewWriter(f)
	for _, rec := range records {
		if err := WriteRecord(w, rec); err != nil {
			f.Close()
			return errors.Wrap(err, errors.CodeSDFileWriteFailed,
				fmt.Sprintf("write error in %s", path))
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, errors.CodeSDFileWriteFailed,
			fmt.Sprintf("flush error in %s", path))
	}
	return f.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// Splitting
// ─────────────────────────────────────────────────────────────────────────────

// Split divides the SD file at path into at most n chunk files with
// near-equal record counts, written into dir.  Earlier chunks absorb the
// remainder, so counts differ by at most one and always sum to the input's
// record count.  When the file holds fewer records than n, one chunk per
// record is produced.
//
// Returns the chunk file paths, their record counts, and the chunk start
// offsets (the index of each chunk's first record in the original file).
func Split(path string, n int, dir string) (paths []string, counts []int, offsets []int, err error) {
	if n < 1 {
		return nil, nil, nil, errors.Newf(errors.CodeSDFileSplitFailed,
			"chunk count must be ≥ 1, got %d", n)
	}
	records, err := ReadAll(path)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, errors.CodeSDFileSplitFailed,
			fmt.Sprintf("cannot split %s", path))
	}
	total := len(records)
	if total == 0 {
		return nil, nil, nil, errors.Newf(errors.CodeSDFileEmpty,
			"%s contains no records", path)
	}
	if n > total {
		n = total
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	per := total / n
	extra := total % n

	start := 0
	for i := 0; i < n; i++ {
		size := per
		if i < extra {
			size++
		}
		chunkPath := filepath.Join(dir, fmt.Sprintf("%s_chunk%d%s", stem, i, ext))
		if err := WriteAll(chunkPath, records[start:start+size]); err != nil {
			return nil, nil, nil, errors.Wrap(err, errors.CodeSDFileSplitFailed,
				fmt.Sprintf("cannot write chunk %d", i))
		}
		paths = append(paths, chunkPath)
		counts = append(counts, size)
		offsets = append(offsets, start)
		start += size
	}

	return paths, counts, offsets, nil
}
