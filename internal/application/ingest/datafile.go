package ingest

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/pkg/errors"
)

// ReadDataFile ingests a pre-computed tab-separated table instead of running
// the chemistry workflow.  The first line is a header; the configured name,
// activity and experimental columns feed the annotations and every remaining
// column becomes a numeric variable.  Non-numeric cells in variable columns
// are fatal: a pre-computed matrix with holes cannot be repaired here.
func ReadDataFile(path string, cfg config.InputConfig) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDataFileUnreadable,
			fmt.Sprintf("cannot open %s", path))
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeDataFileUnreadable, "read error")
		}
		return nil, errors.New(errors.CodeDataFileUnreadable,
			fmt.Sprintf("%s is empty", path))
	}
	header := strings.Split(sc.Text(), "\t")

	nameCol, actCol, expCol := -1, -1, -1
	var varCols []int
	var varNames []string
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch h {
		case cfg.NameField:
			nameCol = i
		case cfg.ActivityField:
			actCol = i
		case cfg.ExperimentalField:
			expCol = i
		default:
			varCols = append(varCols, i)
			varNames = append(varNames, h)
		}
	}
	if len(varCols) == 0 {
		return nil, errors.New(errors.CodeDataFileUnreadable,
			fmt.Sprintf("%s has no variable columns", path))
	}

	ds := &Dataset{VarNames: varNames}
	var values []float64
	row := 0
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(header) {
			return nil, errors.New(errors.CodeDataFileUnreadable,
				fmt.Sprintf("line %d has %d columns, header has %d",
					row+2, len(fields), len(header)))
		}

		if nameCol >= 0 {
			ds.Names = append(ds.Names, strings.TrimSpace(fields[nameCol]))
		} else {
			ds.Names = append(ds.Names, fmt.Sprintf("obj%d", row))
		}
		act := math.NaN()
		if actCol >= 0 {
			if v, err := strconv.ParseFloat(strings.TrimSpace(fields[actCol]), 64); err == nil {
				act = v
			}
		}
		ds.Activities = append(ds.Activities, act)
		exp := ""
		if expCol >= 0 {
			exp = strings.TrimSpace(fields[expCol])
		}
		ds.Experimental = append(ds.Experimental, exp)

		for n, c := range varCols {
			v, err := strconv.ParseFloat(strings.TrimSpace(fields[c]), 64)
			if err != nil {
				return nil, errors.New(errors.CodeDataFileUnreadable,
					fmt.Sprintf("line %d, column %q: %q is not numeric",
						row+2, varNames[n], fields[c]))
			}
			values = append(values, v)
		}
		row++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDataFileUnreadable, "read error")
	}
	if row == 0 {
		return nil, errors.New(errors.CodeDataFileUnreadable,
			fmt.Sprintf("%s has a header but no data rows", path))
	}

	ds.X = mat.NewDense(row, len(varCols), values)
	return ds, nil
}
