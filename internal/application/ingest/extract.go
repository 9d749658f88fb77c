package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/turtacn/qsarflow/internal/config"
	"github.com/turtacn/qsarflow/internal/infrastructure/sdfile"
	"github.com/turtacn/qsarflow/pkg/errors"
)

// Annotations holds the per-structure metadata extracted from the original
// input file, aligned with its record order.
type Annotations struct {
	// Names holds one display name per input record.
	Names []string

	// Activities holds the numeric endpoint value per record; NaN marks a
	// record whose activity field is absent or unparsable.
	Activities []float64

	// Experimental holds pre-computed reference values, empty string when
	// the field is absent.
	Experimental []string
}

// Len returns the number of annotated records.
func (a *Annotations) Len() int { return len(a.Names) }

// Select returns the annotations restricted to the given record indices, in
// the given order.  Consolidation uses it to drop the rows whose structures
// were skipped during standardization.
func (a *Annotations) Select(idx []int) *Annotations {
	out := &Annotations{
		Names:        make([]string, len(idx)),
		Activities:   make([]float64, len(idx)),
		Experimental: make([]string, len(idx)),
	}
	for n, i := range idx {
		out.Names[n] = a.Names[i]
		out.Activities[n] = a.Activities[i]
		out.Experimental[n] = a.Experimental[i]
	}
	return out
}

// Extract reads the SD file at path and collects names, activities and
// experimental values according to the input configuration.  Naming falls
// back from the configured data field to the mol block title to a positional
// "mol<N>" placeholder, so every record gets a non-empty name.
func Extract(path string, cfg config.InputConfig) (*Annotations, error) {
	records, err := sdfile.ReadAll(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New(errors.CodeSDFileEmpty,
			fmt.Sprintf("no structures found in %s", path))
	}

	ann := &Annotations{
		Names:        make([]string, len(records)),
		Activities:   make([]float64, len(records)),
		Experimental: make([]string, len(records)),
	}
	for i, rec := range records {
		ann.Names[i] = recordName(rec, cfg.NameField, i)
		ann.Activities[i] = parseActivity(rec, cfg.ActivityField)
		if v, ok := rec.Field(cfg.ExperimentalField); ok {
			ann.Experimental[i] = strings.TrimSpace(v)
		}
	}
	return ann, nil
}

func recordName(rec sdfile.Record, field string, i int) string {
	if field != "" {
		if v, ok := rec.Field(field); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	if title := molblockTitle(rec.Molblock); title != "" {
		return title
	}
	return fmt.Sprintf("mol%d", i)
}

func parseActivity(rec sdfile.Record, field string) float64 {
	if field != "" {
		if v, ok := rec.Field(field); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
	}
	return math.NaN()
}

// molblockTitle returns the first line of a mol block, trimmed.
func molblockTitle(block string) string {
	if i := strings.IndexByte(block, '\n'); i >= 0 {
		return strings.TrimSpace(block[:i])
	}
	return strings.TrimSpace(block)
}
