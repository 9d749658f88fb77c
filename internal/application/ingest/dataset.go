package ingest

import (
	"bytes"
	"encoding/gob"

	"gonum.org/v1/gonum/mat"
)

// Dataset is the final product of ingestion: one descriptor row per surviving
// structure, aligned with its annotations.
type Dataset struct {
	// X is the feature matrix, one row per structure, one column per
	// descriptor variable.
	X *mat.Dense

	// VarNames names the columns of X.
	VarNames []string

	// Names, Activities and Experimental are aligned with the rows of X.
	Names        []string
	Activities   []float64
	Experimental []string

	// Skipped counts the input structures dropped during processing.
	Skipped int
}

// NumObjects returns the number of structures in the dataset.
func (d *Dataset) NumObjects() int {
	if d.X == nil {
		return 0
	}
	r, _ := d.X.Dims()
	return r
}

// NumVars returns the number of descriptor variables.
func (d *Dataset) NumVars() int { return len(d.VarNames) }

// datasetWire is the gob representation; mat.Dense implements
// encoding.BinaryMarshaler but gob does not use it, so the matrix travels as
// its own binary blob.
type datasetWire struct {
	XBytes       []byte
	VarNames     []string
	Names        []string
	Activities   []float64
	Experimental []string
	Skipped      int
}

// GobEncode implements gob.GobEncoder.
func (d *Dataset) GobEncode() ([]byte, error) {
	w := datasetWire{
		VarNames:     d.VarNames,
		Names:        d.Names,
		Activities:   d.Activities,
		Experimental: d.Experimental,
		Skipped:      d.Skipped,
	}
	if d.X != nil {
		b, err := d.X.MarshalBinary()
		if err != nil {
			return nil, err
		}
		w.XBytes = b
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (d *Dataset) GobDecode(data []byte) error {
	var w datasetWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	d.VarNames = w.VarNames
	d.Names = w.Names
	d.Activities = w.Activities
	d.Experimental = w.Experimental
	d.Skipped = w.Skipped
	d.X = nil
	if len(w.XBytes) > 0 {
		var m mat.Dense
		if err := m.UnmarshalBinary(w.XBytes); err != nil {
			return err
		}
		d.X = &m
	}
	return nil
}

// Encode serializes the dataset for the snapshot cache.
func (d *Dataset) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeDataset reverses Encode.
func DecodeDataset(data []byte) (*Dataset, error) {
	var d Dataset
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}
