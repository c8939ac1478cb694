// Package archive persists computed metric values to disk: one
// gzip-compressed JSON file per bundle, keyed by the bundle's file root.
// The contract is round-trip fidelity: reading an archive restores the
// exact value vector, mask included.
package archive

import (
	"compress/gzip"
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"skymetrics/domain/values"
	"skymetrics/internal/errors"
)

// Ext is the archive file extension.
const Ext = ".json.gz"

// Header identifies the bundle an archive belongs to.
type Header struct {
	MetricName string `json:"metric_name"`
	SlicerName string `json:"slicer_name"`
	Constraint string `json:"constraint"`
	FileRoot   string `json:"file_root"`
}

type payload struct {
	Header  Header        `json:"header"`
	Kind    int           `json:"kind"`
	Floats  []floatSlot   `json:"floats,omitempty"`
	Objects []interface{} `json:"objects,omitempty"`
	Mask    []bool        `json:"mask"`
}

// floatSlot round-trips non-finite floats through JSON, which rejects NaN
// and the infinities. NaN encodes as null, infinities as quoted strings.
type floatSlot float64

func (s floatSlot) MarshalJSON() ([]byte, error) {
	f := float64(s)
	switch {
	case math.IsNaN(f):
		return []byte("null"), nil
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(f)
}

func (s *floatSlot) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		*s = floatSlot(math.NaN())
		return nil
	case `"+Inf"`:
		*s = floatSlot(math.Inf(1))
		return nil
	case `"-Inf"`:
		*s = floatSlot(math.Inf(-1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = floatSlot(f)
	return nil
}

// Path returns the archive location for a file root inside outDir.
func Path(outDir, fileRoot string) string {
	return filepath.Join(outDir, fileRoot+Ext)
}

// Write stores a value vector under the header's file root. The output
// directory is created if needed.
func Write(outDir string, header Header, vec *values.Vector) error {
	if vec == nil {
		return errors.InvalidInput("cannot archive a bundle with no computed values")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	p := payload{
		Header: header,
		Kind:   int(vec.Kind()),
		Mask:   make([]bool, vec.Len()),
	}
	switch vec.Kind() {
	case values.KindFloat:
		p.Floats = make([]floatSlot, vec.Len())
		for i := 0; i < vec.Len(); i++ {
			p.Floats[i] = floatSlot(vec.Float(i))
			p.Mask[i] = vec.Masked(i)
		}
	case values.KindObject:
		p.Objects = make([]interface{}, vec.Len())
		for i := 0; i < vec.Len(); i++ {
			p.Objects[i] = encodeObject(vec.Object(i))
			p.Mask[i] = vec.Masked(i)
		}
	}

	path := Path(outDir, header.FileRoot)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create archive %s", path)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	if err := enc.Encode(p); err != nil {
		gz.Close()
		os.Remove(path)
		return errors.Wrapf(err, "failed to encode archive %s", path)
	}
	if err := gz.Close(); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "failed to finalize archive %s", path)
	}
	return nil
}

// Read restores a value vector and its header from an archive file. A
// missing file returns a PERSISTENCE_MISS error so callers can skip the
// bundle with a warning.
func Read(path string) (Header, *values.Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Header{}, nil, errors.PersistenceMiss(path)
		}
		return Header{}, nil, errors.Wrapf(err, "failed to open archive %s", path)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return Header{}, nil, errors.Wrapf(err, "archive %s is not gzip data", path)
	}
	defer gz.Close()

	var p payload
	if err := json.NewDecoder(gz).Decode(&p); err != nil {
		return Header{}, nil, errors.Wrapf(err, "failed to decode archive %s", path)
	}

	var vec *values.Vector
	switch values.Kind(p.Kind) {
	case values.KindFloat:
		vec = values.NewFloat(len(p.Mask))
		for i, v := range p.Floats {
			vec.SetFloat(i, float64(v))
		}
	case values.KindObject:
		vec = values.NewObject(len(p.Mask))
		for i, v := range p.Objects {
			vec.SetObject(i, normalizeObject(v))
		}
	default:
		return Header{}, nil, errors.InvalidInput("archive holds an unknown vector kind")
	}
	for i, m := range p.Mask {
		vec.SetMask(i, m)
	}
	return p.Header, vec, nil
}

// encodeObject substitutes NaN-safe slots into numeric vector objects
// before JSON encoding.
func encodeObject(v interface{}) interface{} {
	floats, ok := v.([]float64)
	if !ok {
		return v
	}
	slots := make([]floatSlot, len(floats))
	for i, f := range floats {
		slots[i] = floatSlot(f)
	}
	return slots
}

// normalizeObject undoes JSON's generic decoding for the common case of
// numeric vectors, so restored objects compare equal to the originals.
func normalizeObject(v interface{}) interface{} {
	arr, ok := v.([]interface{})
	if !ok {
		return v
	}
	floats := make([]float64, len(arr))
	for i, elem := range arr {
		switch e := elem.(type) {
		case float64:
			floats[i] = e
		case nil:
			floats[i] = math.NaN()
		case string:
			switch e {
			case "+Inf":
				floats[i] = math.Inf(1)
			case "-Inf":
				floats[i] = math.Inf(-1)
			default:
				return v
			}
		default:
			return v
		}
	}
	return floats
}
