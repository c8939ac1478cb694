// Package values holds the masked result vectors produced by a metric
// sweep: one slot per slice, with an independent mask tracking slots where
// the metric could not be computed.
package values

import (
	"fmt"
	"math"
	"reflect"
)

// Kind discriminates the storage used for a vector's slots.
type Kind int

const (
	// KindFloat stores scalar float64 results.
	KindFloat Kind = iota
	// KindObject stores arbitrary results (e.g. per-band vectors) which a
	// reduce function later collapses to scalars.
	KindObject
)

// Vector is a fixed-length masked result array. Slots start unmasked and
// uninitialized; the evaluator masks empty slices up front and bad values
// after the sweep.
type Vector struct {
	kind    Kind
	floats  []float64
	objects []interface{}
	mask    []bool
}

// NewFloat allocates a float vector of length n, all slots unmasked.
func NewFloat(n int) *Vector {
	return &Vector{
		kind:   KindFloat,
		floats: make([]float64, n),
		mask:   make([]bool, n),
	}
}

// NewObject allocates an object vector of length n, all slots unmasked.
func NewObject(n int) *Vector {
	return &Vector{
		kind:    KindObject,
		objects: make([]interface{}, n),
		mask:    make([]bool, n),
	}
}

// Kind returns the storage kind.
func (v *Vector) Kind() Kind {
	return v.kind
}

// Len returns the number of slots.
func (v *Vector) Len() int {
	return len(v.mask)
}

// Masked reports whether slot i is masked.
func (v *Vector) Masked(i int) bool {
	return v.mask[i]
}

// SetMask sets the mask state of slot i.
func (v *Vector) SetMask(i int, masked bool) {
	v.mask[i] = masked
}

// Float returns the float value at slot i.
func (v *Vector) Float(i int) float64 {
	return v.floats[i]
}

// SetFloat stores a float value at slot i.
func (v *Vector) SetFloat(i int, val float64) {
	v.floats[i] = val
}

// Object returns the object value at slot i.
func (v *Vector) Object(i int) interface{} {
	return v.objects[i]
}

// SetObject stores an object value at slot i.
func (v *Vector) SetObject(i int, val interface{}) {
	v.objects[i] = val
}

// Set stores a metric result at slot i, dispatching on the vector kind.
// Float vectors accept float64 results only.
func (v *Vector) Set(i int, val interface{}) error {
	switch v.kind {
	case KindFloat:
		f, ok := val.(float64)
		if !ok {
			return fmt.Errorf("float vector cannot store %T at slot %d", val, i)
		}
		v.floats[i] = f
	case KindObject:
		v.objects[i] = val
	}
	return nil
}

// CopySlot copies the value (not the mask) from slot src into slot dst.
// Used by the evaluator when a membership-set cache hit lets a slice reuse
// an earlier slice's result.
func (v *Vector) CopySlot(dst, src int) {
	switch v.kind {
	case KindFloat:
		v.floats[dst] = v.floats[src]
	case KindObject:
		v.objects[dst] = v.objects[src]
	}
}

// MaskBadValues masks every slot whose value equals the metric's bad-value
// sentinel. A NaN sentinel is matched NaN-aware, since NaN never compares
// equal to itself. Object slots are compared structurally, which cannot
// panic on uncomparable types. Masking is idempotent: already-masked slots
// stay masked.
func (v *Vector) MaskBadValues(bad interface{}) {
	switch v.kind {
	case KindFloat:
		badFloat, ok := bad.(float64)
		if !ok {
			return
		}
		if math.IsNaN(badFloat) {
			for i, val := range v.floats {
				if math.IsNaN(val) {
					v.mask[i] = true
				}
			}
			return
		}
		for i, val := range v.floats {
			if val == badFloat {
				v.mask[i] = true
			}
		}
	case KindObject:
		for i, val := range v.objects {
			if val == nil || reflect.DeepEqual(val, bad) {
				v.mask[i] = true
			}
		}
	}
}

// Compressed returns the unmasked float values in slot order. Object
// vectors return nil; summaries run on scalar vectors only.
func (v *Vector) Compressed() []float64 {
	if v.kind != KindFloat {
		return nil
	}
	out := make([]float64, 0, len(v.floats))
	for i, val := range v.floats {
		if !v.mask[i] {
			out = append(out, val)
		}
	}
	return out
}

// Clone returns a deep copy of the vector. Object slots share the same
// underlying objects (object results are treated as immutable once stored).
func (v *Vector) Clone() *Vector {
	out := &Vector{kind: v.kind, mask: make([]bool, len(v.mask))}
	copy(out.mask, v.mask)
	if v.floats != nil {
		out.floats = make([]float64, len(v.floats))
		copy(out.floats, v.floats)
	}
	if v.objects != nil {
		out.objects = make([]interface{}, len(v.objects))
		copy(out.objects, v.objects)
	}
	return out
}

// Equal reports whether two vectors hold identical values and masks.
// NaN slots compare equal to NaN slots, so round-tripped archives match.
func (v *Vector) Equal(other *Vector) bool {
	if other == nil || v.kind != other.kind || len(v.mask) != len(other.mask) {
		return false
	}
	for i := range v.mask {
		if v.mask[i] != other.mask[i] {
			return false
		}
	}
	switch v.kind {
	case KindFloat:
		for i := range v.floats {
			a, b := v.floats[i], other.floats[i]
			if a != b && !(math.IsNaN(a) && math.IsNaN(b)) {
				return false
			}
		}
	case KindObject:
		for i := range v.objects {
			if !reflect.DeepEqual(v.objects[i], other.objects[i]) {
				return false
			}
		}
	}
	return true
}
