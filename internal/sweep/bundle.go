// Package sweep is the execution engine: it groups metric bundles that can
// share one pass over the data, evaluates them slice by slice with a
// membership-set cache, expands reduce functions into derived bundles,
// computes summary statistics and persists results.
package sweep

import (
	"fmt"
	"strings"

	"skymetrics/domain/metrics"
	"skymetrics/domain/skymaps"
	"skymetrics/domain/slicers"
	"skymetrics/domain/stackers"
	"skymetrics/domain/table"
	"skymetrics/domain/values"
	"skymetrics/internal/errors"
)

// State is a bundle's lifecycle position.
type State int

const (
	StateConfigured State = iota
	StateEvaluated
	StateReduced
	StateSummarized
	StatePersisted
)

// Bundle pairs one metric with a slicer, a data constraint and its computed
// values. Bundles are configured up front, evaluated in place by the
// engine, and optionally cleared after persistence to free memory.
type Bundle struct {
	Metric     metrics.Metric
	Slicer     slicers.Slicer
	Constraint string
	Stackers   []stackers.Stacker
	Maps       []skymaps.Provider
	// Summaries are metrics run over the computed values; each reads the
	// synthetic "metricdata" column built from the unmasked results.
	Summaries []metrics.Metric
	// FileRoot uniquely identifies the bundle for persistence. Derived
	// from metric, constraint and slicer unless set explicitly.
	FileRoot string
	// Values is nil until the bundle is evaluated or restored from disk.
	Values *values.Vector

	state State
}

// NewBundle creates a configured bundle with a derived file root. Stackers,
// maps and summaries may be assigned before the bundle joins a group.
func NewBundle(metric metrics.Metric, slicer slicers.Slicer, constraint string) *Bundle {
	b := &Bundle{
		Metric:     metric,
		Slicer:     slicer,
		Constraint: constraint,
	}
	b.FileRoot = buildFileRoot(metric.Name(), constraint, slicer.Name())
	return b
}

// State returns the bundle's lifecycle position.
func (b *Bundle) State() State {
	return b.state
}

// HasRun reports whether the bundle's metric values have been calculated at
// some point, even if they were since cleared from memory.
func (b *Bundle) HasRun() bool {
	return b.state >= StateEvaluated
}

// Columns returns every data column the bundle needs: the metric's, the
// slicer's, and the inputs of each stacker. Columns produced by the
// bundle's own stackers are excluded, they exist only after stacking.
func (b *Bundle) Columns() []string {
	produced := make(map[string]bool)
	for _, st := range b.Stackers {
		for _, col := range st.ColsAdded() {
			produced[col] = true
		}
	}
	seen := make(map[string]bool)
	var cols []string
	add := func(names []string) {
		for _, name := range names {
			if !seen[name] && !produced[name] {
				seen[name] = true
				cols = append(cols, name)
			}
		}
	}
	add(b.Metric.Columns())
	add(b.Slicer.Columns())
	for _, st := range b.Stackers {
		add(st.ColsRequired())
	}
	return cols
}

// setupValues allocates the bundle's masked value array for n slices.
// Called once per evaluation; the array is populated in place so grouped
// bundles keep their shared identity.
func (b *Bundle) setupValues(n int) {
	if b.Metric.Kind() == values.KindObject {
		b.Values = values.NewObject(n)
	} else {
		b.Values = values.NewFloat(n)
	}
}

// ClearValues releases the computed values from memory. The lifecycle
// state is kept: the bundle still reports HasRun.
func (b *Bundle) ClearValues() {
	b.Values = nil
}

// reducedMetric is the synthetic metric carried by a reduce-derived
// bundle. It holds only identity; its values are computed from the
// parent's values, never from raw rows.
type reducedMetric struct {
	name string
	cols []string
}

func (m *reducedMetric) Name() string                { return m.name }
func (m *reducedMetric) Columns() []string           { return m.cols }
func (m *reducedMetric) Kind() values.Kind           { return values.KindFloat }
func (m *reducedMetric) BadValue() interface{}       { return metrics.BadFloat }
func (m *reducedMetric) RequiredMaps() []string      { return nil }
func (m *reducedMetric) Reducers() []metrics.Reducer { return nil }

func (m *reducedMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	return metrics.BadFloat
}

// DictFromList converts a list of bundles into a map keyed by file root,
// failing if two bundles share one. Duplicate file roots would silently
// overwrite each other's archives.
func DictFromList(bundles []*Bundle) (map[string]*Bundle, error) {
	dict := make(map[string]*Bundle, len(bundles))
	for _, b := range bundles {
		if b == nil {
			return nil, errors.Configuration("bundle list contains a nil bundle")
		}
		if _, exists := dict[b.FileRoot]; exists {
			return nil, errors.Configuration(
				fmt.Sprintf("more than one bundle is using the file root %q", b.FileRoot))
		}
		dict[b.FileRoot] = b
	}
	return dict, nil
}

// buildFileRoot derives a filesystem-safe identifier from the bundle's
// metric, constraint and slicer.
func buildFileRoot(parts ...string) string {
	joined := strings.Join(parts, "_")
	var sb strings.Builder
	lastUnderscore := false
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(sb.String(), "_")
}
