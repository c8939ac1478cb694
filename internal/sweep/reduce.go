package sweep

import (
	"context"

	"skymetrics/domain/metrics"
	"skymetrics/domain/values"
)

// expandReduce derives one new bundle per reduce function from each
// reduce-capable bundle in the given set, returning the derived bundles
// keyed by their collection name. Reduce functions apply to the parent's
// already-computed values, never to raw rows, and derived bundles carry no
// reduce functions of their own: reduce is one level deep.
func (g *Group) expandReduce(ctx context.Context, current []*Bundle, updateSummaries bool) map[string]*Bundle {
	derived := make(map[string]*Bundle)
	for _, parent := range current {
		reducers := parent.Metric.Reducers()
		if len(reducers) == 0 || parent.Values == nil {
			continue
		}
		for _, reducer := range reducers {
			child := g.reduceBundle(parent, reducer)
			// Key by the derived metric name; fall back to the file root
			// when the name is already taken in the collection or by an
			// earlier parent in this expansion batch.
			name := child.Metric.Name()
			if _, taken := g.bundles[name]; taken {
				name = child.FileRoot
			} else if _, taken := derived[name]; taken {
				name = child.FileRoot
			}
			derived[name] = child
			if g.saveEarly {
				if err := g.writeBundle(ctx, child); err != nil {
					g.log.Warn("early save of %s failed: %v", child.FileRoot, err)
				}
			}
		}
		if updateSummaries {
			// Summaries are meant for the simpler reduced outputs, not the
			// raw complex output.
			parent.Summaries = nil
		}
		if parent.state < StateReduced {
			parent.state = StateReduced
		}
	}
	return derived
}

// reduceBundle builds the derived bundle for one reducer. The parent's
// slicer is shared by reference; the values array is fresh, so mutating
// the child never touches the parent.
func (g *Group) reduceBundle(parent *Bundle, reducer metrics.Reducer) *Bundle {
	name := parent.Metric.Name() + "_" + reducer.Name
	child := &Bundle{
		Metric:     &reducedMetric{name: name, cols: parent.Metric.Columns()},
		Slicer:     parent.Slicer,
		Constraint: parent.Constraint,
		Stackers:   parent.Stackers,
		Maps:       parent.Maps,
		Summaries:  parent.Summaries,
		FileRoot:   buildFileRoot(name, parent.Constraint, parent.Slicer.Name()),
	}
	n := parent.Values.Len()
	child.Values = values.NewFloat(n)
	for i := 0; i < n; i++ {
		if parent.Values.Masked(i) {
			child.Values.SetMask(i, true)
			continue
		}
		var parentVal interface{}
		if parent.Values.Kind() == values.KindObject {
			parentVal = parent.Values.Object(i)
		} else {
			parentVal = parent.Values.Float(i)
		}
		child.Values.SetFloat(i, reducer.Fn(parentVal))
	}
	child.Values.MaskBadValues(child.Metric.BadValue())
	child.state = StateEvaluated
	return child
}
