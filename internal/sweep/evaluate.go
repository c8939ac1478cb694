package sweep

import (
	"context"

	"skymetrics/domain/skymaps"
	"skymetrics/domain/stackers"
	"skymetrics/domain/table"
	"skymetrics/internal/errors"
)

// runCompatible evaluates one compatible group of bundles in a single pass
// over the shared rows, populating every bundle's value array in place.
func (g *Group) runCompatible(ctx context.Context, group []*Bundle, rows *table.Table, fieldData *table.Table) error {
	if rows.Len() == 0 {
		// Nothing to evaluate; leaving the bundles unpopulated is the
		// documented outcome, not an error.
		return nil
	}

	// Merge the group's stackers, deduplicated by configuration, and run
	// each exactly once. Name conflicts with differing configuration were
	// ruled out by the compatibility check, so run order between distinct
	// stackers does not matter.
	var merged []stackers.Stacker
	for _, b := range group {
		for _, st := range b.Stackers {
			duplicate := false
			for _, existing := range merged {
				if existing.Equal(st) {
					duplicate = true
					break
				}
			}
			if !duplicate {
				merged = append(merged, st)
			}
		}
	}
	for _, st := range merged {
		if err := st.Run(rows); err != nil {
			return errors.Wrapf(err, "stacker %s failed", st.Name())
		}
	}

	// Merge the group's map providers by type name, then instantiate any
	// map a metric requires that no bundle carries. Instantiation goes
	// through the skymaps registry so new providers stay pluggable.
	mapsByName := make(map[string]bool)
	var mergedMaps []skymaps.Provider
	for _, b := range group {
		for _, m := range b.Maps {
			if !mapsByName[m.Name()] {
				mapsByName[m.Name()] = true
				mergedMaps = append(mergedMaps, m)
			}
		}
	}
	for _, b := range group {
		for _, name := range b.Metric.RequiredMaps() {
			if mapsByName[name] {
				continue
			}
			provider, err := skymaps.New(name)
			if err != nil {
				return errors.Wrapf(err, "metric %s requires an unknown map", b.Metric.Name())
			}
			mapsByName[name] = true
			mergedMaps = append(mergedMaps, provider)
		}
	}

	// Set up one representative slicer and push it back into every bundle,
	// so all members observe identical slice points. Single-writer during
	// setup, shared read-only afterwards.
	slicer := group[0].Slicer
	var aux *table.Table
	if slicer.NeedsFieldData() {
		aux = fieldData
	}
	if err := slicer.Setup(rows, aux, mergedMaps); err != nil {
		return errors.Wrapf(err, "slicer %s setup failed", slicer.Name())
	}
	for _, b := range group {
		b.Slicer = slicer
	}

	n := slicer.NumSlices()
	for _, b := range group {
		b.setupValues(n)
	}

	var cache *sliceCache
	if slicer.CacheSize() > 0 {
		cache = newSliceCache(slicer.CacheSize())
	}

	// Walk the slices in the slicer's order. Deterministic iteration is
	// required for cache correctness.
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		slice := slicer.At(i)
		if len(slice.Indices) == 0 {
			for _, b := range group {
				b.Values.SetMask(i, true)
			}
			continue
		}
		if cache != nil {
			key := keyForIndices(slice.Indices)
			if earlier, ok := cache.Get(key); ok {
				// An identical membership set was already evaluated; reuse
				// its results for every bundle in the group. Keys are
				// scoped to this pass, so the cached value is guaranteed
				// to come from the same metrics and the same rows.
				for _, b := range group {
					b.Values.CopySlot(i, earlier)
				}
				continue
			}
			cache.Put(key, i)
		}
		sliced, err := rows.Select(slice.Indices)
		if err != nil {
			return errors.Wrap(err, "slice selection failed")
		}
		for _, b := range group {
			if err := b.Values.Set(i, b.Metric.Run(sliced, slice.Point)); err != nil {
				return errors.Wrapf(err, "metric %s returned a mistyped value", b.Metric.Name())
			}
		}
	}

	// Mask slots holding the metric's bad-value sentinel.
	for _, b := range group {
		b.Values.MaskBadValues(b.Metric.BadValue())
		b.state = StateEvaluated
	}

	// Failsafe persistence: keep what was computed even if a later stage
	// crashes.
	if g.saveEarly {
		for _, b := range group {
			if err := g.writeBundle(ctx, b); err != nil {
				g.log.Warn("early save of %s failed: %v", b.FileRoot, err)
			}
		}
	}
	return nil
}
