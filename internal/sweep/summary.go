package sweep

import (
	"context"

	"skymetrics/domain/table"
	"skymetrics/domain/values"
	"skymetrics/internal/errors"
)

// metricDataCol is the synthetic column name summary metrics read: a
// bundle's unmasked values presented as a one-column table.
const metricDataCol = "metricdata"

// computeSummaries runs every configured summary metric over a bundle's
// computed values and returns the results by summary name. A failure in
// one summary is recorded as a skip, not an abort.
func (g *Group) computeSummaries(ctx context.Context, b *Bundle) map[string]float64 {
	if len(b.Summaries) == 0 || b.Values == nil {
		return nil
	}
	if b.Values.Kind() != values.KindFloat {
		g.log.Warn("bundle %s holds object values; summaries apply to its reduced bundles instead", b.FileRoot)
		return nil
	}

	data := b.Values.Compressed()
	rows := table.New()
	if err := rows.AddColumn(metricDataCol, data); err != nil {
		g.log.Warn("summary input for %s could not be built: %v", b.FileRoot, err)
		return nil
	}

	results := make(map[string]float64, len(b.Summaries))
	for _, summary := range b.Summaries {
		val := summary.Run(rows, nil)
		scalar, ok := val.(float64)
		if !ok {
			g.log.Warn("summary %s on %s returned a non-scalar; skipped", summary.Name(), b.FileRoot)
			continue
		}
		results[summary.Name()] = scalar
		if g.registry != nil {
			metricID, known := g.metricIDs[b.FileRoot]
			if !known {
				var err error
				metricID, err = g.registerBundle(ctx, b, "")
				if err != nil {
					g.log.Warn("registry record for %s failed: %v", b.FileRoot, errors.Wrap(err, "record metric"))
					continue
				}
			}
			if err := g.registry.RecordSummary(ctx, metricID, summary.Name(), scalar); err != nil {
				g.log.Warn("registry summary for %s failed: %v", b.FileRoot, err)
			}
		}
	}
	if b.state < StateSummarized {
		b.state = StateSummarized
	}
	return results
}
