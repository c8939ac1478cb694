package sweep

import (
	"context"
	"sort"

	"skymetrics/domain/table"
	"skymetrics/internal"
	"skymetrics/internal/archive"
	"skymetrics/internal/errors"
	"skymetrics/ports"
)

// Options configure a Group.
type Options struct {
	// OutDir is where bundle archives are written. Defaults to ".".
	OutDir string
	// SaveEarly writes values to disk immediately after evaluation and
	// after reduce expansion, as a failsafe against later crashes.
	SaveEarly bool
	// Registry is the optional durable bookkeeping store.
	Registry ports.Registry
	// Query tunes the data-source query.
	Query ports.QueryOptions
	// Logger overrides the default logger.
	Logger *internal.Logger
}

// Group owns a collection of bundles and drives the full pipeline: per
// constraint, it queries the data once, partitions the bundles into
// compatible groups, evaluates each group in a single pass, expands reduce
// functions, computes summaries and persists results.
type Group struct {
	bundles map[string]*Bundle
	source  ports.DataSource

	outDir    string
	saveEarly bool
	registry  ports.Registry
	queryOpts ports.QueryOptions
	log       *internal.Logger

	// metricIDs caches registry row IDs per file root so summaries attach
	// to the right row.
	metricIDs map[string]int64
}

// NewGroup validates the bundle collection and builds a group. The source
// may be nil for advanced use, in which case rows must be passed directly
// to RunConstraint and RunAll is unavailable.
func NewGroup(bundles map[string]*Bundle, source ports.DataSource, opts Options) (*Group, error) {
	if len(bundles) == 0 {
		return nil, errors.Configuration("bundle collection is empty")
	}
	seenRoots := make(map[string]string, len(bundles))
	for key, b := range bundles {
		if b == nil {
			return nil, errors.Configuration("bundle collection contains a nil bundle under key " + key)
		}
		if other, dup := seenRoots[b.FileRoot]; dup {
			return nil, errors.Configuration(
				"bundles " + other + " and " + key + " share the file root " + b.FileRoot)
		}
		seenRoots[b.FileRoot] = key
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	log := opts.Logger
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Group{
		bundles:   bundles,
		source:    source,
		outDir:    opts.OutDir,
		saveEarly: opts.SaveEarly,
		registry:  opts.Registry,
		queryOpts: opts.Query,
		log:       log,
		metricIDs: make(map[string]int64),
	}, nil
}

// Bundle returns the bundle stored under a collection key.
func (g *Group) Bundle(key string) (*Bundle, bool) {
	b, ok := g.bundles[key]
	return b, ok
}

// Keys returns the collection keys, sorted.
func (g *Group) Keys() []string {
	keys := make([]string, 0, len(g.bundles))
	for key := range g.bundles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// HasRun reports whether the bundle under a key has been evaluated.
func (g *Group) HasRun(key string) bool {
	b, ok := g.bundles[key]
	return ok && b.HasRun()
}

// Constraints returns the distinct filter constraints across the
// collection, in a fixed (sorted) enumeration order.
func (g *Group) Constraints() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range g.bundles {
		if !seen[b.Constraint] {
			seen[b.Constraint] = true
			out = append(out, b.Constraint)
		}
	}
	sort.Strings(out)
	return out
}

// current returns the bundles matching one constraint, ordered by file
// root for deterministic processing.
func (g *Group) current(constraint string) []*Bundle {
	var out []*Bundle
	for _, b := range g.bundles {
		if b.Constraint == constraint {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileRoot < out[j].FileRoot })
	return out
}

// RunAll runs the full pipeline for every constraint: evaluation, reduce
// expansion and summary statistics. Constraints whose data is unavailable
// are skipped with a warning; the rest proceed independently. When
// clearMemory is set, each bundle's values are released once its
// constraint completes.
func (g *Group) RunAll(ctx context.Context, clearMemory bool) error {
	if g.source == nil {
		return errors.Configuration("group has no data source; pass rows to RunConstraint instead")
	}
	for _, constraint := range g.Constraints() {
		if err := g.RunConstraint(ctx, constraint, nil, clearMemory); err != nil {
			return err
		}
	}
	return nil
}

// RunConstraint runs the pipeline for one constraint. rows may be passed
// directly; when nil, the data source is queried. An empty or failed query
// skips this constraint with a warning and returns nil, so other
// constraints proceed.
func (g *Group) RunConstraint(ctx context.Context, constraint string, rows *table.Table, clearMemory bool) error {
	current := g.current(constraint)
	if len(current) == 0 {
		return nil
	}

	var fieldData *table.Table
	if rows == nil {
		var err error
		rows, fieldData, err = g.getData(ctx, constraint, current)
		if err != nil {
			switch {
			case errors.IsCode(err, errors.CodeNoMatchingData):
				g.log.Warn("no data matching constraint %q; skipping", constraint)
				return nil
			case errors.IsCode(err, errors.CodeColumnUnavailable):
				g.log.Warn("a requested column was not available; skipping constraint %q", constraint)
				return nil
			default:
				return err
			}
		}
	}

	for _, group := range findCompatibleGroups(current) {
		g.log.Info("running %d bundle(s) for constraint %q with slicer %s",
			len(group), constraint, group[0].Slicer.Name())
		if err := g.runCompatible(ctx, group, rows, fieldData); err != nil {
			return err
		}
	}

	derived := g.expandReduce(ctx, current, true)
	for name, b := range derived {
		g.bundles[name] = b
		current = append(current, b)
	}

	for _, b := range current {
		g.computeSummaries(ctx, b)
	}

	if clearMemory {
		for _, b := range current {
			b.ClearValues()
		}
		g.log.Debug("cleared metric values for constraint %q", constraint)
	}
	return nil
}

// getData queries the union of the current bundles' required columns, plus
// the auxiliary field table if any slicer needs it.
func (g *Group) getData(ctx context.Context, constraint string, current []*Bundle) (*table.Table, *table.Table, error) {
	seen := make(map[string]bool)
	var columns []string
	for _, b := range current {
		for _, col := range b.Columns() {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	sort.Strings(columns)

	rows, err := g.source.Query(ctx, constraint, columns, g.queryOpts)
	if err != nil {
		return nil, nil, err
	}
	g.log.Info("found %d visits for constraint %q", rows.Len(), constraint)

	var fieldData *table.Table
	for _, b := range current {
		if b.Slicer.NeedsFieldData() {
			fields, ok := g.source.(ports.FieldSource)
			if !ok {
				return nil, nil, errors.Configuration("a slicer needs field data but the data source cannot supply it")
			}
			fieldData, err = fields.QueryFields(ctx, constraint)
			if err != nil {
				return nil, nil, err
			}
			break
		}
	}
	return rows, fieldData, nil
}

// ReduceAll expands reduce functions for every constraint. Intended for
// use after RunConstraint calls that bypassed the built-in expansion;
// assumes values are still in memory.
func (g *Group) ReduceAll(ctx context.Context, updateSummaries bool) {
	for _, constraint := range g.Constraints() {
		derived := g.expandReduce(ctx, g.current(constraint), updateSummaries)
		for name, b := range derived {
			g.bundles[name] = b
		}
	}
}

// SummaryAll computes summary statistics for every bundle with values in
// memory.
func (g *Group) SummaryAll(ctx context.Context) {
	for _, key := range g.Keys() {
		g.computeSummaries(ctx, g.bundles[key])
	}
}

// WriteAll persists every evaluated bundle to the output directory.
func (g *Group) WriteAll(ctx context.Context) error {
	for _, key := range g.Keys() {
		b := g.bundles[key]
		if b.Values == nil {
			continue
		}
		if err := g.writeBundle(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll attempts to restore every bundle's values from the output
// directory. Missing archives are skipped with a warning, leaving those
// bundles unpopulated. Archives of reduce-derived bundles written by an
// earlier run are restored into the collection as well.
func (g *Group) ReadAll(ctx context.Context) {
	derived := make(map[string]*Bundle)
	for _, key := range g.Keys() {
		b := g.bundles[key]
		path := archive.Path(g.outDir, b.FileRoot)
		_, vec, err := archive.Read(path)
		if err != nil {
			g.log.Warn("file %s not found, bundle not restored", path)
			// A reduce-capable bundle may still have its derived outputs
			// on disk from a save-early run that died before this parent
			// was re-saved.
			for _, reducer := range b.Metric.Reducers() {
				name := b.Metric.Name() + "_" + reducer.Name
				childRoot := buildFileRoot(name, b.Constraint, b.Slicer.Name())
				childPath := archive.Path(g.outDir, childRoot)
				_, childVec, childErr := archive.Read(childPath)
				if childErr != nil {
					g.log.Warn("file %s not found, bundle not restored", childPath)
					continue
				}
				child := &Bundle{
					Metric:     &reducedMetric{name: name, cols: b.Metric.Columns()},
					Slicer:     b.Slicer,
					Constraint: b.Constraint,
					FileRoot:   childRoot,
					Values:     childVec,
					state:      StateEvaluated,
				}
				cname := name
				if _, taken := g.bundles[cname]; taken {
					cname = childRoot
				} else if _, taken := derived[cname]; taken {
					cname = childRoot
				}
				derived[cname] = child
			}
			continue
		}
		b.Values = vec
		b.state = StateEvaluated
		g.log.Debug("read %s from disk", b.FileRoot)
	}
	for name, b := range derived {
		g.bundles[name] = b
	}
}

// writeBundle archives one bundle and registers it if a registry is
// attached.
func (g *Group) writeBundle(ctx context.Context, b *Bundle) error {
	header := archive.Header{
		MetricName: b.Metric.Name(),
		SlicerName: b.Slicer.Name(),
		Constraint: b.Constraint,
		FileRoot:   b.FileRoot,
	}
	if err := archive.Write(g.outDir, header, b.Values); err != nil {
		return err
	}
	if b.state < StatePersisted {
		b.state = StatePersisted
	}
	if g.registry != nil {
		if _, err := g.registerBundle(ctx, b, archive.Path(g.outDir, b.FileRoot)); err != nil {
			g.log.Warn("registry record for %s failed: %v", b.FileRoot, err)
		}
	}
	return nil
}

// registerBundle records the bundle in the registry once, caching its row
// ID for summary recording.
func (g *Group) registerBundle(ctx context.Context, b *Bundle, outFile string) (int64, error) {
	if id, ok := g.metricIDs[b.FileRoot]; ok {
		return id, nil
	}
	id, err := g.registry.RecordMetric(ctx, ports.MetricRecord{
		MetricName: b.Metric.Name(),
		SlicerName: b.Slicer.Name(),
		Constraint: b.Constraint,
		FileRoot:   b.FileRoot,
		OutFile:    outFile,
	})
	if err != nil {
		return 0, err
	}
	g.metricIDs[b.FileRoot] = id
	return id, nil
}
