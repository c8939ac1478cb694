package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"skymetrics/adapters/excel"
	"skymetrics/adapters/postgres"
	"skymetrics/adapters/sqlite"
	"skymetrics/domain/metrics"
	"skymetrics/domain/slicers"
	"skymetrics/domain/stackers"
	"skymetrics/internal"
	"skymetrics/internal/config"
	"skymetrics/internal/sweep"
	"skymetrics/ports"
)

func main() {
	// Load .env file if present (ignore errors for missing file)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	logger := internal.NewDefaultLogger()

	var source ports.DataSource
	switch cfg.Database.Driver {
	case "excel":
		source = excel.NewDataSource(cfg.Database.URL)
	default:
		pg, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			log.Fatalf("database error: %v", err)
		}
		defer pg.Close()
		source = pg
	}

	var registry ports.Registry
	if cfg.Results.Path != "" {
		reg, err := sqlite.Open(cfg.Results.Path)
		if err != nil {
			log.Fatalf("registry error: %v", err)
		}
		defer reg.Close()
		registry = reg
		logger.Info("results registry run %s", reg.RunID())
	}

	group, err := sweep.NewGroup(defaultBundles(), source, sweep.Options{
		OutDir:    cfg.Output.Dir,
		SaveEarly: cfg.Output.SaveEarly,
		Registry:  registry,
		Query:     ports.QueryOptions{Table: cfg.Database.Table},
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("bundle configuration error: %v", err)
	}

	if err := group.RunAll(context.Background(), false); err != nil {
		logger.Error("sweep failed: %v", err)
		os.Exit(1)
	}
	if err := group.WriteAll(context.Background()); err != nil {
		logger.Error("persistence failed: %v", err)
		os.Exit(1)
	}
	logger.Info("sweep complete: %d bundles", len(group.Keys()))
}

// defaultBundles assembles a representative survey-depth analysis: per-field
// depth and airmass statistics, whole-survey percentiles, and per-field
// completeness against a nominal visit plan.
func defaultBundles() map[string]*sweep.Bundle {
	fieldSlicer := slicers.NewFieldSlicer("fieldID", 50)
	airmassBins := slicers.NewOneDSlicer("airmass", 20)

	summaries := []metrics.Metric{
		metrics.NewMeanMetric("metricdata"),
		metrics.NewMedianMetric("metricdata"),
		metrics.NewRmsMetric("metricdata"),
	}

	var bundles []*sweep.Bundle

	depthMean := sweep.NewBundle(metrics.NewMeanMetric("fiveSigmaDepth"), fieldSlicer, "")
	depthMean.Summaries = summaries
	bundles = append(bundles, depthMean)

	visitCount := sweep.NewBundle(metrics.NewCountMetric("fiveSigmaDepth"), fieldSlicer, "")
	visitCount.Summaries = summaries
	bundles = append(bundles, visitCount)

	airmassP90 := sweep.NewBundle(metrics.NewPercentileMetric("airmass", 0.9), airmassBins, "")
	bundles = append(bundles, airmassP90)

	zd := stackers.NewZenithDistStacker("altitude")
	zdMedian := sweep.NewBundle(metrics.NewMedianMetric("zenithDistance"), fieldSlicer, "")
	zdMedian.Stackers = []stackers.Stacker{zd}
	zdMedian.Summaries = summaries
	bundles = append(bundles, zdMedian)

	completeness, err := metrics.NewCompletenessMetric("filter", [6]float64{56, 80, 184, 184, 160, 160})
	if err == nil {
		comp := sweep.NewBundle(completeness, fieldSlicer, "")
		comp.Summaries = summaries
		bundles = append(bundles, comp)
	}

	dict, err := sweep.DictFromList(bundles)
	if err != nil {
		log.Fatalf("bundle configuration error: %v", err)
	}
	return dict
}
