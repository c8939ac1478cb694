package skymaps

import "math"

// UniformMap annotates every point with a single constant value. Useful as
// a placeholder for surveys without a measured sky map.
type UniformMap struct {
	Key   string
	Value float64
}

func NewUniformMap() *UniformMap {
	return &UniformMap{Key: "uniform", Value: 1.0}
}

func (m *UniformMap) Name() string {
	return "UniformMap"
}

func (m *UniformMap) Annotate(p Point) {
	p[m.Key] = m.Value
}

// StellarDensityMap annotates points with an approximate stellar density
// based on galactic latitude distance, falling off from the plane.
type StellarDensityMap struct {
	// PlaneDensity is the density at the galactic plane, stars/sq deg.
	PlaneDensity float64
	// ScaleHeight controls the exponential falloff, degrees.
	ScaleHeight float64
}

func NewStellarDensityMap() *StellarDensityMap {
	return &StellarDensityMap{PlaneDensity: 5000, ScaleHeight: 25}
}

func (m *StellarDensityMap) Name() string {
	return "StellarDensityMap"
}

func (m *StellarDensityMap) Annotate(p Point) {
	dec := 0.0
	if d, ok := p["dec"].(float64); ok {
		dec = d
	}
	// Use |dec| as a stand-in for galactic latitude distance.
	lat := math.Abs(dec) * 180 / math.Pi
	p["starDensity"] = m.PlaneDensity * math.Exp(-lat/m.ScaleHeight)
}

func init() {
	Register("UniformMap", func() Provider { return NewUniformMap() })
	Register("StellarDensityMap", func() Provider { return NewStellarDensityMap() })
}
