package stackers

import (
	"fmt"
	"math"
	"math/rand"

	"skymetrics/domain/table"
)

// RandomDitherStacker adds randomly dithered pointing columns: each visit
// gets an offset drawn uniformly within MaxDither degrees of its field
// center. The random stream is seeded so reruns produce identical columns.
type RandomDitherStacker struct {
	RACol     string
	DecCol    string
	MaxDither float64 // degrees
	Seed      int64
}

func NewRandomDitherStacker(raCol, decCol string, maxDither float64, seed int64) *RandomDitherStacker {
	if raCol == "" {
		raCol = "fieldRA"
	}
	if decCol == "" {
		decCol = "fieldDec"
	}
	if maxDither <= 0 {
		maxDither = 1.75
	}
	return &RandomDitherStacker{RACol: raCol, DecCol: decCol, MaxDither: maxDither, Seed: seed}
}

func (s *RandomDitherStacker) Name() string {
	return "RandomDitherStacker"
}

func (s *RandomDitherStacker) ColsAdded() []string {
	return []string{"randomRADither", "randomDecDither"}
}

func (s *RandomDitherStacker) ColsRequired() []string {
	return []string{s.RACol, s.DecCol}
}

func (s *RandomDitherStacker) Run(rows *table.Table) error {
	ra, ok := rows.Column(s.RACol)
	if !ok {
		return fmt.Errorf("dither stacker requires column %q", s.RACol)
	}
	dec, ok := rows.Column(s.DecCol)
	if !ok {
		return fmt.Errorf("dither stacker requires column %q", s.DecCol)
	}

	rng := rand.New(rand.NewSource(s.Seed))
	maxRad := s.MaxDither * math.Pi / 180.0
	ditherRA := make([]float64, len(ra))
	ditherDec := make([]float64, len(dec))
	for i := range ra {
		// Uniform offsets over the inscribed disc: sqrt on the radial draw
		// keeps the area density flat.
		r := maxRad * math.Sqrt(rng.Float64())
		theta := 2 * math.Pi * rng.Float64()
		newRA := ra[i] + r*math.Cos(theta)/math.Cos(dec[i])
		newDec := dec[i] + r*math.Sin(theta)
		ditherRA[i], ditherDec[i] = wrapRADec(newRA, newDec)
	}
	if err := rows.AddColumn("randomRADither", ditherRA); err != nil {
		return err
	}
	return rows.AddColumn("randomDecDither", ditherDec)
}

func (s *RandomDitherStacker) Equal(other Stacker) bool {
	o, ok := other.(*RandomDitherStacker)
	if !ok {
		return false
	}
	return s.RACol == o.RACol && s.DecCol == o.DecCol &&
		s.MaxDither == o.MaxDither && s.Seed == o.Seed
}

// wrapRADec wraps RA into [0, 2pi) and Dec into [-pi/2, pi/2], reflecting
// over-the-pole coordinates back onto the sphere.
func wrapRADec(ra, dec float64) (float64, float64) {
	if dec < -math.Pi/2 {
		dec = -(math.Pi + dec)
		ra -= math.Pi
	}
	if dec > math.Pi/2 {
		dec = math.Pi - dec
		ra -= math.Pi
	}
	ra = math.Mod(ra, 2*math.Pi)
	if ra < 0 {
		ra += 2 * math.Pi
	}
	return ra, dec
}
