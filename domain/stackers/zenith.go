package stackers

import (
	"fmt"
	"math"

	"skymetrics/domain/table"
)

// ZenithDistStacker derives the zenith distance of each visit from its
// altitude column.
type ZenithDistStacker struct {
	AltCol string
}

func NewZenithDistStacker(altCol string) *ZenithDistStacker {
	if altCol == "" {
		altCol = "altitude"
	}
	return &ZenithDistStacker{AltCol: altCol}
}

func (s *ZenithDistStacker) Name() string {
	return "ZenithDistStacker"
}

func (s *ZenithDistStacker) ColsAdded() []string {
	return []string{"zenithDistance"}
}

func (s *ZenithDistStacker) ColsRequired() []string {
	return []string{s.AltCol}
}

func (s *ZenithDistStacker) Run(rows *table.Table) error {
	alt, ok := rows.Column(s.AltCol)
	if !ok {
		return fmt.Errorf("zenith distance stacker requires column %q", s.AltCol)
	}
	zd := make([]float64, len(alt))
	for i, a := range alt {
		zd[i] = math.Pi/2 - a
	}
	return rows.AddColumn("zenithDistance", zd)
}

func (s *ZenithDistStacker) Equal(other Stacker) bool {
	o, ok := other.(*ZenithDistStacker)
	if !ok {
		return false
	}
	return s.AltCol == o.AltCol
}
