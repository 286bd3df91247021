package geometry

import (
	"math"

	"github.com/hydroflow/hydroflow/pkg/errors"
)

// eggSection holds the derived radii and transition heights of an
// egg-shaped cross-section: small bottom radius r1, top radius r2, large
// flank radius r3, flank center offset, and the water levels h1/h2 where
// the profile changes curvature.
type eggSection struct {
	height float64
	r1     float64
	r2     float64
	r3     float64
	offset float64
	h1     float64
	h2     float64
}

// wettedArea computes the flow cross-section area for the water depth.
// Ported across from the surveyed wetted-area tables; depths at or above
// the crown are clamped just below it to keep the top segment finite.
func (s eggSection) wettedArea(depth float64) float64 {
	if depth > s.height*0.9999 {
		depth = s.height * 0.9999
	}

	psi := math.Atan((s.h2 - s.r1) / s.offset)
	area1 := 0.25 * s.r3 * s.r3 * (2*psi - math.Sin(2*psi))
	innerRect := math.Sqrt(s.r1*s.r1 - (s.r1-s.h1)*(s.r1-s.h1))

	switch {
	case depth <= s.h1:
		theta := 2 * math.Acos((s.r1-depth)/s.r1)
		return 0.5 * (theta - math.Sin(theta)) * s.r1 * s.r1

	case depth <= s.h2:
		z := s.h2 - depth
		phi := math.Asin(z / s.r3)
		area2 := 0.25 * s.r3 * s.r3 * (2*phi - math.Sin(2*phi))
		x1 := math.Sqrt(s.r3*s.r3 - z*z)
		m := depth - s.h1
		p := x1 - s.offset - innerRect
		area3 := m * innerRect
		area4 := p * (s.h2 - depth)
		area5 := area1 - area2 - area4
		theta := 2 * math.Acos((s.r1-s.h1)/s.r1)
		lower := 0.5 * (theta - math.Sin(theta)) * s.r1 * s.r1
		return lower + 2*(area5+area3)

	default:
		i := depth - s.h1
		middle := 2 * (area1 + i*innerRect)
		theta := 2 * math.Acos((s.r1-s.h1)/s.r1)
		lower := 0.5 * (theta - math.Sin(theta)) * s.r1 * s.r1
		area8 := math.Pi * s.r2 * s.r2 / 2
		z := depth - s.h2 + s.r2
		z = s.r2*2 - z
		gamma := 2 * math.Acos((s.r2-z)/s.r2)
		area9 := math.Pi*s.r2*s.r2 - s.r2*s.r2*(gamma-math.Sin(gamma))/2
		upper := area9 - area8
		return lower + middle + upper
	}
}

// EggCalculator computes flow through an egg-shaped conduit.
type EggCalculator struct {
	section eggSection
}

// Flow implements Calculator.
func (c *EggCalculator) Flow(depth, velocity float64) float64 {
	return math.Max(c.section.wettedArea(depth)*velocity*1000, 0)
}

func newEggSection(height, r1, r2, r3 float64) eggSection {
	offset := r3 - r2
	h2 := height - r2
	h1 := h2 - r3*math.Sin(math.Atan((h2-r1)/offset))
	return eggSection{height: height, r1: r1, r2: r2, r3: r3, offset: offset, h1: h1, h2: h2}
}

// NewEgg1Calculator builds the type-1 profile: bottom radius (h-w)/2.
func NewEgg1Calculator(width, height, r3 float64) (*EggCalculator, error) {
	if math.IsNaN(width) || math.IsNaN(height) || math.IsNaN(r3) {
		return nil, errors.New(errors.CodeInvalidDescriptor, "invalid egg dimensions")
	}
	return &EggCalculator{section: newEggSection(height, (height-width)/2, width/2, r3)}, nil
}

// NewEgg2Calculator builds the standard type-2 profile, whose radii are
// fixed proportions of the height (r1=h/12, r2=h/3, r3=8h/9).
func NewEgg2Calculator(height float64) (*EggCalculator, error) {
	if math.IsNaN(height) {
		return nil, errors.New(errors.CodeInvalidDescriptor, "invalid egg dimensions")
	}
	return &EggCalculator{section: newEggSection(height, height/12, height/3, 8*height/9)}, nil
}

// NewEgg2ACalculator builds the type-2a profile: bottom radius (h-w)/4.
func NewEgg2ACalculator(height, width, r3 float64) (*EggCalculator, error) {
	if math.IsNaN(height) || math.IsNaN(width) || math.IsNaN(r3) ||
		height <= 0 || width <= 0 || r3 <= 0 {
		return nil, errors.New(errors.CodeInvalidDescriptor, "invalid egg dimensions")
	}
	return &EggCalculator{section: newEggSection(height, (height-width)/4, width/2, r3)}, nil
}
