package geometry

import (
	"math"
	"strings"

	"github.com/hydroflow/hydroflow/pkg/errors"
)

// Shape names a supported pipe cross-section.
type Shape string

const (
	ShapeCircular        Shape = "Circular"
	ShapeRectangular     Shape = "Rectangular"
	ShapeEggType1        Shape = "Egg Type 1"
	ShapeEggType2        Shape = "Egg Type 2"
	ShapeEggType2A       Shape = "Egg Type 2a"
	ShapeTwoCircleAndRect Shape = "Two Circles and a Rectangle"
)

// ParseShape maps user-facing shape names (several spellings are accepted)
// onto the canonical Shape values.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "circular", "circle":
		return ShapeCircular, nil
	case "rectangular", "rectangle":
		return ShapeRectangular, nil
	case "egg type 1", "eggtype1", "egg1":
		return ShapeEggType1, nil
	case "egg type 2", "eggtype2", "egg2":
		return ShapeEggType2, nil
	case "egg type 2a", "eggtype2a", "egg2a":
		return ShapeEggType2A, nil
	case "two circles and a rectangle", "twocircleandrectangle", "twocirclerect":
		return ShapeTwoCircleAndRect, nil
	default:
		return "", errors.New(errors.CodeInvalidDescriptor, "unsupported pipe shape").
			WithContext("shape", s)
	}
}

// Descriptor is a pipe geometry, one variant per shape. Each variant
// carries its own strongly-typed dimensions and knows how to produce the
// flow calculator for the FDV encoder.
type Descriptor interface {
	Shape() Shape
	// Calculator validates the dimensions and builds the flow calculator.
	Calculator() (Calculator, error)
	// PipeDiameter returns the value written into the FDV header's pipe
	// size constant, in metres; shapes without a meaningful single
	// diameter report -1 (the format's "unknown").
	PipeDiameter() float64
}

// Circular is a circular pipe. Diameter is in millimetres, as field crews
// record it.
type Circular struct {
	Diameter float64
}

func (Circular) Shape() Shape { return ShapeCircular }

func (c Circular) PipeDiameter() float64 {
	if c.Diameter > 0 {
		return c.Diameter / 1000
	}
	return -1
}

func (c Circular) Calculator() (Calculator, error) {
	if c.Diameter <= 0 || math.IsNaN(c.Diameter) {
		return nil, errors.New(errors.CodeInvalidDescriptor, "circular pipe needs a positive diameter").
			WithContext("diameter", c.Diameter)
	}
	return NewCircularCalculator(c.Diameter / 1000 / 2)
}

// Rectangular is a rectangular channel. Dimensions in millimetres.
type Rectangular struct {
	Width  float64
	Height float64
}

func (Rectangular) Shape() Shape { return ShapeRectangular }

func (r Rectangular) PipeDiameter() float64 {
	if r.Width > 0 {
		return r.Width / 1000
	}
	return -1
}

func (r Rectangular) Calculator() (Calculator, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, errors.New(errors.CodeInvalidDescriptor, "rectangular channel needs positive width and height").
			WithContext("width", r.Width).
			WithContext("height", r.Height)
	}
	return NewRectangularCalculator(r.Width / 1000)
}

// EggForm distinguishes the egg sub-types for the R3 solver.
type EggForm int

const (
	EggForm1  EggForm = 1
	EggForm2  EggForm = 2
	EggForm2A EggForm = 3
)

// Egg is an egg-shaped conduit. Width and Height are in metres; R3 is the
// precomputed large flank radius, or 0 to have the solver derive it.
type Egg struct {
	Form   EggForm
	Width  float64
	Height float64
	R3     float64
}

func (e Egg) Shape() Shape {
	switch e.Form {
	case EggForm1:
		return ShapeEggType1
	case EggForm2A:
		return ShapeEggType2A
	default:
		return ShapeEggType2
	}
}

func (Egg) PipeDiameter() float64 { return -1 }

func (e Egg) Calculator() (Calculator, error) {
	if e.Width <= 0 || e.Height <= 0 || e.Height <= e.Width {
		return nil, errors.New(errors.CodeInvalidDescriptor, "egg conduit needs positive width and height, with height > width").
			WithContext("width", e.Width).
			WithContext("height", e.Height)
	}

	r3 := e.R3
	if r3 <= 0 {
		form := 2
		if e.Form == EggForm1 {
			form = 1
		}
		result := Solve(e.Width, e.Height, form)
		if !result.OK() {
			return nil, errors.New(errors.CodeSolverFailed, "r3 solver failed").
				WithContext("reason", result.Reason.String()).
				WithContext("width", e.Width).
				WithContext("height", e.Height)
		}
		r3 = result.Value
	}

	switch e.Form {
	case EggForm1:
		return NewEgg1Calculator(e.Width, e.Height, r3)
	case EggForm2A:
		return NewEgg2ACalculator(e.Height, e.Width, r3)
	default:
		// The standard type-2 profile fixes width at 2h/3; when the
		// dimensions match it, the closed-form radii are exact.
		if math.Abs(e.Width-2*e.Height/3) < 1e-9 && e.R3 <= 0 {
			return NewEgg2Calculator(e.Height)
		}
		return NewEgg2ACalculator(e.Height, e.Width, r3)
	}
}

// TwoCircleAndRect is a conduit of two half-circles joined by a rectangle.
// Dimensions in metres; the circle diameter equals Width. UpperDiameter
// and LowerDiameter are recorded for the survey sheet but do not alter the
// cross-section (both circles share the conduit width).
type TwoCircleAndRect struct {
	Height        float64
	Width         float64
	UpperDiameter float64
	LowerDiameter float64
}

func (TwoCircleAndRect) Shape() Shape { return ShapeTwoCircleAndRect }

func (TwoCircleAndRect) PipeDiameter() float64 { return -1 }

func (t TwoCircleAndRect) Calculator() (Calculator, error) {
	return NewTwoCircleRectCalculator(t.Width, t.Height)
}

// FromDimensions builds the typed descriptor for a shape from a positional
// dimension list, enforcing the per-shape arity: Circular takes one value,
// Rectangular two, egg variants two or three (optional r3), and
// TwoCircleAndRectangle four.
func FromDimensions(shape Shape, dims []float64) (Descriptor, error) {
	badCount := func(want string) error {
		return errors.New(errors.CodeInvalidDescriptor, "wrong dimension count for shape").
			WithContext("shape", shape).
			WithContext("want", want).
			WithContext("got", len(dims))
	}

	switch shape {
	case ShapeCircular:
		if len(dims) != 1 {
			return nil, badCount("1 (diameter)")
		}
		return Circular{Diameter: dims[0]}, nil

	case ShapeRectangular:
		if len(dims) != 2 {
			return nil, badCount("2 (width, height)")
		}
		return Rectangular{Width: dims[0], Height: dims[1]}, nil

	case ShapeEggType1, ShapeEggType2, ShapeEggType2A:
		if len(dims) != 2 && len(dims) != 3 {
			return nil, badCount("2 or 3 (width, height, optional r3)")
		}
		egg := Egg{Width: dims[0], Height: dims[1]}
		if len(dims) == 3 {
			egg.R3 = dims[2]
		}
		switch shape {
		case ShapeEggType1:
			egg.Form = EggForm1
		case ShapeEggType2A:
			egg.Form = EggForm2A
		default:
			egg.Form = EggForm2
		}
		return egg, nil

	case ShapeTwoCircleAndRect:
		if len(dims) != 4 {
			return nil, badCount("4 (height, width, upper diameter, lower diameter)")
		}
		return TwoCircleAndRect{
			Height:        dims[0],
			Width:         dims[1],
			UpperDiameter: dims[2],
			LowerDiameter: dims[3],
		}, nil

	default:
		return nil, errors.New(errors.CodeInvalidDescriptor, "unsupported pipe shape").
			WithContext("shape", shape)
	}
}
