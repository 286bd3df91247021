// Package geometry models pipe cross-sections and the flow calculation
// each one implies. The FDV encoder derives the flow field of every record
// from depth and velocity through one of these calculators.
package geometry

import (
	"math"

	"github.com/hydroflow/hydroflow/pkg/errors"
)

// Calculator computes the flow value (l/s) for one depth/velocity sample.
type Calculator interface {
	Flow(depth, velocity float64) float64
}

// segmentArea is the area of a circular segment of the given radius cut at
// height t above (or below) the center line.
func segmentArea(radius, height float64) float64 {
	radiusSquared := radius * radius
	t := radius - height
	chord := 2 * math.Sqrt(radiusSquared-t*t)
	c := chord / 2
	// Atan2 keeps the interior angle in (0, 2π) when the cut is above the
	// center line (t < 0); Atan would flip the sign there.
	interior := 2 * math.Atan2(c, t)
	return radiusSquared * (interior - math.Sin(interior)) / 2
}

// CircularCalculator computes flow through a circular pipe.
type CircularCalculator struct {
	radius        float64
	radiusSquared float64
	circleArea    float64
}

// NewCircularCalculator creates a calculator for a pipe of the given radius
// in metres.
func NewCircularCalculator(radius float64) (*CircularCalculator, error) {
	if math.IsNaN(radius) {
		return nil, errors.New(errors.CodeInvalidDescriptor, "pipe radius invalid")
	}
	return &CircularCalculator{
		radius:        radius,
		radiusSquared: radius * radius,
		circleArea:    math.Pi * radius * radius,
	}, nil
}

// Flow implements Calculator.
func (c *CircularCalculator) Flow(depth, velocity float64) float64 {
	switch {
	case depth > c.radius:
		if depth < c.radius*2 {
			upper := segmentArea(c.radius, c.radius*2-depth)
			return (c.circleArea - upper) * velocity * 1000
		}
		return c.circleArea * velocity * 1000
	case depth == c.radius:
		return c.circleArea / 2 * velocity * 1000
	case depth > 0:
		return segmentArea(c.radius, depth) * velocity * 1000
	default:
		return 0
	}
}

// RectangularCalculator computes flow through a rectangular channel.
type RectangularCalculator struct {
	width float64
}

// NewRectangularCalculator creates a calculator for a channel of the given
// width in metres.
func NewRectangularCalculator(width float64) (*RectangularCalculator, error) {
	if math.IsNaN(width) {
		return nil, errors.New(errors.CodeInvalidDescriptor, "channel width invalid")
	}
	return &RectangularCalculator{width: width}, nil
}

// Flow implements Calculator.
func (c *RectangularCalculator) Flow(depth, velocity float64) float64 {
	return math.Max(depth*velocity*c.width*1000, 0)
}

// TwoCircleRectCalculator computes flow through a conduit made of two
// half-circles joined by a rectangle (width is the circle diameter).
type TwoCircleRectCalculator struct {
	height float64
	width  float64
}

// NewTwoCircleRectCalculator creates the calculator; dimensions in metres.
func NewTwoCircleRectCalculator(width, height float64) (*TwoCircleRectCalculator, error) {
	if math.IsNaN(width) || math.IsNaN(height) || width <= 0 || height <= 0 {
		return nil, errors.New(errors.CodeInvalidDescriptor, "invalid width or height")
	}
	return &TwoCircleRectCalculator{height: height, width: width}, nil
}

// Flow implements Calculator.
func (c *TwoCircleRectCalculator) Flow(depth, velocity float64) float64 {
	r1 := c.width / 2
	circleArea := math.Pi * r1 * r1

	var area float64
	switch {
	case depth < r1:
		if depth <= 0 {
			return 0
		}
		area = segmentArea(r1, depth)
	case depth < c.height-r1:
		area = circleArea/2 + (depth-r1)*c.width
	case depth < c.height:
		d := depth - c.width/2 - (c.height - c.width)
		topHalf := circleArea/2 - segmentArea(r1, r1-d)
		area = circleArea/2 + (c.height-c.width)*c.width + topHalf
	default:
		area = circleArea + (c.height-c.width)*c.width
	}
	return area * velocity * 1000
}
