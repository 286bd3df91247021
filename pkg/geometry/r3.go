package geometry

import "math"

// Solver tuning. The iteration and its constants are fixed: downstream
// tools were calibrated against these exact values.
const (
	r3MaxIterations = 1000
	r3Precision     = 1e-5
)

// FailureReason distinguishes why the R3 iteration failed. The public
// sentinel conflates the two cases, so callers that care inspect the
// structured result from Solve instead.
type FailureReason int

const (
	FailureNone FailureReason = iota
	// FailureDomain means the square term went negative (or the inputs
	// were degenerate): the geometry has no R3.
	FailureDomain
	// FailureNoConvergence means 1000 iterations did not get the
	// residual under precision.
	FailureNoConvergence
)

func (r FailureReason) String() string {
	switch r {
	case FailureDomain:
		return "domain error"
	case FailureNoConvergence:
		return "did not converge"
	default:
		return "none"
	}
}

// R3Result is the structured outcome of the R3 iteration.
type R3Result struct {
	Value      float64
	Iterations int
	Reason     FailureReason
}

// OK reports whether the iteration converged.
func (r R3Result) OK() bool { return r.Reason == FailureNone }

// Solve runs the fixed-point iteration for the large flank radius R3 of an
// egg-shaped conduit. eggForm 1 selects the type-1 bottom radius
// (height-width)/2; every other value selects (height-width)/4.
func Solve(width, height float64, eggForm int) R3Result {
	if width <= 0 || height <= 0 {
		return R3Result{Value: -1, Reason: FailureDomain}
	}

	r2 := width / 2
	var r1 float64
	if eggForm == 1 {
		r1 = (height - width) / 2
	} else {
		r1 = (height - width) / 4
	}
	h2 := height - r2
	r3 := height // initial guess

	for i := 1; i <= r3MaxIterations; i++ {
		offset := r3 - r2
		squareTerm := (r3-r1)*(r3-r1) - (h2-r1)*(h2-r1)
		if squareTerm < 0 {
			return R3Result{Value: -1, Iterations: i, Reason: FailureDomain}
		}
		offsetA := math.Sqrt(squareTerm)
		diff := offset - offsetA
		r3 += diff / 10
		if math.Abs(diff) < r3Precision {
			return R3Result{Value: r3, Iterations: i}
		}
	}
	return R3Result{Value: -1, Iterations: r3MaxIterations, Reason: FailureNoConvergence}
}

// SolveR3 is the compatibility wrapper: it returns the converged R3 value,
// or -1 for both domain errors and non-convergence.
func SolveR3(width, height float64, eggForm int) float64 {
	return Solve(width, height, eggForm).Value
}
