package fdv

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/diag"
	"github.com/hydroflow/hydroflow/pkg/errors"
	"github.com/hydroflow/hydroflow/pkg/geometry"
)

// flowHeader is the fixed header block of a flow FDV. Index 1 (identifier)
// and index 11 (pipe diameter constant) are rewritten per export.
var flowHeader = []string{
	"**DATA_FORMAT:           1,ASCII",
	"**IDENTIFIER:            1,UNKNOWN",
	"**FIELD:                 3,FLOW,DEPTH,VELOCITY",
	"**UNITS:                 3,L/S,MM,M/S",
	"**FORMAT:                3,2I5,F5,[5]",
	"**RECORD_LENGTH:         I2,75",
	"**CONSTANTS:             6,HEIGHT,MIN_VEL,MANHOLE_NO,",
	"*+START,END,INTERVAL",
	"**C_UNITS:               6,MM,M/S,,GMT,GMT,MIN",
	"**C_FORMAT:              10,I5,1X,F5,1X,A20/D10,1X,D10,1X,I2",
	"*CSTART",
	"  0.200 UNKNOWN",
}

const (
	flowIdentifierIndex = 1
	flowPipeDiaIndex    = 11
)

// FlowOptions configures one flow export.
type FlowOptions struct {
	SiteName string
	Start    time.Time
	End      time.Time
	Interval time.Duration

	// DepthColumn and VelocityColumn name the frame columns feeding the
	// export. A missing column is substituted with zeros and reported to
	// Diagnostics, matching how field exports with a dead sensor are
	// handled.
	DepthColumn    string
	VelocityColumn string

	Geometry geometry.Descriptor

	Diagnostics *diag.Channel
}

func (o *FlowOptions) validate(frame *model.Frame) error {
	if frame == nil || frame.Len() == 0 {
		return errors.New(errors.CodeEmptyOrMalformed, "no samples to encode")
	}
	if o.Start.IsZero() || o.End.IsZero() {
		return errors.New(errors.CodeInvalidRange, "export window not set")
	}
	if o.Interval <= 0 {
		return errors.New(errors.CodeInvalidRange, "sample interval not set")
	}
	if o.Geometry == nil {
		return errors.New(errors.CodeInvalidDescriptor, "pipe geometry not set")
	}
	return nil
}

// EncodeFlow writes a complete flow FDV to w. Depth values are assumed to
// be metres unless the depth column name marks them as millimetres; depth
// is always emitted in millimetres, flow in litres per second.
func EncodeFlow(w io.Writer, frame *model.Frame, opts FlowOptions) error {
	if err := opts.validate(frame); err != nil {
		return err
	}
	ch := opts.Diagnostics
	if ch == nil {
		ch = diag.NewChannel(0)
	}

	calc, err := opts.Geometry.Calculator()
	if err != nil {
		return err
	}

	depth, depthNulls := columnOrZeros(frame, opts.DepthColumn, ch)
	velocity, velocityNulls := columnOrZeros(frame, opts.VelocityColumn, ch)

	// Loggers that report depth in millimetres name the column so; level
	// sensors report metres even when the unit tag says mm.
	depthInMM := strings.Contains(opts.DepthColumn, "mm") &&
		!strings.Contains(strings.ToLower(opts.DepthColumn), "level")

	if err := writeFlowHeader(w, opts); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "write flow header")
	}

	valueCount := 1
	for i := range depth {
		d, v := depth[i], velocity[i]
		if depthInMM {
			d /= 1000
		}
		flow := 0.0
		if d != 0 && v != 0 {
			flow = calc.Flow(d, v)
		}
		if _, err := fmt.Fprintf(w, "%5.0f%5.0f%5.2f", flow, math.Round(d*1000), v); err != nil {
			return errors.Wrap(err, errors.CodeWriteFailed, "write flow record")
		}
		if valueCount%5 == 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return errors.Wrap(err, errors.CodeWriteFailed, "write flow record")
			}
		}
		valueCount++
	}
	if valueCount%5 != 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return errors.Wrap(err, errors.CodeWriteFailed, "write flow record")
		}
	}
	if _, err := fmt.Fprintln(w, "\n*END"); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "write flow tail")
	}

	ch.Infof("flow export complete: %d samples, null readings depth=%d velocity=%d",
		frame.Len(), depthNulls, velocityNulls)
	return nil
}

// WriteFlow encodes a flow FDV atomically at path.
func WriteFlow(path string, frame *model.Frame, opts FlowOptions) error {
	return writeAtomic(path, func(w io.Writer) error {
		return EncodeFlow(w, frame, opts)
	})
}

func writeFlowHeader(w io.Writer, opts FlowOptions) error {
	header := append([]string(nil), flowHeader...)
	header[flowIdentifierIndex] = identifierLine(opts.SiteName)
	header[flowPipeDiaIndex] = fmt.Sprintf("%7.3f UNKNOWN", opts.Geometry.PipeDiameter())

	for _, line := range header {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return writeConstantsTail(w, opts.Start, opts.End, opts.Interval)
}

// columnOrZeros fetches a frame column with NaN readings replaced by zero.
// A missing column yields all zeros plus an error-level diagnostic.
func columnOrZeros(frame *model.Frame, name string, ch *diag.Channel) ([]float64, int) {
	if name == "" {
		// Channel deliberately not selected (e.g. no velocity sensor).
		return make([]float64, frame.Len()), 0
	}
	values, ok := frame.Column(name)
	if !ok {
		ch.Errorf("column %q not found, using 0.0 for all values", name)
		return make([]float64, frame.Len()), 0
	}
	out := make([]float64, len(values))
	nulls := 0
	for i, v := range values {
		if math.IsNaN(v) {
			nulls++
			continue
		}
		out[i] = v
	}
	if nulls > 0 {
		ch.Warnf("column %q has %d null readings, substituted 0.0", name, nulls)
	}
	return out, nulls
}
