package fdv

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/diag"
	"github.com/hydroflow/hydroflow/pkg/errors"
)

// rainfallHeader is the fixed header block of a rainfall FDV, including the
// antecedent-rain constants, which this exporter always reports as unknown
// (-1.0). Index 1 is rewritten with the site identifier.
var rainfallHeader = []string{
	"**DATA_FORMAT:           1,ASCII",
	"**IDENTIFIER:            1,UNKNOWN",
	"**FIELD:                 1,INTENSITY",
	"**UNITS:                 1,MM/HR",
	"**FORMAT:                2,F15.1,[5]",
	"**RECORD_LENGTH:         I2,75",
	"**CONSTANTS:             35,LOCATION,0_ANT_RAIN,1_ANT_RAIN,2_ANT_RAIN,",
	"*+                       3_ANT_RAIN,4_ANT_RAIN,5_ANT_RAIN,6_ANT_RAIN,",
	"*+                       7_ANT_RAIN,8_ANT_RAIN,9_ANT_RAIN,10_ANT_RAIN,",
	"*+                       11_ANT_RAIN,12_ANT_RAIN,13_ANT_RAIN,14_ANT_RAIN,",
	"*+                       15_ANT_RAIN,16_ANT_RAIN,17_ANT_RAIN,18_ANT_RAIN,",
	"*+                       19_ANT_RAIN,20_ANT_RAIN,21_ANT_RAIN,22_ANT_RAIN,",
	"*+                       23_ANT_RAIN,24_ANT_RAIN,25_ANT_RAIN,26_ANT_RAIN,",
	"*+                       27_ANT_RAIN,28_ANT_RAIN,29_ANT_RAIN,30_ANT_RAIN,",
	"*+                       START,END,INTERVAL",
	"**C_UNITS:               35, ,MM,MM,MM,MM,MM,MM,MM,MM,MM,MM,",
	"**C_UNITS:               MM,MM,MM,MM,MM,MM,MM,MM,MM,MM,MM,",
	"**C_UNITS:               MM,MM,MM,MM,MM,MM,MM,MM,MM,MM,GMT,GMT,MIN",
	"**C_FORMAT:              8,A20,F7.2/15F5.1/15F5.1/D10,2X,D10,I4",
	"*CSTART",
	"UNKNOWN              -1.0 ",
	"-1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 ",
	"-1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 ",
}

const rainfallIdentifierIndex = 1

// rainBurstCap bounds how much intensity a single sample may carry before
// the excess is spread across preceding dry samples.
const rainBurstCap = 6.0

// RainfallOptions configures one rainfall export.
type RainfallOptions struct {
	SiteName string
	Start    time.Time
	End      time.Time
	Interval time.Duration

	RainfallColumn string

	Diagnostics *diag.Channel
}

func (o *RainfallOptions) validate(frame *model.Frame) error {
	if frame == nil || frame.Len() == 0 {
		return errors.New(errors.CodeEmptyOrMalformed, "no samples to encode")
	}
	if o.Start.IsZero() || o.End.IsZero() {
		return errors.New(errors.CodeInvalidRange, "export window not set")
	}
	if o.Interval <= 0 {
		return errors.New(errors.CodeInvalidRange, "sample interval not set")
	}
	if o.RainfallColumn == "" {
		return errors.New(errors.CodeNoRainfallData, "rainfall column not set")
	}
	return nil
}

// rainWriter owns the record stream of a rainfall FDV. Tip-bucket loggers
// ascribe a whole burst to the sample when the bucket tipped, so values are
// staged through a sliding buffer that lets a spike redistribute over up to
// four preceding dry samples before they reach the file.
type rainWriter struct {
	w          io.Writer
	buffer     []float64
	valueCount int
}

func (rw *rainWriter) insert(value float64) error {
	sample := value
	if sample > 1e-5 {
		count := 0
		offs := len(rw.buffer) - 1
		divisor := 1.0
		for offs >= 0 && count < 4 {
			if rw.buffer[offs] >= 1e-5 {
				break
			}
			divisor++
			count++
			offs--
		}
		offs++
		if count > 0 && sample > rainBurstCap {
			// Backfill the dry run at the cap rate and keep the
			// remainder on the sample itself.
			sample = rainBurstCap / (divisor - 1)
			for ; offs < len(rw.buffer); offs++ {
				rw.buffer[offs] = sample
			}
			sample = value - rainBurstCap
		} else {
			sample /= divisor
			for ; offs < len(rw.buffer); offs++ {
				rw.buffer[offs] = sample
			}
		}
	}
	rw.buffer = append(rw.buffer, sample)
	if len(rw.buffer) >= 10 {
		return rw.drain(10)
	}
	return nil
}

// drain writes buffered samples until at most keep remain. Samples already
// written are final; only buffered ones can still be reshaped by insert.
func (rw *rainWriter) drain(keep int) error {
	for len(rw.buffer) > keep {
		sample := rw.buffer[0]
		rw.buffer = rw.buffer[1:]
		if _, err := fmt.Fprintf(rw.w, "%15.1f", sample); err != nil {
			return err
		}
		if rw.valueCount%5 == 0 {
			if _, err := fmt.Fprintln(rw.w); err != nil {
				return err
			}
		}
		rw.valueCount++
	}
	return nil
}

// EncodeRainfall writes a complete rainfall FDV to w.
func EncodeRainfall(w io.Writer, frame *model.Frame, opts RainfallOptions) error {
	if err := opts.validate(frame); err != nil {
		return err
	}
	ch := opts.Diagnostics
	if ch == nil {
		ch = diag.NewChannel(0)
	}

	values, ok := frame.Column(opts.RainfallColumn)
	if !ok {
		return errors.New(errors.CodeNoRainfallData, "rainfall column not found").
			WithContext("column", opts.RainfallColumn)
	}

	if err := writeRainfallHeader(w, opts); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "write rainfall header")
	}

	rw := &rainWriter{w: w, valueCount: 1}
	nulls := 0
	for _, v := range values {
		if math.IsNaN(v) {
			nulls++
			v = 0
		}
		if err := rw.insert(v); err != nil {
			return errors.Wrap(err, errors.CodeWriteFailed, "write rainfall record")
		}
	}
	if err := rw.drain(0); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "write rainfall record")
	}

	if (rw.valueCount-1)%5 != 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return errors.Wrap(err, errors.CodeWriteFailed, "write rainfall tail")
		}
	}
	if _, err := fmt.Fprintln(w, "\n*END"); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "write rainfall tail")
	}

	if nulls > 0 {
		ch.Warnf("rainfall column %q has %d null readings, substituted 0.0", opts.RainfallColumn, nulls)
	}
	ch.Infof("rainfall export complete: %d samples", frame.Len())
	return nil
}

// WriteRainfall encodes a rainfall FDV atomically at path.
func WriteRainfall(path string, frame *model.Frame, opts RainfallOptions) error {
	return writeAtomic(path, func(w io.Writer) error {
		return EncodeRainfall(w, frame, opts)
	})
}

func writeRainfallHeader(w io.Writer, opts RainfallOptions) error {
	header := append([]string(nil), rainfallHeader...)
	header[rainfallIdentifierIndex] = identifierLine(opts.SiteName)

	for _, line := range header {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return writeConstantsTail(w, opts.Start, opts.End, opts.Interval)
}
