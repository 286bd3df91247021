package fdv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/errors"
)

func rainfallOpts(frame *model.Frame) RainfallOptions {
	return RainfallOptions{
		SiteName:       "RainGauge",
		Start:          frame.Timestamps[0],
		End:            frame.Timestamps[frame.Len()-1],
		Interval:       2 * time.Minute,
		RainfallColumn: "rain",
	}
}

// rainfallRecords encodes the values and returns the record lines between
// *CEND and *END.
func rainfallRecords(t *testing.T, values []float64) []string {
	t.Helper()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	frame := testFrame(t, start, 2*time.Minute, map[string][]float64{"rain": values})

	var sb strings.Builder
	if err := EncodeRainfall(&sb, frame, rainfallOpts(frame)); err != nil {
		t.Fatalf("EncodeRainfall: %v", err)
	}
	lines := strings.Split(sb.String(), "\n")

	cend, end := -1, -1
	for i, line := range lines {
		switch line {
		case "*CEND":
			cend = i
		case "*END":
			end = i
		}
	}
	if cend < 0 || end < 0 {
		t.Fatalf("output missing *CEND/*END:\n%s", sb.String())
	}
	return lines[cend+1 : end]
}

func TestEncodeRainfallHeader(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	frame := testFrame(t, start, 2*time.Minute, map[string][]float64{"rain": {1, 2, 0}})

	var sb strings.Builder
	if err := EncodeRainfall(&sb, frame, rainfallOpts(frame)); err != nil {
		t.Fatalf("EncodeRainfall: %v", err)
	}
	lines := strings.Split(sb.String(), "\n")

	want := map[int]string{
		0:  "**DATA_FORMAT:           1,ASCII",
		1:  "**IDENTIFIER:            1,RAINGAUGE",
		2:  "**FIELD:                 1,INTENSITY",
		3:  "**UNITS:                 1,MM/HR",
		19: "*CSTART",
		20: "UNKNOWN              -1.0 ",
		21: "-1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 -1.0 ",
		23: "202406010000 202406010004   2",
		24: "*CEND",
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestEncodeRainfallPlainValues(t *testing.T) {
	records := rainfallRecords(t, []float64{1, 2, 0})
	if len(records) != 2 {
		t.Fatalf("record section = %q, want 2 lines", records)
	}
	if records[0] != "            1.0            2.0            0.0" {
		t.Errorf("records = %q", records[0])
	}
	if records[1] != "" {
		t.Errorf("padding line = %q, want empty", records[1])
	}
}

func TestEncodeRainfallBurstSpread(t *testing.T) {
	// An 8.0 spike after three dry samples exceeds the burst cap: the
	// dry run backfills at the cap rate (6.0 over three samples) and the
	// remainder stays on the spike sample.
	records := rainfallRecords(t, []float64{0, 0, 0, 8, 0})
	if len(records) != 2 || records[1] != "" {
		t.Fatalf("record section = %q, want 1 record line plus blank", records)
	}
	want := "            2.0            2.0            2.0            2.0            0.0"
	if records[0] != want {
		t.Errorf("records = %q, want %q", records[0], want)
	}
}

func TestEncodeRainfallSmallBurstDivides(t *testing.T) {
	// Below the cap the spike divides evenly across itself and the dry
	// run preceding it.
	records := rainfallRecords(t, []float64{0, 0, 3})
	want := "            1.0            1.0            1.0"
	if len(records) < 1 || records[0] != want {
		t.Errorf("records = %q, want first line %q", records, want)
	}
}

func TestEncodeRainfallSpreadStopsAtWetSample(t *testing.T) {
	// A wet sample fences the backward scan: only the dry samples after
	// it share the spike.
	records := rainfallRecords(t, []float64{5, 0, 4})
	want := "            5.0            2.0            2.0"
	if len(records) < 1 || records[0] != want {
		t.Errorf("records = %q, want first line %q", records, want)
	}
}

func TestEncodeRainfallLongSeriesWrapsAtFive(t *testing.T) {
	values := make([]float64, 12)
	for i := range values {
		values[i] = 1
	}
	records := rainfallRecords(t, values)
	// 12 records: two full lines of five, one line of two, then padding.
	if len(records) != 4 {
		t.Fatalf("record section has %d lines, want 4: %q", len(records), records)
	}
	if len(records[0]) != 75 || len(records[1]) != 75 {
		t.Errorf("full lines are %d and %d chars, want 75", len(records[0]), len(records[1]))
	}
	if len(records[2]) != 30 {
		t.Errorf("partial line is %d chars, want 30", len(records[2]))
	}
	if records[3] != "" {
		t.Errorf("padding line = %q, want empty", records[3])
	}
}

func TestEncodeRainfallExactMultipleOmitsPadding(t *testing.T) {
	records := rainfallRecords(t, []float64{1, 1, 1, 1, 1})
	if len(records) != 2 || records[1] != "" {
		t.Fatalf("record section = %q, want 1 record line plus blank", records)
	}
	if len(records[0]) != 75 {
		t.Errorf("record line is %d chars, want 75", len(records[0]))
	}
}

func TestEncodeRainfallValidation(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	frame := testFrame(t, start, 2*time.Minute, map[string][]float64{"rain": {1}})

	t.Run("no column configured", func(t *testing.T) {
		opts := rainfallOpts(frame)
		opts.RainfallColumn = ""
		err := EncodeRainfall(&strings.Builder{}, frame, opts)
		if !errors.IsCode(err, errors.CodeNoRainfallData) {
			t.Errorf("error = %v, want %s", err, errors.CodeNoRainfallData)
		}
	})

	t.Run("column not in frame", func(t *testing.T) {
		opts := rainfallOpts(frame)
		opts.RainfallColumn = "intensity"
		err := EncodeRainfall(&strings.Builder{}, frame, opts)
		if !errors.IsCode(err, errors.CodeNoRainfallData) {
			t.Errorf("error = %v, want %s", err, errors.CodeNoRainfallData)
		}
	})

	t.Run("empty frame", func(t *testing.T) {
		err := EncodeRainfall(&strings.Builder{}, nil, rainfallOpts(frame))
		if !errors.IsCode(err, errors.CodeEmptyOrMalformed) {
			t.Errorf("error = %v, want %s", err, errors.CodeEmptyOrMalformed)
		}
	})
}

func TestWriteRainfallAtomic(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	frame := testFrame(t, start, 2*time.Minute, map[string][]float64{"rain": {1, 2}})

	path := filepath.Join(dir, "gauge.r")
	if err := WriteRainfall(path, frame, rainfallOpts(frame)); err != nil {
		t.Fatalf("WriteRainfall: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "*END\n") {
		t.Errorf("output does not end with *END")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the output", len(entries))
	}
}
