package classify

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/diag"
	"github.com/hydroflow/hydroflow/pkg/errors"
)

func rawTable(path string, headers []string, rows [][]string) *model.RawTable {
	return &model.RawTable{Path: path, Headers: headers, Rows: rows}
}

func TestClassifyCombinationMonitor(t *testing.T) {
	raw := rawTable("export.csv",
		[]string{"Timestamp", "1001_1|Depth|mm", "1001_1|Velocity|m/s"},
		[][]string{
			{"01/06/2024 00:00", "100", "0.5"},
			{"01/06/2024 00:02", "110", "0.6"},
			{"01/06/2024 00:04", "120", "0.7"},
			{"01/06/2024 00:08", "140", "0.9"},
		})

	cf, err := New().Classify(context.Background(), raw)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if cf.MonitorType != model.MonitorCombination {
		t.Errorf("monitor = %s, want Combination", cf.MonitorType)
	}
	if cf.SampleInterval != 2*time.Minute {
		t.Errorf("interval = %v, want 2m", cf.SampleInterval)
	}
	if got := len(cf.Group(model.GroupDepth)); got != 1 {
		t.Errorf("depth group has %d channels, want 1", got)
	}
	if got := len(cf.Group(model.GroupVelocity)); got != 1 {
		t.Errorf("velocity group has %d channels, want 1", got)
	}

	// 00:00..00:08 at 2 minutes is five grid slots; 00:06 has no row.
	if cf.Frame.Len() != 5 {
		t.Errorf("grid has %d slots, want 5", cf.Frame.Len())
	}
	if cf.GapsFilled != 1 {
		t.Errorf("gaps filled = %d, want 1", cf.GapsFilled)
	}
	depth, ok := cf.Frame.Column("1001_1|Depth|mm")
	if !ok {
		t.Fatal("depth column missing from frame")
	}
	if depth[0] != 100 || depth[2] != 120 || depth[4] != 140 {
		t.Errorf("depth values = %v", depth)
	}
	if !math.IsNaN(depth[3]) {
		t.Errorf("gap slot = %v, want NaN", depth[3])
	}

	// Path gives no identity; the header qualifier does.
	if cf.SiteID != "1001" || cf.SiteName != "1001" {
		t.Errorf("site = %q/%q, want 1001/1001", cf.SiteID, cf.SiteName)
	}
	if !cf.StartTimestamp.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", cf.StartTimestamp)
	}
	if !cf.EndTimestamp.Equal(time.Date(2024, 6, 1, 0, 8, 0, 0, time.UTC)) {
		t.Errorf("end = %v", cf.EndTimestamp)
	}
}

func TestClassifySiteFromFilename(t *testing.T) {
	rows := [][]string{
		{"01/06/2024 00:00", "1.0"},
		{"01/06/2024 00:15", "1.2"},
		{"01/06/2024 00:30", "1.4"},
	}

	tests := []struct {
		path     string
		wantID   string
		wantName string
	}{
		{"FM01.csv", "FM01", "FM01"},
		{"/data/exports/FM01.csv", "FM01", "FM01"},
		{"7001.csv", "7001", "7001"},
		{"weekly export.csv", "Unknown", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			raw := rawTable(tt.path, []string{"Timestamp", "Depth (m)"}, rows)
			cf, err := New().Classify(context.Background(), raw)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if cf.SiteID != tt.wantID || cf.SiteName != tt.wantName {
				t.Errorf("site = %q/%q, want %q/%q", cf.SiteID, cf.SiteName, tt.wantID, tt.wantName)
			}
		})
	}
}

func TestClassifySiteQualifierIsStable(t *testing.T) {
	// Two groups carrying different qualifiers must resolve the same way
	// every run: depth wins over velocity.
	rows := [][]string{
		{"01/06/2024 00:00", "100", "0.5"},
		{"01/06/2024 00:02", "110", "0.6"},
		{"01/06/2024 00:04", "120", "0.7"},
	}
	for i := 0; i < 100; i++ {
		raw := rawTable("weekly export.csv",
			[]string{"Timestamp", "1111_1|Depth|mm", "2222_1|Velocity|m/s"}, rows)
		cf, err := New().Classify(context.Background(), raw)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if cf.SiteID != "1111" {
			t.Fatalf("run %d: site id = %q, want 1111", i, cf.SiteID)
		}
	}
}

func TestClassifyRainfallMonitor(t *testing.T) {
	raw := rawTable("gauge.csv",
		[]string{"Timestamp", "7001_1|Rainfall|mm"},
		[][]string{
			{"01/06/2024 00:00", "0.0"},
			{"01/06/2024 00:02", "1.2"},
			{"01/06/2024 00:04", "0.4"},
		})

	cf, err := New().Classify(context.Background(), raw)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cf.MonitorType != model.MonitorRainfall {
		t.Errorf("monitor = %s, want Rainfall", cf.MonitorType)
	}
	if got := cf.Group(model.GroupRainfall); len(got) != 1 || got[0].Unit != "mm" {
		t.Errorf("rainfall group = %+v", got)
	}
}

func TestClassifyExcelSerialTimestamps(t *testing.T) {
	// 45444 is 2024-06-01 in the 1900 date system.
	raw := rawTable("export.csv",
		[]string{"Date/Time", "Depth (m)"},
		[][]string{
			{"45444.0", "1.0"},
			{"45444.25", "1.1"},
			{"45444.5", "1.2"},
		})

	cf, err := New().Classify(context.Background(), raw)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !cf.StartTimestamp.Equal(want) {
		t.Errorf("start = %v, want %v", cf.StartTimestamp, want)
	}
	if cf.SampleInterval != 6*time.Hour {
		t.Errorf("interval = %v, want 6h", cf.SampleInterval)
	}
}

func TestClassifyRejectsBadInput(t *testing.T) {
	rows := [][]string{
		{"01/06/2024 00:00", "1.0"},
		{"01/06/2024 00:02", "1.1"},
	}

	tests := []struct {
		name string
		raw  *model.RawTable
		code errors.Code
	}{
		{"nil table", nil, errors.CodeEmptyOrMalformed},
		{"no rows", rawTable("a.csv", []string{"Timestamp", "Depth"}, nil), errors.CodeEmptyOrMalformed},
		{"no timestamp header", rawTable("a.csv", []string{"Index", "Depth"}, rows), errors.CodeTimestampColumn},
		{"unparseable timestamps", rawTable("a.csv", []string{"Timestamp", "Depth"}, [][]string{
			{"first", "1.0"}, {"second", "1.1"},
		}), errors.CodeTimestampFormat},
		{"duplicate headers", rawTable("a.csv", []string{"Timestamp", "Depth (m)", "Depth (m)"}, [][]string{
			{"01/06/2024 00:00", "1.0", "1.0"},
			{"01/06/2024 00:02", "1.1", "1.1"},
		}), errors.CodeAmbiguousColumns},
		{"no dominant interval", rawTable("a.csv", []string{"Timestamp", "Depth (m)"}, [][]string{
			{"01/06/2024 00:00", "1.0"},
			{"01/06/2024 00:01", "1.1"},
			{"01/06/2024 00:03", "1.2"},
			{"01/06/2024 00:06", "1.3"},
			{"01/06/2024 00:10", "1.4"},
		}), errors.CodeInconsistentInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Classify(context.Background(), tt.raw)
			if !errors.IsCode(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestClassifySkipsUnparseableRows(t *testing.T) {
	ch := diag.NewChannel(0)
	raw := rawTable("a.csv",
		[]string{"Timestamp", "Depth (m)"},
		[][]string{
			{"01/06/2024 00:00", "1.0"},
			{"garbage", "9.9"},
			{"01/06/2024 00:02", "1.1"},
			{"01/06/2024 00:04", "1.2"},
		})

	cf, err := New(WithDiagnostics(ch)).Classify(context.Background(), raw)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cf.Frame.Len() != 3 {
		t.Errorf("grid has %d slots, want 3", cf.Frame.Len())
	}

	warned := false
	for _, ev := range ch.Drain() {
		if ev.Level == diag.LevelWarn {
			warned = true
		}
	}
	if !warned {
		t.Error("skipped rows produced no warning")
	}
}

func TestClassifyHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raw := rawTable("a.csv",
		[]string{"Timestamp", "Depth (m)"},
		[][]string{
			{"01/06/2024 00:00", "1.0"},
			{"01/06/2024 00:02", "1.1"},
		})
	if _, err := New().Classify(ctx, raw); err == nil {
		t.Error("cancelled context not honored")
	}
}

func TestMatchRules(t *testing.T) {
	tests := []struct {
		header    string
		wantGroup model.ChannelGroup
		wantSite  string
		wantUnit  string
	}{
		{"1001_1|Depth|mm", model.GroupDepth, "1001", "mm"},
		{"1001_1|Level|m", model.GroupDepth, "1001", "m"},
		{"1001_1|Velocity|m/s", model.GroupVelocity, "1001", "m/s"},
		{"1001_1|Flow|l/s", model.GroupFlow, "1001", "l/s"},
		{"7001_1|Rainfall|mm", model.GroupRainfall, "7001", "mm"},
		{"Depth (m)", model.GroupDepth, "", "m"},
		{"Rainfall Intensity", model.GroupRainfall, "", ""},
		{"Battery Voltage", model.GroupUnclassified, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			group, site, unit := Match(DefaultRules, tt.header)
			if group != tt.wantGroup || site != tt.wantSite || unit != tt.wantUnit {
				t.Errorf("Match(%q) = %s/%q/%q, want %s/%q/%q",
					tt.header, group, site, unit, tt.wantGroup, tt.wantSite, tt.wantUnit)
			}
		})
	}
}

func TestModeIntervalTieBreaksSmaller(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	// Deltas: 2m, 2m, 5m, 5m. Each candidate covers exactly half, and
	// the tie resolves to the smaller interval.
	stamps := []time.Time{
		base,
		base.Add(2 * time.Minute),
		base.Add(4 * time.Minute),
		base.Add(9 * time.Minute),
		base.Add(14 * time.Minute),
	}
	interval, err := modeInterval(stamps)
	if err != nil {
		t.Fatalf("modeInterval: %v", err)
	}
	if interval != 2*time.Minute {
		t.Errorf("interval = %v, want 2m", interval)
	}
}
