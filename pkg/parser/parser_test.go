package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hydroflow/hydroflow/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, "1001.csv",
		"Timestamp,1001_1|Depth|mm,1001_1|Velocity|m/s\n"+
			"01/06/2024 00:00,100,0.5\n"+
			"01/06/2024 00:02,110,0.6\n")

	raw, err := Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(raw.Headers) != 3 {
		t.Errorf("headers = %v", raw.Headers)
	}
	if len(raw.Rows) != 2 {
		t.Errorf("got %d rows, want 2", len(raw.Rows))
	}
	if raw.Rows[0][1] != "100" {
		t.Errorf("rows[0][1] = %q", raw.Rows[0][1])
	}
	if raw.Path != path {
		t.Errorf("path = %q", raw.Path)
	}
}

func TestReadCSVRaggedRows(t *testing.T) {
	path := writeFile(t, "ragged.csv",
		"Timestamp,Depth,Velocity\n"+
			"01/06/2024 00:00,100,0.5\n"+
			"01/06/2024 00:02,110\n")

	raw, err := Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(raw.Rows) != 2 || len(raw.Rows[1]) != 2 {
		t.Errorf("rows = %v", raw.Rows)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	if !errors.IsCode(err, errors.CodeFileNotFound) {
		t.Errorf("error = %v, want %s", err, errors.CodeFileNotFound)
	}
}

func TestReadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "export.txt", "Timestamp,Depth\n")
	_, err := Read(context.Background(), path)
	if !errors.IsCode(err, errors.CodeUnsupportedFormat) {
		t.Errorf("error = %v, want %s", err, errors.CodeUnsupportedFormat)
	}
}

func TestReadCSVNoDataRows(t *testing.T) {
	path := writeFile(t, "headeronly.csv", "Timestamp,Depth\n")
	_, err := Read(context.Background(), path)
	if !errors.IsCode(err, errors.CodeEmptyOrMalformed) {
		t.Errorf("error = %v, want %s", err, errors.CodeEmptyOrMalformed)
	}
}

func TestReadCSVEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")
	_, err := Read(context.Background(), path)
	if !errors.IsCode(err, errors.CodeEmptyOrMalformed) {
		t.Errorf("error = %v, want %s", err, errors.CodeEmptyOrMalformed)
	}
}

func TestReadCSVHonorsContext(t *testing.T) {
	path := writeFile(t, "1001.csv",
		"Timestamp,Depth\n01/06/2024 00:00,100\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Read(ctx, path); err == nil {
		t.Error("cancelled context not honored")
	}
}
