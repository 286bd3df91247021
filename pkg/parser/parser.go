// Package parser reads field-logger exports (CSV or XLSX) into raw
// string tables. Classification of the columns happens downstream in
// pkg/classify; this package only gets bytes off disk.
package parser

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/errors"
)

// Read loads a logger export, dispatching on the file extension.
func Read(ctx context.Context, path string) (*model.RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(ctx, path)
	case ".xlsx":
		return ReadXLSX(ctx, path)
	default:
		return nil, errors.New(errors.CodeUnsupportedFormat, "unsupported file format").
			WithContext("path", path).
			WithContext("extension", filepath.Ext(path))
	}
}
