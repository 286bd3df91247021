package parser

import (
	"context"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/errors"
)

// ReadXLSX reads the first sheet of an Excel export into a raw table,
// using the streaming row reader so large captures stay off the heap.
func ReadXLSX(ctx context.Context, path string) (*model.RawTable, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.FileNotFound(path)
	}

	xl, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReadFailed, "failed to open xlsx").
			WithContext("path", path)
	}
	defer xl.Close()

	sheet := xl.GetSheetName(0)
	if sheet == "" {
		list := xl.GetSheetList()
		if len(list) == 0 {
			return nil, errors.New(errors.CodeEmptyOrMalformed, "no sheets in xlsx file").
				WithContext("path", path)
		}
		sheet = list[0]
	}

	rows, err := xl.Rows(sheet)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReadFailed, "failed to read rows").
			WithContext("path", path)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, errors.New(errors.CodeEmptyOrMalformed, "xlsx file is empty").
			WithContext("path", path)
	}
	headers, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeEmptyOrMalformed, "failed to read header row").
			WithContext("path", path)
	}

	var data [][]string
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		cols, err := rows.Columns()
		if err != nil {
			continue // skip malformed rows
		}
		if len(cols) == 0 {
			continue
		}
		// Pad short rows so downstream indexing stays in bounds.
		for len(cols) < len(headers) {
			cols = append(cols, "")
		}
		data = append(data, cols)
	}

	if len(data) == 0 {
		return nil, errors.New(errors.CodeEmptyOrMalformed, "xlsx file has no data rows").
			WithContext("path", path)
	}

	return &model.RawTable{Path: path, Headers: headers, Rows: data}, nil
}
