package parser

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/hydroflow/hydroflow/internal/model"
	"github.com/hydroflow/hydroflow/pkg/errors"
)

// ReadCSV reads a CSV export into a raw table. Ragged rows are tolerated:
// field counts are not enforced because logger exports frequently truncate
// trailing empty cells.
func ReadCSV(ctx context.Context, path string) (*model.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound(path)
		}
		return nil, errors.Wrap(err, errors.CodeReadFailed, "failed to open csv").
			WithContext("path", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeEmptyOrMalformed, "csv has no header row").
			WithContext("path", path)
	}

	var rows [][]string
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeEmptyOrMalformed, "csv read failed").
				WithContext("path", path)
		}
		rows = append(rows, record)
	}

	if len(rows) == 0 {
		return nil, errors.New(errors.CodeEmptyOrMalformed, "csv file has no data rows").
			WithContext("path", path)
	}

	return &model.RawTable{Path: path, Headers: headers, Rows: rows}, nil
}
