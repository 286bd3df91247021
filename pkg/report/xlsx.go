package report

import (
	"github.com/xuri/excelize/v2"

	"github.com/hydroflow/hydroflow/pkg/errors"
)

// WriteWorkbook renders tables into an xlsx workbook, one sheet per table.
func WriteWorkbook(path string, tables ...Table) error {
	if len(tables) == 0 {
		return errors.New(errors.CodeEmptyOrMalformed, "no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, table := range tables {
		sheet := table.Title
		if sheet == "" {
			sheet = "Sheet1"
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return errors.Wrap(err, errors.CodeWriteFailed, "name report sheet")
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrap(err, errors.CodeWriteFailed, "add report sheet")
		}

		for col, h := range table.Headers {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return errors.Wrap(err, errors.CodeWriteFailed, "resolve header cell")
			}
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return errors.Wrap(err, errors.CodeWriteFailed, "write header cell")
			}
		}
		for row, values := range table.Rows {
			for col, v := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row+2)
				if err != nil {
					return errors.Wrap(err, errors.CodeWriteFailed, "resolve data cell")
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return errors.Wrap(err, errors.CodeWriteFailed, "write data cell")
				}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "save report workbook").
			WithContext("path", path)
	}
	return nil
}

// WriteReport writes an interim report workbook (weekly + daily sheets).
func WriteReport(path string, r *Report) error {
	return WriteWorkbook(path, r.Weekly, r.Daily)
}
