package export

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// sheetName is the worksheet that receives XLSX exports.
const sheetName = "Results"

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unsupported export format %q", name))
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string { return "." + string(f) }

// ContentType returns the MIME type stored with the object.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Encode renders rows in format f. Columns fixes the field order for CSV
// and XLSX; JSON objects follow each row's own column order.
func Encode(f Format, columns []string, rows []database.Row) ([]byte, error) {
	switch f {
	case FormatJSON:
		return encodeJSON(rows)
	case FormatCSV:
		return encodeCSV(columns, rows)
	case FormatXLSX:
		return encodeXLSX(columns, rows)
	default:
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unsupported export format %q", f))
	}
}

func encodeJSON(rows []database.Row) ([]byte, error) {
	if rows == nil {
		rows = []database.Row{}
	}
	out, err := json.Marshal(rows)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindUnknown, "encode json", err)
	}
	return out, nil
}

func encodeCSV(columns []string, rows []database.Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, errs.Wrap(errs.ErrKindUnknown, "encode csv", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = cellText(row, col)
		}
		if err := w.Write(record); err != nil {
			return nil, errs.Wrap(errs.ErrKindUnknown, "encode csv", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errs.Wrap(errs.ErrKindUnknown, "encode csv", err)
	}
	return buf.Bytes(), nil
}

func encodeXLSX(columns []string, rows []database.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, errs.Wrap(errs.ErrKindUnknown, "encode xlsx", err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return nil, errs.Wrap(errs.ErrKindUnknown, "encode xlsx", err)
		}
	}
	for r, row := range rows {
		for c, col := range columns {
			v, ok := row.Get(col)
			if !ok || v.IsNull() {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, cellValue(v)); err != nil {
				return nil, errs.Wrap(errs.ErrKindUnknown, "encode xlsx", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindUnknown, "encode xlsx", err)
	}
	return buf.Bytes(), nil
}

// cellText renders one CSV field; NULL becomes an empty field.
func cellText(row database.Row, col string) string {
	v, ok := row.Get(col)
	if !ok || v.IsNull() {
		return ""
	}
	if v.Kind() == database.KindBytes {
		return base64.StdEncoding.EncodeToString(v.RawBytes())
	}
	return v.String()
}

func cellValue(v database.Value) any {
	if v.Kind() == database.KindBytes {
		return base64.StdEncoding.EncodeToString(v.RawBytes())
	}
	return v.Interface()
}
