// Package csvcodec encodes and decodes the follower CSV exchanged between
// the run server and its callers.
//
// The scanner is written by hand rather than on encoding/csv: the wire
// format joins rows with a bare "\n", must accept rows shorter than the
// header, and must treat stray quotes the same way the browser exporter
// did. encoding/csv rejects or rewrites all three cases.
package csvcodec

import (
	"strings"
)

// Record is one decoded row keyed by header column name
type Record map[string]string

// EscapeField quotes value when it contains a comma, a double quote or a
// newline, doubling embedded quotes.
func EscapeField(value string) string {
	if strings.ContainsAny(value, ",\"\n\r") {
		return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
	}
	return value
}

// EncodeRow joins escaped fields with commas. A row made of one empty
// field is written as "" so it does not read back as a blank line.
func EncodeRow(fields []string) string {
	if len(fields) == 1 && fields[0] == "" {
		return `""`
	}
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = EscapeField(f)
	}
	return strings.Join(escaped, ",")
}

// Encode renders header and rows as a CSV document with "\n" row endings
// and no trailing newline.
func Encode(header []string, rows [][]string) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, EncodeRow(header))
	for _, row := range rows {
		lines = append(lines, EncodeRow(row))
	}
	return strings.Join(lines, "\n")
}

// Parse splits text into rows of raw cells. A quote inside a quoted cell
// followed by another quote is a literal quote; commas and newlines inside
// quotes are literal. A "\r" directly before a row-ending "\n" is dropped.
// Empty lines produce no row.
func Parse(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
		touched  bool
	)

	endCell := func() {
		row = append(row, cell.String())
		cell.Reset()
	}
	endRow := func() {
		if touched || len(row) > 0 {
			endCell()
			rows = append(rows, row)
		}
		row = nil
		touched = false
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inQuotes {
			if ch == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					cell.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
				continue
			}
			cell.WriteByte(ch)
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
			touched = true
		case ',':
			endCell()
			touched = true
		case '\n':
			endRow()
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				continue
			}
			cell.WriteByte(ch)
			touched = true
		default:
			cell.WriteByte(ch)
			touched = true
		}
	}
	endRow()

	return rows
}

// Decode parses text and maps every row after the header to a Record.
// Missing trailing cells default to the empty string; cells beyond the
// header width are dropped.
func Decode(text string) ([]string, []Record) {
	rows := Parse(text)
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}
	return header, records
}
