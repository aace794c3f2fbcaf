// Package tabular reads and writes header-keyed tables in CSV and XLSX form.
//
// Readers turn a file into rows keyed by the header text exactly as written;
// matching headers to fields is left to the caller.
package tabular

import (
	"errors"
	"fmt"
	"strings"
)

// Format is a supported file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type used when serving the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// ParseFormat accepts a format name or a file name; empty means CSV
func ParseFormat(raw string) (Format, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	switch s {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
}

var (
	// ErrEmptyFile is returned when the input holds no bytes
	ErrEmptyFile = errors.New("file is empty")

	// ErrInvalidEncoding is returned when CSV input is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the file has no header row
	ErrMissingHeader = errors.New("file missing header row")

	// ErrTooManyRows is returned when the data rows exceed the configured limit
	ErrTooManyRows = errors.New("file exceeds maximum row count")

	// ErrUnsupportedFormat is returned for unknown formats
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Row is one data row keyed by header
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the value under header, or "" when the column is absent
func (r Row) Get(header string) string {
	return r.Values[header]
}

// IsEmpty reports whether every cell is blank
func (r Row) IsEmpty() bool {
	for _, v := range r.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Table is a parsed file. Blank rows are dropped.
type Table struct {
	Headers []string
	Rows    []Row
}

// Maps returns the rows as plain maps
func (t *Table) Maps() []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values
	}
	return out
}

// Option configures a reader
type Option func(*options)

type options struct {
	delimiter rune
	maxRows   int
	sheet     string
}

func newOptions(opts []Option) options {
	o := options{delimiter: ','}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithDelimiter sets the CSV field delimiter (default is comma)
func WithDelimiter(d rune) Option {
	return func(o *options) { o.delimiter = d }
}

// WithMaxRows limits the number of non-blank data rows; 0 disables the limit
func WithMaxRows(n int) Option {
	return func(o *options) { o.maxRows = n }
}

// WithSheet selects the XLSX sheet to read; the first sheet is used by default
func WithSheet(name string) Option {
	return func(o *options) { o.sheet = name }
}

// builder assembles a Table row by row
type builder struct {
	table   Table
	maxRows int
}

func newBuilder(header []string, maxRows int) (*builder, error) {
	headers := make([]string, len(header))
	blank := true
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
		if headers[i] != "" {
			blank = false
		}
	}
	if blank {
		return nil, ErrMissingHeader
	}
	return &builder{table: Table{Headers: headers}, maxRows: maxRows}, nil
}

func (b *builder) add(line int, record []string) error {
	row := Row{Line: line, Values: make(map[string]string, len(b.table.Headers))}
	for i, h := range b.table.Headers {
		if h == "" {
			continue
		}
		if i < len(record) {
			row.Values[h] = strings.TrimSpace(record[i])
		} else {
			row.Values[h] = ""
		}
	}
	if row.IsEmpty() {
		return nil
	}
	if b.maxRows > 0 && len(b.table.Rows) >= b.maxRows {
		return fmt.Errorf("%w (%d)", ErrTooManyRows, b.maxRows)
	}
	b.table.Rows = append(b.table.Rows, row)
	return nil
}
