package tabular

import (
	"fmt"
	"io"
)

// Read parses r in the given format
func Read(format Format, r io.Reader, opts ...Option) (*Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r, opts...)
	case FormatXLSX:
		return ReadXLSX(r, opts...)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Write serializes header and records in the given format.
// sheet only applies to XLSX.
func Write(format Format, w io.Writer, sheet string, header []string, records [][]string) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, header, records)
	case FormatXLSX:
		return WriteXLSX(w, sheet, header, records)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
