package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"invoices.XLSX", FormatXLSX, false},
		{"report.csv", FormatCSV, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadCSV(t *testing.T) {
	t.Run("maps rows to headers and skips blank rows", func(t *testing.T) {
		input := "Customer, Amount ,Status\nAcme,1000,Sent\n,,\n  Globex ,250.5\n"
		table, err := ReadCSV(strings.NewReader(input))
		require.NoError(t, err)

		assert.Equal(t, []string{"Customer", "Amount", "Status"}, table.Headers)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "Acme", table.Rows[0].Get("Customer"))
		assert.Equal(t, 2, table.Rows[0].Line)
		assert.Equal(t, "Globex", table.Rows[1].Get("Customer"))
		assert.Equal(t, "", table.Rows[1].Get("Status"))
		assert.Equal(t, 4, table.Rows[1].Line)
	})

	t.Run("strips UTF-8 BOM", func(t *testing.T) {
		table, err := ReadCSV(strings.NewReader("\xEF\xBB\xBFTitle,Amount\nTaxi,12"))
		require.NoError(t, err)
		assert.Equal(t, "Title", table.Headers[0])
		assert.Equal(t, "Taxi", table.Rows[0].Get("Title"))
	})

	t.Run("quoted fields keep commas", func(t *testing.T) {
		table, err := ReadCSV(strings.NewReader("Customer,Amount\n\"Acme, Inc.\",\"1,000.00\""))
		require.NoError(t, err)
		assert.Equal(t, "Acme, Inc.", table.Rows[0].Get("Customer"))
		assert.Equal(t, "1,000.00", table.Rows[0].Get("Amount"))
	})

	t.Run("custom delimiter", func(t *testing.T) {
		table, err := ReadCSV(strings.NewReader("a;b\n1;2"), WithDelimiter(';'))
		require.NoError(t, err)
		assert.Equal(t, "2", table.Rows[0].Get("b"))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		_, err := ReadCSV(bytes.NewReader([]byte{'a', ',', 0xff, 0xfe, '\n'}))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("blank header", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(" , \n1,2"))
		assert.ErrorIs(t, err, ErrMissingHeader)
	})

	t.Run("row limit", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a\n1\n2\n3"), WithMaxRows(2))
		assert.ErrorIs(t, err, ErrTooManyRows)

		table, err := ReadCSV(strings.NewReader("a\n1\n\n2"), WithMaxRows(2))
		require.NoError(t, err)
		assert.Len(t, table.Rows, 2)
	})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"Title", "Notes"}, [][]string{{"Lunch", "with \"client\", downtown"}})
	require.NoError(t, err)
	assert.Equal(t, "Title,Notes\nLunch,\"with \"\"client\"\", downtown\"\n", buf.String())
}

func TestXLSXRoundTrip(t *testing.T) {
	header := []string{"Invoice Number", "Customer", "Total"}
	records := [][]string{
		{"INV-2025-001", "Acme", "64900.00"},
		{"INV-2025-002", "Globex", "118.00"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Invoices", header, records))

	table, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, header, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "64900.00", table.Rows[0].Get("Total"))
	assert.Equal(t, "Globex", table.Rows[1].Get("Customer"))

	_, err = ReadXLSX(bytes.NewReader(buf.Bytes()), WithSheet("Missing"))
	assert.Error(t, err)
}

func TestReadWriteDispatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(FormatCSV, &buf, "", []string{"a"}, [][]string{{"1"}}))

	table, err := Read(FormatCSV, &buf)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"a": "1"}}, table.Maps())

	_, err = Read(Format("ods"), &buf)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorIs(t, Write(Format("ods"), &buf, "", nil, nil), ErrUnsupportedFormat)
}
