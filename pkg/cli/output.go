package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is aligned plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// ParseOutputFormat validates a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want text, json or csv)", s)
	}
}

// Table is a list of rows under named columns.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable creates an empty table with the given columns.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow appends a row. Missing trailing cells are left empty.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Headers))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, t *Table) error
}

// TextFormatter formats output as aligned columns.
type TextFormatter struct{}

// FormatTo writes t as tab-aligned text.
func (f *TextFormatter) FormatTo(w io.Writer, t *Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(t.Headers, "\t")))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// JSONFormatter formats output as a JSON array of objects.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes t as JSON.
func (f *JSONFormatter) FormatTo(w io.Writer, t *Table) error {
	objects := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		obj := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			obj[h] = row[i]
		}
		objects = append(objects, obj)
	}

	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(objects)
}

// CSVFormatter formats output as CSV with a header row.
type CSVFormatter struct{}

// FormatTo writes t as CSV.
func (f *CSVFormatter) FormatTo(w io.Writer, t *Table) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(t.Headers); err != nil {
		return err
	}
	if err := csvWriter.WriteAll(t.Rows); err != nil {
		return err
	}
	return csvWriter.Error()
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}
