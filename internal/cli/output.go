package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// Format is the output format of a command.
type Format string

const (
	// FormatText prints human-readable lines and tables.
	FormatText Format = "text"
	// FormatJSON prints the service response as indented JSON.
	FormatJSON Format = "json"
)

// ParseFormat validates an --output value.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatText, FormatJSON:
		return Format(value), nil
	default:
		return FormatText, fmt.Errorf("invalid output format: %s (must be 'text' or 'json')", value)
	}
}

// Formatter writes command results in the configured format.
type Formatter struct {
	format Format
	writer io.Writer
}

func NewFormatter(format Format, w io.Writer) *Formatter {
	return &Formatter{format: format, writer: w}
}

// Output writes data as JSON, or calls text for the text format.
func (f *Formatter) Output(data any, text func(w io.Writer) error) error {
	if f.format == FormatJSON {
		encoder := json.NewEncoder(f.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
	return text(f.writer)
}

// Table writes rows under a header, columns tab-aligned.
func (f *Formatter) Table(header []any, rows [][]any) error {
	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	writeRow(tw, header)
	for _, row := range rows {
		writeRow(tw, row)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []any) {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, cell)
	}
	fmt.Fprintln(w)
}
