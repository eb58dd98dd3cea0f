package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats returns names of supported output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML}
}

// Writer is the interface that wraps the Write method.
//
// Write writes the Report to the specified io.Writer.
type Writer interface {
	Write(out io.Writer, report Report) error
}

// WriterFunc is an adapter to allow the use of ordinary functions as Writer.
type WriterFunc func(out io.Writer, report Report) error

func (f WriterFunc) Write(out io.Writer, report Report) error {
	return f(out, report)
}

// NewWriter returns Writer for the specified output format.
func NewWriter(format string) (Writer, error) {
	switch format {
	case FormatText, "":
		return WriterFunc(writeText), nil
	case FormatJSON:
		return WriterFunc(writeJSON), nil
	case FormatYAML:
		return WriterFunc(writeYAML), nil
	default:
		return nil, fmt.Errorf("unrecognized output format: %s", format)
	}
}

var (
	failColor = color.New(color.FgRed, color.Bold)
	passColor = color.New(color.FgGreen)
)

func writeText(out io.Writer, report Report) error {
	if len(report.Vulnerabilities) > 0 {
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"ID", "Severity", "Module", "Title"})
		for _, v := range report.Vulnerabilities {
			table.Append([]string{v.ID, v.Severity.String(), v.Module, v.Title})
		}
		table.Render()
	}
	if report.Violated {
		_, err := failColor.Fprintln(out, report.Message)
		return err
	}
	_, err := passColor.Fprintln(out, report.String())
	return err
}

func writeJSON(out io.Writer, report Report) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func writeYAML(out io.Writer, report Report) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return err
	}
	return encoder.Close()
}

// SummaryValues returns the summary as key-value pairs for structured
// logging.
func (r Report) SummaryValues() []interface{} {
	values := make([]interface{}, 0, 2*len(r.Summary))
	for _, entry := range r.Summary {
		values = append(values, entry.Severity.String(), entry.Count)
	}
	return values
}
