// Package report turns analysis results into documents: a spreadsheet of the
// results table, the buffer as GeoJSON, and text, JSON or YAML summaries.
package report

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/derogation-cli/internal/derogation"
)

// Input is what a document needs from an analysis run.
type Input struct {
	Results       derogation.Results
	Justification string
	ImagePath     string
	Point         derogation.Point
	Radius        float64
}

// FromReport extracts the document input of a successful run.
func FromReport(r *derogation.Report) Input {
	return Input{
		Results:       r.Results,
		Justification: r.Verdict.Justification,
		ImagePath:     r.ImagePath,
		Point:         r.Point,
		Radius:        r.Radius,
	}
}

// Assembler produces a document from an analysis run.
type Assembler interface {
	Assemble(ctx context.Context, in Input) error
}

// Assemblers runs several assemblers in order and stops at the first error.
type Assemblers []Assembler

// Assemble implements Assembler.
func (as Assemblers) Assemble(ctx context.Context, in Input) error {
	for _, a := range as {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "report: assemble")
		}
		if err := a.Assemble(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

// Format selects how a report is printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", eris.Errorf("report: unknown format %q", s)
	}
}

// Encode writes r to w in the given format. Text output is localized.
func Encode(w io.Writer, format Format, r *derogation.Report, locale string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "report: encode json")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "report: encode yaml")
		}
		return eris.Wrap(enc.Close(), "report: close yaml encoder")
	case FormatText, "":
		return WriteText(w, r, locale)
	default:
		return eris.Errorf("report: unknown format %q", format)
	}
}
