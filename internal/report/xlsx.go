package report

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Sheet names of the results workbook.
const (
	ResultsSheet = "Résultats"
	SummarySheet = "Synthèse"
)

// XLSXFile writes the results table to a spreadsheet on disk.
type XLSXFile struct {
	Path   string
	Locale string
}

// Assemble implements Assembler.
func (x XLSXFile) Assemble(_ context.Context, in Input) error {
	f, err := buildWorkbook(in, x.Locale)
	if err != nil {
		return err
	}
	if err := f.Save(x.Path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", x.Path)
	}
	return nil
}

// WriteXLSX streams the results workbook to w.
func WriteXLSX(w io.Writer, in Input, locale string) error {
	f, err := buildWorkbook(in, locale)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "xlsx: write workbook")
}

func buildWorkbook(in Input, locale string) (*xlsx.File, error) {
	_, l := localize(locale)
	f := xlsx.NewFile()

	results, err := f.AddSheet(ResultsSheet)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add results sheet")
	}

	header := xlsx.NewStyle()
	header.Font.Bold = true
	header.ApplyFont = true

	impact := xlsx.NewStyle()
	impact.Fill = *xlsx.NewFill("solid", "FFC62828", "FFC62828")
	impact.Font.Color = "FFFFFFFF"
	impact.ApplyFill = true
	impact.ApplyFont = true

	row := results.AddRow()
	for _, h := range []string{l.Layer, l.Area, l.Impact, l.Status} {
		c := row.AddCell()
		c.SetString(h)
		c.SetStyle(header)
	}

	for _, r := range in.Results {
		row := results.AddRow()
		row.AddCell().SetString(r.Name)
		row.AddCell().SetFloatWithFormat(r.Area, "0.00")
		pct := row.AddCell()
		pct.SetFloatWithFormat(r.Percentage, "0.00")
		if r.Impacted() {
			pct.SetStyle(impact)
		}
		row.AddCell().SetString(l.status(r.Status))
	}

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add summary sheet")
	}
	addPair := func(key string, set func(*xlsx.Cell)) {
		row := summary.AddRow()
		k := row.AddCell()
		k.SetString(key)
		k.SetStyle(header)
		set(row.AddCell())
	}
	addPair("X", func(c *xlsx.Cell) { c.SetFloatWithFormat(in.Point.X, "0.00") })
	addPair("Y", func(c *xlsx.Cell) { c.SetFloatWithFormat(in.Point.Y, "0.00") })
	addPair(l.Radius, func(c *xlsx.Cell) { c.SetFloatWithFormat(in.Radius, "0.00") })
	addPair(l.Decision, func(c *xlsx.Cell) { c.SetString(in.Justification) })
	if in.ImagePath != "" {
		addPair("Image", func(c *xlsx.Cell) { c.SetString(in.ImagePath) })
	}

	return f, nil
}
