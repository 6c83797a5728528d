package points

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/derogation-cli/internal/derogation"
)

// Site is one project location to analyze.
type Site struct {
	ID     string
	Point  derogation.Point
	Radius float64
}

// Request converts the site to an analysis request.
func (s Site) Request() derogation.Request {
	return derogation.Request{Point: s.Point, Radius: s.Radius}
}

// header aliases, matched case-insensitively.
var columnAliases = map[string]string{
	"id":     "id",
	"name":   "id",
	"nom":    "id",
	"x":      "x",
	"y":      "y",
	"radius": "radius",
	"rayon":  "radius",
}

type columns struct {
	id, x, y, radius int
}

func mapHeader(header []string) (columns, error) {
	c := columns{id: -1, x: -1, y: -1, radius: -1}
	for i, h := range header {
		switch columnAliases[strings.ToLower(strings.TrimSpace(h))] {
		case "id":
			c.id = i
		case "x":
			c.x = i
		case "y":
			c.y = i
		case "radius":
			c.radius = i
		}
	}
	if c.x < 0 || c.y < 0 {
		return c, eris.Errorf("points: header must name x and y columns, got %v", header)
	}
	return c, nil
}

// ParseSites converts rows into sites. The first row is the header. Rows
// without a radius column or value use defaultRadius. Blank rows are skipped.
func ParseSites(rows [][]string, defaultRadius float64) ([]Site, error) {
	if len(rows) == 0 {
		return nil, eris.New("points: no header row")
	}
	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	var sites []Site
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}

		x, err := floatAt(row, cols.x)
		if err != nil {
			return nil, eris.Wrapf(err, "points: row %d: x", line)
		}
		y, err := floatAt(row, cols.y)
		if err != nil {
			return nil, eris.Wrapf(err, "points: row %d: y", line)
		}

		radius := defaultRadius
		if cols.radius >= 0 && cols.radius < len(row) && strings.TrimSpace(row[cols.radius]) != "" {
			radius, err = floatAt(row, cols.radius)
			if err != nil {
				return nil, eris.Wrapf(err, "points: row %d: radius", line)
			}
		}

		id := strconv.Itoa(line - 1)
		if cols.id >= 0 && cols.id < len(row) && strings.TrimSpace(row[cols.id]) != "" {
			id = strings.TrimSpace(row[cols.id])
		}

		sites = append(sites, Site{ID: id, Point: derogation.Point{X: x, Y: y}, Radius: radius})
	}
	return sites, nil
}

// ReadCSV streams sites from CSV.
func ReadCSV(ctx context.Context, r io.Reader, defaultRadius float64) ([]Site, error) {
	rowCh, errCh := StreamCSV(ctx, r, CSVOptions{Comment: '#', TrimSpace: true})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return ParseSites(rows, defaultRadius)
}

// ReadFile reads sites from a .csv or .xlsx file.
func ReadFile(ctx context.Context, path string, defaultRadius float64) ([]Site, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err := ReadXLSX(path, XLSXOptions{})
		if err != nil {
			return nil, err
		}
		return ParseSites(rows, defaultRadius)
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "points: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(ctx, f, defaultRadius)
	default:
		return nil, eris.Errorf("points: unsupported file type %q", filepath.Ext(path))
	}
}

func floatAt(row []string, idx int) (float64, error) {
	if idx >= len(row) {
		return 0, eris.New("missing value")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(row[idx]), ",", "."), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse %q", row[idx])
	}
	return v, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
