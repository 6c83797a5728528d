package points

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/derogation-cli/internal/derogation"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "sites.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestStreamCSV(t *testing.T) {
	input := "id,x,y\n# comment\n a , 1 , 2 \nb,3,4\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{Comment: '#', TrimSpace: true})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "1", "2"}, rows[1])
}

func TestStreamCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("x,y\n1,2\n"), CSVOptions{})
	for range rowCh {
	}
	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestParseSites(t *testing.T) {
	rows := [][]string{
		{"Nom", "X", "Y", "Rayon"},
		{"parcelle-1", "500000", "400000", "50"},
		{"", "500100,5", "400100", ""},
		{"", "", "", ""},
	}

	sites, err := ParseSites(rows, 25)
	require.NoError(t, err)
	require.Len(t, sites, 2)

	assert.Equal(t, "parcelle-1", sites[0].ID)
	assert.Equal(t, derogation.Point{X: 500000, Y: 400000}, sites[0].Point)
	assert.InDelta(t, 50.0, sites[0].Radius, 1e-9)

	// Missing id falls back to the data row number; decimal comma accepted.
	assert.Equal(t, "2", sites[1].ID)
	assert.InDelta(t, 500100.5, sites[1].Point.X, 1e-9)
	assert.InDelta(t, 25.0, sites[1].Radius, 1e-9)

	req := sites[0].Request()
	assert.Equal(t, sites[0].Point, req.Point)
	assert.InDelta(t, 50.0, req.Radius, 1e-9)
}

func TestParseSites_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{"no header", nil, "no header row"},
		{"missing y column", [][]string{{"id", "x"}}, "must name x and y"},
		{"bad x", [][]string{{"x", "y"}, {"abc", "1"}}, "row 2: x"},
		{"missing y value", [][]string{{"x", "y"}, {"1"}}, "row 2: y"},
		{"bad radius", [][]string{{"x", "y", "radius"}, {"1", "2", "big"}}, "row 2: radius"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSites(tt.rows, 10)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y,radius\n1,2,30\n3,4,\n"), 0o644))

	sites, err := ReadFile(context.Background(), path, 50)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.InDelta(t, 30.0, sites[0].Radius, 1e-9)
	assert.InDelta(t, 50.0, sites[1].Radius, 1e-9)
}

func TestReadFile_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sites": {
			{"id", "x", "y"},
			{"A", "10", "20"},
		},
	})

	sites, err := ReadFile(context.Background(), path, 50)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "A", sites[0].ID)
	assert.Equal(t, derogation.Point{X: 10, Y: 20}, sites[0].Point)
}

func TestReadXLSX_SheetSelection(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sites": {{"x", "y"}},
	})

	rows, err := ReadXLSX(path, XLSXOptions{SheetName: "Sites"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	assert.ErrorContains(t, err, `sheet "Missing" not found`)

	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	assert.ErrorContains(t, err, "out of range")
}

func TestReadFile_Errors(t *testing.T) {
	_, err := ReadFile(context.Background(), "sites.json", 50)
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), 50)
	assert.ErrorContains(t, err, "points: open")

	_, err = ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"), 50)
	assert.ErrorContains(t, err, "xlsx: open file")
}
