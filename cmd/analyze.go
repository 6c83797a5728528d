package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/derogation-cli/internal/derogation"
	"github.com/sells-group/derogation-cli/internal/layer"
	"github.com/sells-group/derogation-cli/internal/report"
)

var (
	analyzeX             float64
	analyzeY             float64
	analyzeRadius        float64
	analyzePointGeoJSON  string
	analyzeFormat        string
	analyzeXLSX          string
	analyzeBufferGeoJSON string
	analyzeImage         string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the impact of a project point on the configured zones",
	Example: `  derogation analyze --x 500000 --y 400000 --radius 50
  derogation analyze --point-geojson site.geojson --xlsx results.xlsx --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		format, err := report.ParseFormat(analyzeFormat)
		if err != nil {
			return err
		}

		req, err := pointInput{
			X:           analyzeX,
			Y:           analyzeY,
			HaveXY:      cmd.Flags().Changed("x") && cmd.Flags().Changed("y"),
			GeoJSONPath: analyzePointGeoJSON,
			Radius:      analyzeRadius,
			ImagePath:   analyzeImage,
		}.request()
		if err != nil {
			return err
		}

		env, err := openLayers(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		analysis := derogation.NewAnalysis(cfg.Settings(), env.Catalog)
		out := analysis.Run(ctx, req)
		if !out.OK() {
			printFailure(os.Stderr, out.Failure)
			return out.Err()
		}

		if err := writeExports(ctx, out.Report, cfg.Report.Locale, analyzeXLSX, analyzeBufferGeoJSON); err != nil {
			return err
		}
		return report.Encode(os.Stdout, format, out.Report, cfg.Report.Locale)
	},
}

// pointInput is the project location as given on the command line.
type pointInput struct {
	X, Y        float64
	HaveXY      bool
	GeoJSONPath string
	Radius      float64
	ImagePath   string
}

// request builds the run request. A GeoJSON point file takes precedence over
// --x/--y.
func (p pointInput) request() (derogation.Request, error) {
	req := derogation.Request{Radius: p.Radius, ImagePath: p.ImagePath}

	if p.GeoJSONPath != "" {
		data, err := os.ReadFile(p.GeoJSONPath)
		if err != nil {
			return req, eris.Wrapf(err, "analyze: read point file %s", p.GeoJSONPath)
		}
		c, err := layer.ReadGeoJSONPoint(data)
		if err != nil {
			return req, err
		}
		req.Point = derogation.Point{X: c[0], Y: c[1]}
		return req, nil
	}

	if !p.HaveXY {
		return req, eris.New("analyze: --x and --y (or --point-geojson) are required")
	}
	req.Point = derogation.Point{X: p.X, Y: p.Y}
	return req, nil
}

// writeExports writes the optional spreadsheet and buffer files.
func writeExports(ctx context.Context, r *derogation.Report, locale, xlsxPath, bufferPath string) error {
	var docs report.Assemblers
	if xlsxPath != "" {
		docs = append(docs, report.XLSXFile{Path: xlsxPath, Locale: locale})
	}
	if err := docs.Assemble(ctx, report.FromReport(r)); err != nil {
		return err
	}
	if xlsxPath != "" {
		zap.L().Info("results table exported", zap.String("path", xlsxPath))
	}

	if bufferPath != "" {
		if err := report.SaveBufferGeoJSON(bufferPath, r); err != nil {
			return err
		}
		zap.L().Info("buffer exported", zap.String("path", bufferPath))
	}
	return nil
}

// printFailure writes a one-line explanation of a failed run.
func printFailure(w io.Writer, f *derogation.Failure) {
	switch f.Kind {
	case derogation.FailureInvalidInput:
		fmt.Fprintf(w, "invalid input: %v\n", f.Err)
	case derogation.FailureCanceled:
		fmt.Fprintln(w, "analysis canceled")
	default:
		fmt.Fprintf(w, "analysis failed: %v\n", f.Err)
	}
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeX, "x", 0, "project easting in the reference system")
	analyzeCmd.Flags().Float64Var(&analyzeY, "y", 0, "project northing in the reference system")
	analyzeCmd.Flags().Float64Var(&analyzeRadius, "radius", 50, "buffer radius in map units")
	analyzeCmd.Flags().StringVar(&analyzePointGeoJSON, "point-geojson", "", "read the project point from a GeoJSON file")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "output format: text, json or yaml")
	analyzeCmd.Flags().StringVar(&analyzeXLSX, "xlsx", "", "export the results table to this spreadsheet")
	analyzeCmd.Flags().StringVar(&analyzeBufferGeoJSON, "buffer-geojson", "", "export the buffer polygon to this GeoJSON file")
	analyzeCmd.Flags().StringVar(&analyzeImage, "image", "", "map image path to reference in the report")
	rootCmd.AddCommand(analyzeCmd)
}
