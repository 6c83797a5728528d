package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/derogation-cli/internal/db"
	"github.com/sells-group/derogation-cli/internal/derogation"
	"github.com/sells-group/derogation-cli/internal/layer"
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Inspect and load zone layers",
}

// -- layers list --

var layersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available layers and the zone each one serves",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		env, err := openLayers(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		layers, err := env.Catalog.Layers(ctx)
		if err != nil {
			return eris.Wrap(err, "layers list")
		}
		if len(layers) == 0 {
			fmt.Fprintln(os.Stderr, "No layers found.")
			return nil
		}

		formatLayers(os.Stdout, layers, cfg.Settings())
		return nil
	},
}

// formatLayers prints a table of layers with the zone (or precedent role)
// each resolves to. A layer matched by several zones lists them all.
func formatLayers(w io.Writer, layers []layer.Layer, s derogation.Settings) {
	roles := make(map[layer.Layer][]string)
	for _, z := range s.Zones {
		if r := layer.Resolve(layers, z.Technical); r.Found() {
			roles[r.Layer] = append(roles[r.Layer], z.Technical)
		}
	}
	if r := layer.Resolve(layers, s.PrecedentFragment); r.Found() {
		roles[r.Layer] = append(roles[r.Layer], "precedents")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tROLE")
	for _, l := range layers {
		role := "-"
		if rs := roles[l]; len(rs) > 0 {
			role = strings.Join(rs, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Name(), l.GeometryType(), role)
	}
	tw.Flush() //nolint:errcheck
}

// -- layers import --

var (
	importShapefile string
	importTable     string
	importReplace   bool
)

var layersImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a shapefile into a PostGIS zone table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}
		srid, err := cfg.Settings().SRID()
		if err != nil {
			return err
		}

		l, err := layer.OpenShapefile(importShapefile)
		if err != nil {
			return err
		}
		rows, err := geometryRows(ctx, l)
		if err != nil {
			return err
		}

		table := importTable
		if table == "" {
			table = strings.TrimSuffix(filepath.Base(importShapefile), filepath.Ext(importShapefile))
		}

		pool, err := db.Connect(ctx, cfg.Sources.PostGIS.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "layers import: connect")
		}
		defer pool.Close()

		n, err := db.LoadGeometries(ctx, pool, db.GeometryLoad{
			Schema:  cfg.Sources.PostGIS.Schema,
			Table:   table,
			SRID:    srid,
			Replace: importReplace,
		}, rows)
		if err != nil {
			return err
		}

		zap.L().Info("layer imported",
			zap.String("layer", l.Name()),
			zap.String("table", cfg.Sources.PostGIS.Schema+"."+table),
			zap.Int64("rows", n),
		)
		return nil
	},
}

// geometryRows encodes every feature of l for loading. Features without a
// geometry are dropped.
func geometryRows(ctx context.Context, l layer.Layer) ([]db.GeometryRow, error) {
	var rows []db.GeometryRow
	for f, err := range l.Features(ctx, nil) {
		if err != nil {
			return nil, err
		}
		if f.Geometry == nil {
			continue
		}

		data, err := ewkb.Marshal(f.Geometry, binary.LittleEndian)
		if err != nil {
			return nil, eris.Wrapf(err, "layers import: encode feature %s", f.ID)
		}

		var props []byte
		if len(f.Properties) > 0 {
			props, err = json.Marshal(f.Properties)
			if err != nil {
				return nil, eris.Wrapf(err, "layers import: encode properties of feature %s", f.ID)
			}
		}

		rows = append(rows, db.GeometryRow{FeatureID: f.ID, Properties: props, Geometry: data})
	}
	return rows, nil
}

func init() {
	layersImportCmd.Flags().StringVar(&importShapefile, "shapefile", "", "shapefile to import")
	layersImportCmd.Flags().StringVar(&importTable, "table", "", "target table (default: shapefile base name)")
	layersImportCmd.Flags().BoolVar(&importReplace, "replace", false, "empty the table before loading")
	_ = layersImportCmd.MarkFlagRequired("shapefile")

	layersCmd.AddCommand(layersListCmd, layersImportCmd)
	rootCmd.AddCommand(layersCmd)
}
