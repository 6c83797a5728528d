package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/derogation-cli/internal/config"
	"github.com/sells-group/derogation-cli/internal/db"
	"github.com/sells-group/derogation-cli/internal/layer"
	"github.com/sells-group/derogation-cli/internal/resilience"
)

// layerEnv holds the layer catalog built from configuration and the
// resources it owns.
type layerEnv struct {
	Catalog *layer.Catalog
	Pool    db.Pool
}

// Close releases the database pool, if any.
func (e *layerEnv) Close() {
	if e.Pool != nil {
		e.Pool.Close()
	}
}

// openLayers loads every configured source into one catalog. File sources
// are read eagerly; PostGIS layers are listed on each analysis run.
func openLayers(ctx context.Context, c *config.Config) (*layerEnv, error) {
	log := zap.L().With(zap.String("component", "sources"))
	env := &layerEnv{Catalog: layer.NewCatalog()}

	var files layer.Static
	for _, path := range c.Sources.Shapefiles {
		l, err := layer.OpenShapefile(path)
		if err != nil {
			return nil, err
		}
		log.Info("loaded shapefile layer", zap.String("layer", l.Name()), zap.Int("features", l.Len()))
		files = append(files, l)
	}
	for _, path := range c.Sources.GeoJSON {
		l, err := layer.OpenGeoJSON(path)
		if err != nil {
			return nil, err
		}
		log.Info("loaded geojson layer", zap.String("layer", l.Name()), zap.Int("features", l.Len()))
		files = append(files, l)
	}
	for _, path := range c.Sources.GeoPackages {
		ls, err := layer.OpenGeoPackage(ctx, path)
		if err != nil {
			return nil, err
		}
		log.Info("loaded geopackage", zap.String("path", path), zap.Int("layers", len(ls)))
		files = append(files, ls...)
	}
	env.Catalog.Add(files)

	if url := c.Sources.PostGIS.DatabaseURL; url != "" {
		pool, err := db.Connect(ctx, url)
		if err != nil {
			return nil, eris.Wrap(err, "sources: connect postgis")
		}
		env.Pool = pool

		srid, err := c.Settings().SRID()
		if err != nil {
			env.Close()
			return nil, err
		}
		retry := resilience.FromRetryConfig(c.Sources.PostGIS.MaxAttempts, c.Sources.PostGIS.InitialBackoffMs, c.Sources.PostGIS.MaxBackoffMs)
		retry.OnRetry = resilience.RetryLogger("postgis", "query")
		env.Catalog.Add(layer.NewPostGIS(pool, c.Sources.PostGIS.Schema, srid).WithRetry(retry))
		log.Info("postgis source enabled", zap.String("schema", c.Sources.PostGIS.Schema))
	}

	return env, nil
}
