package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/derogation-cli/internal/derogation"
)

// Config holds the full application configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Sources  SourcesConfig  `yaml:"sources" mapstructure:"sources"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ZoneConfig names one land-use zone category.
type ZoneConfig struct {
	Technical string `yaml:"technical" mapstructure:"technical" validate:"required"`
	Friendly  string `yaml:"friendly" mapstructure:"friendly" validate:"required"`
}

// AnalysisConfig configures the derogation analysis.
type AnalysisConfig struct {
	ReferenceSystem   string       `yaml:"reference_system" mapstructure:"reference_system" validate:"required"`
	Zones             []ZoneConfig `yaml:"zones" mapstructure:"zones" validate:"required,min=1,dive"`
	StateLandZone     string       `yaml:"state_land_zone" mapstructure:"state_land_zone" validate:"required"`
	MaxPrecedents     int          `yaml:"max_precedents" mapstructure:"max_precedents" validate:"gte=0"`
	PrecedentFragment string       `yaml:"precedent_fragment" mapstructure:"precedent_fragment" validate:"required"`
	BufferSegments    int          `yaml:"buffer_segments" mapstructure:"buffer_segments" validate:"gte=3"`
	TimeoutSecs       int          `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"gte=0"`
}

// SourcesConfig lists where zone layers are loaded from.
type SourcesConfig struct {
	Shapefiles  []string      `yaml:"shapefiles" mapstructure:"shapefiles"`
	GeoJSON     []string      `yaml:"geojson" mapstructure:"geojson"`
	GeoPackages []string      `yaml:"geopackages" mapstructure:"geopackages"`
	PostGIS     PostGISConfig `yaml:"postgis" mapstructure:"postgis"`
}

// PostGISConfig configures the PostGIS layer source.
type PostGISConfig struct {
	DatabaseURL      string `yaml:"database_url" mapstructure:"database_url"`
	Schema           string `yaml:"schema" mapstructure:"schema" validate:"required"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0"`
	InitialBackoffMs int    `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms" validate:"gte=0"`
	MaxBackoffMs     int    `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	RateLimit   float64  `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	Locale string `yaml:"locale" mapstructure:"locale"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json console"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("derogation")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEROGATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	defaults := derogation.DefaultSettings()
	zones := make([]map[string]any, 0, len(defaults.Zones))
	for _, z := range defaults.Zones {
		zones = append(zones, map[string]any{"technical": z.Technical, "friendly": z.Friendly})
	}
	v.SetDefault("analysis.reference_system", defaults.ReferenceSystem)
	v.SetDefault("analysis.zones", zones)
	v.SetDefault("analysis.state_land_zone", defaults.StateLandZone)
	v.SetDefault("analysis.max_precedents", defaults.MaxPrecedents)
	v.SetDefault("analysis.precedent_fragment", defaults.PrecedentFragment)
	v.SetDefault("analysis.buffer_segments", defaults.BufferSegments)
	v.SetDefault("analysis.timeout_secs", int(defaults.Timeout/time.Second))
	v.SetDefault("sources.shapefiles", []string{})
	v.SetDefault("sources.geojson", []string{})
	v.SetDefault("sources.geopackages", []string{})
	v.SetDefault("sources.postgis.database_url", "")
	v.SetDefault("sources.postgis.schema", "zones")
	v.SetDefault("sources.postgis.max_attempts", 3)
	v.SetDefault("sources.postgis.initial_backoff_ms", 200)
	v.SetDefault("sources.postgis.max_backoff_ms", 5000)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 5)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("report.locale", "fr")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

var validate = newValidator()

// newValidator reports fields by their mapstructure key so messages match
// the config file.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration for the given command mode
// ("analyze", "serve", "import").
func (c *Config) Validate(mode string) error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return eris.Wrap(err, "config: validate")
		}
		for _, fe := range verrs {
			problems = append(problems, fieldProblem(fe))
		}
	}

	switch mode {
	case "analyze":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	case "import":
		if c.Sources.PostGIS.DatabaseURL == "" {
			problems = append(problems, "sources.postgis.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) == 0 {
		if err := c.Settings().Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// fieldProblem renders a validator error using the mapstructure key path.
func fieldProblem(fe validator.FieldError) string {
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "min":
		return key + " needs at least " + fe.Param() + " entries"
	case "gte":
		return key + " must be >= " + fe.Param()
	case "oneof":
		return key + " must be one of " + fe.Param()
	default:
		return key + " failed " + fe.Tag()
	}
}

// Settings converts the analysis section into the immutable settings passed
// to the analysis components.
func (c *Config) Settings() derogation.Settings {
	zones := make([]derogation.ZoneCategory, 0, len(c.Analysis.Zones))
	for _, z := range c.Analysis.Zones {
		zones = append(zones, derogation.ZoneCategory{Technical: z.Technical, Friendly: z.Friendly})
	}
	return derogation.Settings{
		ReferenceSystem:   c.Analysis.ReferenceSystem,
		Zones:             zones,
		StateLandZone:     c.Analysis.StateLandZone,
		MaxPrecedents:     c.Analysis.MaxPrecedents,
		PrecedentFragment: c.Analysis.PrecedentFragment,
		BufferSegments:    c.Analysis.BufferSegments,
		Timeout:           time.Duration(c.Analysis.TimeoutSecs) * time.Second,
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
