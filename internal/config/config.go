// Package config loads the compass application configuration from an
// optional YAML file, a .env file and COMPASS_-prefixed environment
// variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ahrav/go-compass/infrastructure/units"
	"github.com/ahrav/go-compass/internal/application"
	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

// EnvPrefix prefixes every environment override, e.g. COMPASS_LOG_LEVEL.
const EnvPrefix = "COMPASS"

// Config is the application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Quiz      QuizConfig      `mapstructure:"quiz"`
	Blend     BlendConfig     `mapstructure:"blend"`
	Academics AcademicsConfig `mapstructure:"academics"`
	Report    ReportConfig    `mapstructure:"report"`
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// QuizConfig selects the catalog and the recommendation variant.
type QuizConfig struct {
	Variant string `mapstructure:"variant" validate:"oneof=major_minor role_career"`
	// CatalogPath is a built-in catalog name or a YAML/CSV file. Empty
	// selects the built-in catalog written for Variant.
	CatalogPath string `mapstructure:"catalog_path"`
	// ReferencePath is a reference table file; empty uses the built-in table.
	ReferencePath string `mapstructure:"reference_path"`
	ScoringMode   string `mapstructure:"scoring_mode" validate:"oneof=weighted tags"`
}

// BlendConfig holds the blend weights W_p and W_a.
type BlendConfig struct {
	PsychometricWeight float64 `mapstructure:"psychometric_weight" validate:"gt=0"`
	AcademicWeight     float64 `mapstructure:"academic_weight" validate:"gte=0,ltfield=PsychometricWeight"`
	TieBreaker         string  `mapstructure:"tie_breaker" validate:"oneof=first error"`
	// DomainCategories overrides the catalog's domain categories, keyed by
	// domain name (matched case-insensitively).
	DomainCategories map[string]string `mapstructure:"domain_categories" validate:"omitempty,dive,keys,required,endkeys,required"`
}

// AcademicsConfig controls academic input handling.
type AcademicsConfig struct {
	DuplicatePolicy string `mapstructure:"duplicate_policy" validate:"oneof=merge reject"`
}

// ReportConfig controls where and how reports are written.
type ReportConfig struct {
	OutputDir string   `mapstructure:"output_dir" validate:"required"`
	Formats   []string `mapstructure:"formats" validate:"min=1,dive,oneof=text txt pdf"`
}

// ServerConfig configures the local HTTP surface.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

// MetricsConfig toggles Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Options tells Load where to look.
type Options struct {
	// ConfigFile is an explicit YAML file. It must exist when set. When
	// empty, compass.yaml is looked up in . and ./configs and is optional.
	ConfigFile string
	// EnvFile is an explicit .env file. It must exist when set. When empty,
	// ./.env is loaded if present.
	EnvFile string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("quiz.variant", string(domain.VariantMajorMinor))
	v.SetDefault("quiz.catalog_path", "")
	v.SetDefault("quiz.reference_path", "")
	v.SetDefault("quiz.scoring_mode", string(units.ModeWeighted))
	v.SetDefault("blend.psychometric_weight", units.DefaultPsychometricWeight)
	v.SetDefault("blend.academic_weight", units.DefaultAcademicWeight)
	v.SetDefault("blend.tie_breaker", string(units.TieFirst))
	v.SetDefault("academics.duplicate_policy", string(domain.DuplicateMerge))
	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.formats", []string{"text", "pdf"})
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("metrics.enabled", true)
}

// Load reads the configuration and validates it.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return nil, fmt.Errorf("%w: %w", ports.ErrConfigNotFound, err)
		}
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("compass")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %w", ports.ErrConfigNotFound, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	return nil
}

// Validate checks every field against its constraints. Each violation is
// reported as a *ports.ConfigError keyed by its dotted config key.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, ports.NewConfigError(configKey(fe), fe.Value(), fe.Tag()))
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, errors.Join(errs...))
}

// configKey turns "Config.Blend.AcademicWeight" into
// "blend.academic_weight" using the mapstructure names.
func configKey(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")[1:]
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, len(parts))
	for _, name := range parts {
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		f, ok := t.FieldByName(name)
		if !ok {
			keys = append(keys, strings.ToLower(name))
			continue
		}
		keys = append(keys, strings.Split(f.Tag.Get("mapstructure"), ",")[0])
		t = f.Type
		if t.Kind() == reflect.Slice {
			t = t.Elem()
		}
	}
	return strings.Join(keys, ".")
}

// Variant returns the configured recommendation variant.
func (c *Config) Variant() domain.Variant { return domain.Variant(c.Quiz.Variant) }

// DuplicatePolicy returns the configured duplicate-subject policy.
func (c *Config) DuplicatePolicy() domain.DuplicatePolicy {
	return domain.DuplicatePolicy(c.Academics.DuplicatePolicy)
}

// EngineConfig translates the file-level settings into engine settings.
func (c *Config) EngineConfig() application.EngineConfig {
	cfg := application.DefaultEngineConfig()
	cfg.Variant = c.Variant()
	cfg.Scoring.Mode = units.ScoringMode(c.Quiz.ScoringMode)
	cfg.Blend.PsychometricWeight = c.Blend.PsychometricWeight
	cfg.Blend.AcademicWeight = c.Blend.AcademicWeight
	cfg.Blend.TieBreaker = units.TieBreaker(c.Blend.TieBreaker)
	if len(c.Blend.DomainCategories) > 0 {
		cfg.Blend.DomainCategories = make(map[string]string, len(c.Blend.DomainCategories))
		for d, category := range c.Blend.DomainCategories {
			cfg.Blend.DomainCategories[d] = category
		}
	}
	return cfg
}
