// Command compass runs the career guidance quiz.
//
// Usage:
//
//	compass take     [flags]           answer the quiz in the terminal
//	compass score    [flags] SHEET...  evaluate answer sheets (JSON or YAML)
//	compass simulate [flags]           evaluate randomly answered quizzes
//	compass serve    [flags]           serve the quiz over HTTP
//	compass catalog  [flags]           print and validate a catalog
//
// Every command reads compass.yaml, .env and COMPASS_* variables; flags
// override them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ahrav/go-compass/infrastructure/catalog"
	"github.com/ahrav/go-compass/infrastructure/middleware"
	"github.com/ahrav/go-compass/infrastructure/reference"
	"github.com/ahrav/go-compass/internal/application"
	"github.com/ahrav/go-compass/internal/config"
	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/logging"
	"github.com/ahrav/go-compass/internal/ports"
)

const usage = `usage: compass <command> [flags]

commands:
  take      answer the quiz in the terminal
  score     evaluate answer sheets
  simulate  evaluate randomly answered quizzes
  serve     serve the quiz over HTTP
  catalog   print and validate a catalog
`

// errUsage marks a command line that could not be parsed; the flag package
// has already printed the details.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "compass:", err)
		}
		os.Exit(1)
	}
}

type command func(ctx context.Context, args []string, env *environment) error

var commands = map[string]command{
	"take":     runTake,
	"score":    runScore,
	"simulate": runSimulate,
	"serve":    runServe,
	"catalog":  runCatalog,
}

// environment carries the process streams into a command.
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		if len(args) == 0 {
			return errUsage
		}
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
	return cmd(ctx, args[1:], &environment{stdin: stdin, stdout: stdout, stderr: stderr})
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configFile string
	envFile    string
	variant    string
	catalog    string
	references string
	logLevel   string
}

func newFlagSet(name string, env *environment) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	c := &commonFlags{}
	fs.StringVar(&c.configFile, "config", "", "config file (default: ./compass.yaml or ./configs/compass.yaml)")
	fs.StringVar(&c.envFile, "env", "", "env file (default: ./.env when present)")
	fs.StringVar(&c.variant, "variant", "", "recommendation variant: major_minor or role_career")
	fs.StringVar(&c.catalog, "catalog", "", "built-in catalog name or catalog file (.yaml, .csv)")
	fs.StringVar(&c.references, "references", "", "reference table file (default: built-in table)")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")
	return fs, c
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	return nil
}

// load reads the configuration and applies flag overrides.
func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := config.Load(config.Options{ConfigFile: c.configFile, EnvFile: c.envFile})
	if err != nil {
		return nil, err
	}
	if c.variant != "" {
		cfg.Quiz.Variant = c.variant
	}
	if c.catalog != "" {
		cfg.Quiz.CatalogPath = c.catalog
	}
	if c.references != "" {
		cfg.Quiz.ReferencePath = c.references
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is everything a command needs to evaluate submissions.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	catalog    *domain.Catalog
	references *reference.Table
	engine     *application.Engine
	registry   *prometheus.Registry
}

// defaultCatalog names the built-in catalog written for a variant.
func defaultCatalog(v domain.Variant) string {
	if v == domain.VariantRoleCareer {
		return catalog.Psychometric
	}
	return catalog.CareerGuidance
}

func newApp(ctx context.Context, flags *commonFlags) (*app, error) {
	cfg, err := flags.load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	loader, err := application.NewCatalogLoader(logger)
	if err != nil {
		return nil, err
	}
	cat, err := loader.Open(ctx, cfg.Quiz.CatalogPath, defaultCatalog(cfg.Variant()))
	if err != nil {
		return nil, err
	}

	var refs *reference.Table
	if cfg.Quiz.ReferencePath == "" {
		refs, err = reference.Default()
	} else {
		refs, err = reference.LoadFile(cfg.Quiz.ReferencePath)
	}
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	opts := []application.EngineOption{application.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		var metrics ports.MetricsCollector = middleware.NewPrometheusMetrics(registry)
		opts = append(opts, application.WithMetrics(metrics))
	}
	engine, err := application.NewEngine(cat, refs, cfg.EngineConfig(), opts...)
	if err != nil {
		return nil, err
	}

	logger.Debug("compass ready",
		zap.String("catalog", cat.Name),
		zap.String("catalog_version", cat.Version),
		zap.String("variant", string(cfg.Variant())),
		zap.String("references_version", refs.Version()),
		zap.Int("reference_rows", refs.Len()),
	)
	return &app{cfg: cfg, logger: logger, catalog: cat, references: refs, engine: engine, registry: registry}, nil
}
