package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chameleon-db/chameleondb/integrity/internal/config"
	"github.com/chameleon-db/chameleondb/integrity/pkg/engine"
)

var (
	verbose    bool
	noColor    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Inspect the constraint names a schema generates",
	Long: `integrity resolves the PostgreSQL constraint names generated for an
entity schema, prints the DDL that creates them and checks them against a
live database.

The schema file defaults to schema.path in .integrity.yml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
		setupLogger(zerolog.InfoLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log generated SQL and constraint changes")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.FileName+")")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

// setupLogger sends engine logs to stderr. --verbose always wins over level.
func setupLogger(level zerolog.Level) {
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: color.NoColor, TimeFormat: "15:04:05"}
	engine.SetLogger(zerolog.New(out).Level(level).With().Timestamp().Logger())
}

// loadConfig reads the project config. An explicit --config must exist;
// otherwise a missing .integrity.yml falls back to defaults.
func loadConfig() (*config.Config, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	loader := config.NewLoader(workDir).WithFile(configPath)

	var cfg *config.Config
	if configPath != "" {
		cfg, err = loader.Load()
	} else {
		cfg, err = loader.LoadOrDefault()
	}
	if err != nil {
		return nil, err
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil && cfg.Logging.Level != "" {
		setupLogger(level)
	}
	return cfg, nil
}

// loadEngine loads the schema named on the command line, or the configured one
func loadEngine(args []string, cfg *config.Config) (*engine.Engine, error) {
	path := cfg.Schema.Path
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, fmt.Errorf("no schema file given and schema.path is not configured")
	}

	eng, err := engine.NewEngineWithSchema(path)
	if err != nil {
		return nil, err
	}
	engine.Logger().Debug().Str("path", path).Int("entities", len(eng.Schema().Entities)).Msg("schema loaded")
	return eng, nil
}
