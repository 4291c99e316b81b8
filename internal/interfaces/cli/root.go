// Package cli implements the metatree command tree: downloading reaction
// packages, round-tripping mapping lists, extracting templates, generating
// and searching blueprints, and running the API server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MetaTree-Curator/internal/application/curation"
	"github.com/turtacn/MetaTree-Curator/internal/config"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	DataDir    string
	Verbose    bool
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger
}

// Dependencies lets tests substitute the curator construction; the zero
// value wires the real infrastructure stack.
type Dependencies struct {
	// CuratorFactory builds the pipeline curator. online selects whether a
	// live data source connector is attached.
	CuratorFactory func(cliCtx *CLIContext, online bool) (*curation.Curator, error)
}

func (d *Dependencies) curator(cmd *cobra.Command, online bool) (*curation.Curator, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	factory := d.CuratorFactory
	if factory == nil {
		factory = newCurator
	}
	return factory(cliCtx, online)
}

// NewRootCommand creates the root cobra command with global flags and all
// subcommands attached.
func NewRootCommand(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = &Dependencies{}
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "metatree",
		Short:   "MetaTree-Curator CLI, a curation pipeline for biodegradation reaction data",
		Long:    "MetaTree-Curator downloads biodegradation reactions from enviPath,\nround-trips them through an external atom mapper, extracts reaction\ntemplates and compiles searchable blueprint libraries.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./metatree.yaml, then environment)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVar(&opts.DataDir, "data-dir", "", "dataset directory override")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		NewDownloadCmd(deps),
		NewCurateCmd(deps),
		NewBlueprintsCmd(deps),
		NewServeCmd(),
	)

	return cmd
}

// persistentPreRun loads configuration, builds the logger and stores the
// CLIContext on the command context.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := initConfig(opts)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{Config: cfg, Logger: logger}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// initConfig resolves configuration with priority flags > file > environment.
func initConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case opts.ConfigPath != "":
		cfg, err = config.Load(opts.ConfigPath)
	default:
		if _, statErr := os.Stat("./metatree.yaml"); statErr == nil {
			cfg, err = config.Load("./metatree.yaml")
		} else {
			cfg, err = config.LoadFromEnv()
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.DataDir != "" {
		cfg.Storage.DataDir = opts.DataDir
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = strings.ToLower(opts.LogLevel)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// initLogger builds a console logger writing to stderr so command output on
// stdout stays machine-readable.
func initLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts the CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLI context is not initialized")
	}
	return cliCtx, nil
}

// Execute runs the CLI with the default dependency wiring.
func Execute() error {
	rootCmd := NewRootCommand(nil)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// printJSON writes indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
