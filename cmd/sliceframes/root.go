package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sliceframes/pkg/config"
)

// app carries the state shared by all subcommands
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "sliceframes",
		Short: "Turn image sequences into videos and volume stacks into layer files",
		Long: `sliceframes assembles a directory of images into an MJPEG AVI video and
dumps every slice of a volumetric image stack into a plain-text layer file.

Settings come from a YAML config file, SLICEFRAMES_* environment variables
(a .env file is loaded when present) and command flags, in increasing order
of precedence.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "sliceframes.yaml", "YAML configuration file")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newVideoCmd(a))
	cmd.AddCommand(newLayersCmd(a))
	cmd.AddCommand(newRenderCmd(a))
	cmd.AddCommand(newInspectCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

// setup loads .env, the config file and environment overrides
func (a *app) setup(cmd *cobra.Command, args []string) error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Log.Verbose = a.verbose
	}

	setupLogging(cmd.ErrOrStderr(), cfg.Log.Verbose)
	slog.Debug("configuration loaded", "path", a.configPath)

	a.cfg = cfg
	return nil
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// validated returns the configuration after the command's flag overrides
func (a *app) validated() (*config.Config, error) {
	if a.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return a.cfg, nil
}
