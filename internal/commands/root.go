// Package commands implements the graphapi command line.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"evalgo.org/graphapi/internal/config"
	"evalgo.org/graphapi/internal/logging"
	"evalgo.org/graphapi/internal/version"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "graphapi",
	Short: "Serve infrastructure graphs as JSON:API documents",
	Long: `graphapi serves hosts, containers and stacks as JSON:API documents.

Relationships between resources are resolved from the stored JSON-LD
models, compound documents are built with ?include=, and sparse
fieldsets with ?fields[type]=. The render command produces the same
documents offline from a fixture file.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command.
func Execute() error {
	rootCmd.Version = version.Version
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (json, text)")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "%s" .Version}}
`)
}

// initConfig loads the configuration and builds the logger. Flags given on
// the command line win over the file and the environment.
func initConfig(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	flags := cmd.Flags()
	if f := flags.Lookup("log-level"); f != nil && f.Changed {
		cfg.Logging.Level = f.Value.String()
	}
	if f := flags.Lookup("log-format"); f != nil && f.Changed {
		cfg.Logging.Format = f.Value.String()
	}

	logger = logging.New(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		printVersion(cmd.OutOrStdout(), version.Get(), verbose)
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "verbose version output")
}

func printVersion(w io.Writer, info version.Info, verbose bool) {
	fmt.Fprintln(w, info.String())
	if !verbose {
		return
	}
	fmt.Fprintf(w, "\nDetails:\n")
	fmt.Fprintf(w, "  Version:    %s\n", info.Version)
	fmt.Fprintf(w, "  Git Commit: %s\n", info.GitCommit)
	fmt.Fprintf(w, "  Built:      %s\n", info.BuildTime)
	fmt.Fprintf(w, "  Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(w, "  Platform:   %s\n", info.Platform)
}
