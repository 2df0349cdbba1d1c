package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	json       bool
	configFile string
	envFile    string
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "tp2-backend",
		Short: "tp2-backend serves a users API instrumented with Prometheus metrics",
		Long: `tp2-backend serves a small users CRUD API and exposes request, business
and runtime metrics in the Prometheus text format.

Configuration can be provided via flags, TP2_* environment variables, a .env
file or a YAML config file. By default tp2-backend looks for .tp2rc.yaml in
the current directory.`,
		SilenceUsage:  true,
		SilenceErrors: true, // handled in Execute()
	}

	root.PersistentFlags().BoolVar(&g.json, "json", false, "Output command results in JSON format")
	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", "", "Path to a dotenv file (default: .env)")

	root.AddCommand(
		newServeCmd(g),
		newConfigCmd(g),
		newMetricsCmd(g),
		newVersionCmd(g),
	)
	return root
}

// Execute runs the root command with os.Args. It is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
