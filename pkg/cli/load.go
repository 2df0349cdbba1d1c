package cli

import (
	"github.com/spf13/cobra"

	"github.com/cap-mahdi/TP2-devops/pkg/cliconfig"
)

// configFlags are the settings that can be overridden on the command line.
type configFlags struct {
	port        int
	logLevel    string
	logFormat   string
	logFile     string
	metricsPath string
}

func (f *configFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVarP(&f.port, "port", "p", cliconfig.DefaultPort, "HTTP port to listen on")
	fl.StringVar(&f.logLevel, "log-level", cliconfig.DefaultLogLevel, "Log level (debug, info, warn, error)")
	fl.StringVar(&f.logFormat, "log-format", cliconfig.DefaultLogFormat, "Log format (text, json)")
	fl.StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file")
	fl.StringVar(&f.metricsPath, "metrics-path", cliconfig.DefaultMetricsPath, "Path of the metrics endpoint")
}

// overrides returns a Config holding only the flags set on the command line.
func (f *configFlags) overrides(cmd *cobra.Command) *cliconfig.Config {
	fl := cmd.Flags()
	out := &cliconfig.Config{}
	if fl.Changed("port") {
		out.Port = f.port
	}
	if fl.Changed("log-level") {
		out.LogLevel = f.logLevel
	}
	if fl.Changed("log-format") {
		out.LogFormat = f.logFormat
	}
	if fl.Changed("log-file") {
		out.LogFile = f.logFile
	}
	if fl.Changed("metrics-path") {
		out.MetricsPath = f.metricsPath
	}
	return out
}

// loadConfig resolves the effective configuration for cmd.
func loadConfig(cmd *cobra.Command, g *globalFlags, f *configFlags) (*cliconfig.Config, error) {
	cfg, err := cliconfig.LoadAll(cliconfig.LoadOptions{
		ConfigFile: g.configFile,
		EnvFile:    g.envFile,
	})
	if err != nil {
		return nil, err
	}
	cliconfig.MergeConfig(cfg, f.overrides(cmd), cliconfig.SourceFlag)
	return cfg, nil
}
