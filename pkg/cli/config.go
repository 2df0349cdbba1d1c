package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cap-mahdi/TP2-devops/pkg/cli/internal/output"
	"github.com/cap-mahdi/TP2-devops/pkg/cliconfig"
)

// ConfigEntry is one resolved setting.
type ConfigEntry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// ConfigOutput represents JSON output format
type ConfigOutput struct {
	ConfigFile string            `json:"configFile,omitempty"`
	Valid      bool              `json:"valid"`
	Errors     []string          `json:"errors,omitempty"`
	Settings   []ConfigEntry     `json:"settings"`
	Config     *cliconfig.Config `json:"config"`
}

func newConfigCmd(g *globalFlags) *cobra.Command {
	f := &configFlags{}
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration serve would use, and where each value came from
(default, file, dotenv, env or flag). Accepts the same flags as serve.`,
		Example: `  tp2-backend config
  tp2-backend config --port 8080 --json
  TP2_LOG_LEVEL=debug tp2-backend config --yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g, f)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if asYAML {
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			}

			out := ConfigOutput{
				ConfigFile: cfg.ConfigFile,
				Valid:      true,
				Settings:   configEntries(cfg),
				Config:     cfg,
			}
			if err := cfg.Validate(); err != nil {
				out.Valid = false
				out.Errors = strings.Split(err.Error(), "\n")
			}

			if g.json {
				return output.JSON(w, out)
			}

			if out.ConfigFile != "" {
				fmt.Fprintf(w, "Config file: %s\n\n", out.ConfigFile)
			}
			tw := output.Table(w)
			fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
			for _, e := range out.Settings {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, e.Value, e.Source)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, msg := range out.Errors {
				output.Warn(cmd.ErrOrStderr(), "%s", msg)
			}
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the configuration as YAML")
	return cmd
}

// configEntries lists every setting in a stable order.
func configEntries(cfg *cliconfig.Config) []ConfigEntry {
	values := map[string]string{
		"port":                   strconv.Itoa(cfg.Port),
		"readTimeout":            strconv.Itoa(cfg.ReadTimeout),
		"writeTimeout":           strconv.Itoa(cfg.WriteTimeout),
		"shutdownTimeout":        strconv.Itoa(cfg.ShutdownTimeout),
		"logLevel":               cfg.LogLevel,
		"logFormat":              cfg.LogFormat,
		"logFile":                cfg.LogFile,
		"appName":                cfg.AppName,
		"appVersion":             cfg.AppVersion,
		"metricsPath":            cfg.MetricsPath,
		"runtimeMetricsInterval": strconv.Itoa(cfg.RuntimeMetricsInterval),
		"corsOrigins":            strings.Join(cfg.CORSOrigins, ","),
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	entries := make([]ConfigEntry, 0, len(keys))
	for _, k := range keys {
		source := cfg.Sources[k]
		if source == "" {
			source = cliconfig.SourceDefault
		}
		entries = append(entries, ConfigEntry{Key: k, Value: values[k], Source: source})
	}
	return entries
}
