// Package cliconfig provides configuration types and loading for the
// tp2-backend CLI.
package cliconfig

import (
	"strconv"
	"time"
)

// Config represents the complete configuration for tp2-backend.
// Values can come from several sources with the following precedence:
//  1. Command-line flags (highest priority)
//  2. Environment variables (TP2_*)
//  3. A .env file in the current directory
//  4. Config file (--config, or .tp2rc.yaml in the current directory)
//  5. Default values (lowest priority)
type Config struct {
	// Server settings
	Port            int `yaml:"port" json:"port"`
	ReadTimeout     int `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout    int `yaml:"writeTimeout" json:"writeTimeout"`
	ShutdownTimeout int `yaml:"shutdownTimeout" json:"shutdownTimeout"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`
	LogFile   string `yaml:"logFile,omitempty" json:"logFile,omitempty"`

	// Service identity, exposed as default metric labels
	AppName    string `yaml:"appName" json:"appName"`
	AppVersion string `yaml:"appVersion" json:"appVersion"`

	// Metrics settings
	MetricsPath            string `yaml:"metricsPath" json:"metricsPath"`
	RuntimeMetricsInterval int    `yaml:"runtimeMetricsInterval" json:"runtimeMetricsInterval"`

	CORSOrigins []string `yaml:"corsOrigins,omitempty" json:"corsOrigins,omitempty"`

	// ConfigFile is the file the config was read from, if any.
	ConfigFile string `yaml:"-" json:"configFile,omitempty"`

	// Sources tracks where each value came from, keyed by YAML name.
	Sources map[string]string `yaml:"-" json:"-"`
}

// Config sources.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceDotenv  = "dotenv"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration.
func (c *Config) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *Config) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// RuntimeMetricsIntervalDuration returns the runtime collection interval.
// A negative RuntimeMetricsInterval disables runtime metrics and yields 0.
func (c *Config) RuntimeMetricsIntervalDuration() time.Duration {
	if c.RuntimeMetricsInterval < 0 {
		return 0
	}
	return time.Duration(c.RuntimeMetricsInterval) * time.Second
}

// DefaultLabels returns the labels attached to every exported series.
func (c *Config) DefaultLabels() map[string]string {
	labels := make(map[string]string, 2)
	if c.AppName != "" {
		labels["app"] = c.AppName
	}
	if c.AppVersion != "" {
		labels["version"] = c.AppVersion
	}
	return labels
}
