package cliconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Environment variable names
const (
	EnvConfig                 = "TP2_CONFIG"
	EnvPort                   = "TP2_PORT"
	EnvReadTimeout            = "TP2_READ_TIMEOUT"
	EnvWriteTimeout           = "TP2_WRITE_TIMEOUT"
	EnvShutdownTimeout        = "TP2_SHUTDOWN_TIMEOUT"
	EnvLogLevel               = "TP2_LOG_LEVEL"
	EnvLogFormat              = "TP2_LOG_FORMAT"
	EnvLogFile                = "TP2_LOG_FILE"
	EnvAppName                = "TP2_APP_NAME"
	EnvAppVersion             = "TP2_APP_VERSION"
	EnvMetricsPath            = "TP2_METRICS_PATH"
	EnvRuntimeMetricsInterval = "TP2_RUNTIME_METRICS_INTERVAL"
	EnvCORSOrigins            = "TP2_CORS_ORIGINS"
)

// LoadEnvConfig applies environment values found through lookup to cfg,
// recording source for each one. Values that fail to parse are reported
// together and leave their field unchanged.
func LoadEnvConfig(cfg *Config, lookup func(string) (string, bool), source string) error {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	var errs []error
	intVar := func(env, key string, dst *int) {
		v, ok := lookup(env)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", env, v))
			return
		}
		*dst = n
		cfg.Sources[key] = source
	}
	stringVar := func(env, key string, dst *string) {
		if v, ok := lookup(env); ok && v != "" {
			*dst = v
			cfg.Sources[key] = source
		}
	}

	intVar(EnvPort, "port", &cfg.Port)
	intVar(EnvReadTimeout, "readTimeout", &cfg.ReadTimeout)
	intVar(EnvWriteTimeout, "writeTimeout", &cfg.WriteTimeout)
	intVar(EnvShutdownTimeout, "shutdownTimeout", &cfg.ShutdownTimeout)
	intVar(EnvRuntimeMetricsInterval, "runtimeMetricsInterval", &cfg.RuntimeMetricsInterval)

	stringVar(EnvLogLevel, "logLevel", &cfg.LogLevel)
	stringVar(EnvLogFormat, "logFormat", &cfg.LogFormat)
	stringVar(EnvLogFile, "logFile", &cfg.LogFile)
	stringVar(EnvAppName, "appName", &cfg.AppName)
	stringVar(EnvAppVersion, "appVersion", &cfg.AppVersion)
	stringVar(EnvMetricsPath, "metricsPath", &cfg.MetricsPath)

	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		cfg.CORSOrigins = splitList(v)
		cfg.Sources["corsOrigins"] = source
	}

	return errors.Join(errs...)
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
