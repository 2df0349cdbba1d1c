package cliconfig

// DefaultPort is the default HTTP port.
const DefaultPort = 4000

// DefaultReadTimeout is the default read timeout in seconds.
const DefaultReadTimeout = 30

// DefaultWriteTimeout is the default write timeout in seconds.
const DefaultWriteTimeout = 30

// DefaultShutdownTimeout is the default graceful shutdown timeout in seconds.
const DefaultShutdownTimeout = 10

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "info"

// DefaultLogFormat is the default log format.
const DefaultLogFormat = "text"

// DefaultAppName is the default value of the app label.
const DefaultAppName = "tp2-devops-backend"

// DefaultAppVersion is the default value of the version label.
const DefaultAppVersion = "1.0.0"

// DefaultMetricsPath is where the exposition is served.
const DefaultMetricsPath = "/metrics"

// DefaultRuntimeMetricsInterval is the runtime collection interval in seconds.
const DefaultRuntimeMetricsInterval = 10

// NewDefault creates a new Config with default values.
func NewDefault() *Config {
	cfg := &Config{
		Port:                   DefaultPort,
		ReadTimeout:            DefaultReadTimeout,
		WriteTimeout:           DefaultWriteTimeout,
		ShutdownTimeout:        DefaultShutdownTimeout,
		LogLevel:               DefaultLogLevel,
		LogFormat:              DefaultLogFormat,
		AppName:                DefaultAppName,
		AppVersion:             DefaultAppVersion,
		MetricsPath:            DefaultMetricsPath,
		RuntimeMetricsInterval: DefaultRuntimeMetricsInterval,
		Sources:                make(map[string]string),
	}

	for _, key := range []string{
		"port", "readTimeout", "writeTimeout", "shutdownTimeout",
		"logLevel", "logFormat", "appName", "appVersion",
		"metricsPath", "runtimeMetricsInterval",
	} {
		cfg.Sources[key] = SourceDefault
	}

	return cfg
}
