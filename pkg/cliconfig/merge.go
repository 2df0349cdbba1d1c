package cliconfig

import "slices"

// MergeConfig merges source config into target, updating sources tracking.
// Only non-zero values from source are applied.
func MergeConfig(target, source *Config, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	mergeInt(target, &target.Port, source.Port, "port", sourceType)
	mergeInt(target, &target.ReadTimeout, source.ReadTimeout, "readTimeout", sourceType)
	mergeInt(target, &target.WriteTimeout, source.WriteTimeout, "writeTimeout", sourceType)
	mergeInt(target, &target.ShutdownTimeout, source.ShutdownTimeout, "shutdownTimeout", sourceType)
	mergeInt(target, &target.RuntimeMetricsInterval, source.RuntimeMetricsInterval, "runtimeMetricsInterval", sourceType)

	mergeString(target, &target.LogLevel, source.LogLevel, "logLevel", sourceType)
	mergeString(target, &target.LogFormat, source.LogFormat, "logFormat", sourceType)
	mergeString(target, &target.LogFile, source.LogFile, "logFile", sourceType)
	mergeString(target, &target.AppName, source.AppName, "appName", sourceType)
	mergeString(target, &target.AppVersion, source.AppVersion, "appVersion", sourceType)
	mergeString(target, &target.MetricsPath, source.MetricsPath, "metricsPath", sourceType)

	if len(source.CORSOrigins) > 0 {
		target.CORSOrigins = slices.Clone(source.CORSOrigins)
		target.Sources["corsOrigins"] = sourceType
	}
	if source.ConfigFile != "" {
		target.ConfigFile = source.ConfigFile
	}
}

func mergeInt(target *Config, dst *int, v int, key, sourceType string) {
	if v != 0 {
		*dst = v
		target.Sources[key] = sourceType
	}
}

func mergeString(target *Config, dst *string, v, key, sourceType string) {
	if v != "" {
		*dst = v
		target.Sources[key] = sourceType
	}
}
