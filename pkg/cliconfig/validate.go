package cliconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cap-mahdi/TP2-devops/pkg/logging"
)

// reservedPaths are served by the users API and cannot host the metrics endpoint.
var reservedPaths = []string{"/users", "/health"}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range (1-65535)", c.Port))
	}
	for _, t := range []struct {
		key string
		v   int
	}{
		{"readTimeout", c.ReadTimeout},
		{"writeTimeout", c.WriteTimeout},
		{"shutdownTimeout", c.ShutdownTimeout},
	} {
		if t.v < 1 || t.v > 3600 {
			errs = append(errs, fmt.Errorf("%s %d is out of range (1-3600)", t.key, t.v))
		}
	}
	if c.RuntimeMetricsInterval > 3600 {
		errs = append(errs, fmt.Errorf("runtimeMetricsInterval %d is out of range (max 3600)", c.RuntimeMetricsInterval))
	}

	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("logLevel %q must be one of debug, info, warn, error", c.LogLevel))
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Errorf("logFormat %q must be text or json", c.LogFormat))
	}

	switch {
	case !strings.HasPrefix(c.MetricsPath, "/") || c.MetricsPath == "/":
		errs = append(errs, fmt.Errorf("metricsPath %q must be an absolute path other than /", c.MetricsPath))
	case strings.ContainsAny(c.MetricsPath, "{} \t"):
		errs = append(errs, fmt.Errorf("metricsPath %q must not contain spaces or wildcards", c.MetricsPath))
	default:
		for _, p := range reservedPaths {
			if c.MetricsPath == p || strings.HasPrefix(c.MetricsPath, p+"/") {
				errs = append(errs, fmt.Errorf("metricsPath %q conflicts with %s", c.MetricsPath, p))
			}
		}
	}

	if strings.TrimSpace(c.AppName) == "" {
		errs = append(errs, errors.New("appName must not be empty"))
	}

	return errors.Join(errs...)
}
