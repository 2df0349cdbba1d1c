package cliconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LocalConfigFileNames are the names to search for local config (in order).
var LocalConfigFileNames = []string{".tp2rc.yaml", ".tp2rc.yml"}

// DefaultEnvFile is the dotenv file read from the current directory.
const DefaultEnvFile = ".env"

// FindLocalConfig searches for .tp2rc.yaml or .tp2rc.yml in the current directory.
// It returns "" when neither exists.
func FindLocalConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for _, name := range LocalConfigFileNames {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// LoadConfigFile loads a Config from a YAML file. Unknown keys are rejected
// so typos do not go unnoticed.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, newYAMLError(path, err)
	}

	cfg.ConfigFile = path
	cfg.Sources = make(map[string]string)
	return &cfg, nil
}

// newYAMLError extracts the line number yaml.v3 reports, if any.
func newYAMLError(path string, err error) *ConfigError {
	ce := &ConfigError{Path: path, Message: err.Error()}
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		ce.Message = typeErr.Errors[0]
	}
	var line int
	if _, scanErr := fmt.Sscanf(ce.Message, "yaml: line %d:", &line); scanErr == nil {
		ce.Line = line
	} else if _, scanErr := fmt.Sscanf(ce.Message, "line %d:", &line); scanErr == nil {
		ce.Line = line
	}
	return ce
}

// ConfigError represents a configuration error with location info.
type ConfigError struct {
	Path    string
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return e.Path + " (line " + strconv.Itoa(e.Line) + "): " + e.Message
	}
	return e.Path + ": " + e.Message
}

// LoadOptions controls LoadAll.
type LoadOptions struct {
	// ConfigFile is an explicit config file. When empty, .tp2rc.yaml in the
	// current directory is used if present.
	ConfigFile string

	// EnvFile is the dotenv file. Defaults to DefaultEnvFile; a missing file
	// is not an error.
	EnvFile string

	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// LoadAll loads configuration from all sources and merges them.
// Precedence: env > dotenv > config file > defaults. Flags are applied by
// the caller with MergeConfig(cfg, flags, SourceFlag).
func LoadAll(opts LoadOptions) (*Config, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := NewDefault()

	path := opts.ConfigFile
	if path == "" {
		if v, ok := lookup(EnvConfig); ok && v != "" {
			path = v
		}
	}
	if path == "" {
		local, err := FindLocalConfig()
		if err != nil {
			return nil, fmt.Errorf("find local config: %w", err)
		}
		path = local
	}
	if path != "" {
		fileCfg, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, fileCfg, SourceFile)
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envFile)
	switch {
	case err == nil:
		// real environment variables always win over the file
		fromFile := func(key string) (string, bool) {
			if _, set := lookup(key); set {
				return "", false
			}
			v, ok := dotenv[key]
			return v, ok
		}
		if err := LoadEnvConfig(cfg, fromFile, SourceDotenv); err != nil {
			return nil, &ConfigError{Path: envFile, Message: err.Error()}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, &ConfigError{Path: envFile, Message: err.Error()}
	}

	if err := LoadEnvConfig(cfg, lookup, SourceEnv); err != nil {
		return nil, &ConfigError{Path: "environment", Message: err.Error()}
	}

	return cfg, nil
}
