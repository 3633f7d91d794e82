// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix for all environment variables.
	EnvPrefix = "CHUNKPLAN"
	// ProjectConfigFile is the project-level config file name.
	ProjectConfigFile = ".chunkplan.yaml"
	// GlobalConfigDir is the global config directory name.
	GlobalConfigDir = ".chunkplan"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Loader loads configuration from files and environment.
type Loader struct {
	projectRoot string
	skipGlobal  bool
	explicit    string
}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// WithProjectRoot sets the project root directory.
func (l *Loader) WithProjectRoot(root string) *Loader {
	l.projectRoot = root
	return l
}

// WithFile loads the given file in place of the project config.
// Unlike the project config, a missing explicit file is an error.
func (l *Loader) WithFile(path string) *Loader {
	l.explicit = path
	return l
}

// SkipGlobal skips loading global config.
func (l *Loader) SkipGlobal() *Loader {
	l.skipGlobal = true
	return l
}

// Load loads configuration with full precedence order:
// 1. Defaults
// 2. Global Config ($HOME/.chunkplan/config.yaml)
// 3. Project Config (./.chunkplan.yaml) or the explicit file
// 4. Environment Variables (CHUNKPLAN_*)
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Load global config if not skipped
	if !l.skipGlobal {
		globalCfg, err := l.loadGlobalConfig()
		if err == nil {
			mergeConfig(cfg, globalCfg)
		}
		// Ignore errors for global config (it's optional)
	}

	if l.explicit != "" {
		fileCfg, err := l.LoadFromPath(l.explicit)
		if err != nil {
			return nil, err
		}
		mergeConfig(cfg, fileCfg)
	} else {
		projectCfg, err := l.loadProjectConfig()
		if err == nil {
			mergeConfig(cfg, projectCfg)
		}
		// Ignore errors for project config (it's optional)
	}

	// Apply environment overrides
	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path.
func (l *Loader) LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	return cfg, nil
}

// loadGlobalConfig loads global config from $HOME/.chunkplan/config.yaml.
func (l *Loader) loadGlobalConfig() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	globalPath := filepath.Join(homeDir, GlobalConfigDir, GlobalConfigFile)
	return l.LoadFromPath(globalPath)
}

// loadProjectConfig loads project config from ./.chunkplan.yaml.
func (l *Loader) loadProjectConfig() (*Config, error) {
	root := l.projectRoot
	if root == "" {
		root = "."
	}

	projectPath := filepath.Join(root, ProjectConfigFile)
	return l.LoadFromPath(projectPath)
}

// applyEnvOverrides applies environment variable overrides.
// Format: CHUNKPLAN_SECTION__KEY=value
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	// Oracle settings
	if v := os.Getenv("CHUNKPLAN_ORACLE__BACKEND"); v != "" {
		cfg.Oracle.Backend = v
	}
	if v := os.Getenv("CHUNKPLAN_ORACLE__PROVIDER"); v != "" {
		cfg.Oracle.Provider = v
	}
	if v := os.Getenv("CHUNKPLAN_ORACLE__MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := os.Getenv("CHUNKPLAN_ORACLE__BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := os.Getenv("CHUNKPLAN_ORACLE__TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{
				Field: "oracle.timeout",
				Err:   err,
			}
		}
		cfg.Oracle.Timeout = d
	}

	// Planner settings
	if v := os.Getenv("CHUNKPLAN_PLANNER__SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return &ConfigError{Field: "planner.seed", Err: err}
		}
		cfg.Planner.Seed = seed
	}
	if v := os.Getenv("CHUNKPLAN_PLANNER__NUM_CHUNK_SIZES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: "planner.num_chunk_sizes", Err: err}
		}
		cfg.Planner.NumChunkSizes = n
	}

	// Cache and store
	if v := os.Getenv("CHUNKPLAN_CACHE__PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("CHUNKPLAN_STORE__PATH"); v != "" {
		cfg.Store.Path = v
	}

	// Global settings
	if v := os.Getenv("CHUNKPLAN_GLOBAL__LOG_LEVEL"); v != "" {
		cfg.Global.LogLevel = v
	}

	return nil
}

// mergeConfig merges src into dst (src overrides dst).
func mergeConfig(dst, src *Config) {
	if src.Oracle.Backend != "" {
		dst.Oracle.Backend = src.Oracle.Backend
	}
	if src.Oracle.Provider != "" {
		dst.Oracle.Provider = src.Oracle.Provider
	}
	if src.Oracle.Model != "" {
		dst.Oracle.Model = src.Oracle.Model
	}
	if src.Oracle.BaseURL != "" {
		dst.Oracle.BaseURL = src.Oracle.BaseURL
	}
	if src.Oracle.APIKeyEnv != "" {
		dst.Oracle.APIKeyEnv = src.Oracle.APIKeyEnv
	}
	if src.Oracle.Timeout > 0 {
		dst.Oracle.Timeout = src.Oracle.Timeout
	}
	if src.Oracle.Temperature > 0 {
		dst.Oracle.Temperature = src.Oracle.Temperature
	}
	if src.Oracle.MaxTokens > 0 {
		dst.Oracle.MaxTokens = src.Oracle.MaxTokens
	}
	if src.Oracle.CLIPath != "" {
		dst.Oracle.CLIPath = src.Oracle.CLIPath
	}
	if src.Oracle.DetectInjection != "" {
		dst.Oracle.DetectInjection = src.Oracle.DetectInjection
	}

	if src.Planner.NumChunkSizes > 0 {
		dst.Planner.NumChunkSizes = src.Planner.NumChunkSizes
	}
	if src.Planner.Seed > 0 {
		dst.Planner.Seed = src.Planner.Seed
	}
	if src.Planner.Concurrency > 0 {
		dst.Planner.Concurrency = src.Planner.Concurrency
	}

	if src.Cache.Enabled {
		dst.Cache.Enabled = true
	}
	if src.Cache.Backend != "" {
		dst.Cache.Backend = src.Cache.Backend
	}
	if src.Cache.Path != "" {
		dst.Cache.Path = src.Cache.Path
	}
	if src.Cache.TTL > 0 {
		dst.Cache.TTL = src.Cache.TTL
	}

	if src.Store.Enabled {
		dst.Store.Enabled = true
	}
	if src.Store.Path != "" {
		dst.Store.Path = src.Store.Path
	}

	if src.Global.LogLevel != "" {
		dst.Global.LogLevel = src.Global.LogLevel
	}
	if src.Global.LogFormat != "" {
		dst.Global.LogFormat = src.Global.LogFormat
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return "config error in " + e.Path + ": " + e.Err.Error()
	}
	if e.Field != "" {
		return "config error for " + e.Field + ": " + e.Err.Error()
	}
	return "config error: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// GetEnvConfig returns all environment variables that start with CHUNKPLAN_.
func GetEnvConfig() map[string]string {
	result := make(map[string]string)

	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			kv := strings.SplitN(env, "=", 2)
			if len(kv) == 2 {
				result[kv[0]] = kv[1]
			}
		}
	}

	return result
}
