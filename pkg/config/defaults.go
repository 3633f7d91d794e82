// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns the default configuration.
// These values are used when no config file is present.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, GlobalConfigDir)

	return &Config{
		Oracle:  DefaultOracleConfig(),
		Planner: DefaultPlannerConfig(),
		Cache:   DefaultCacheConfig(dataDir),
		Store:   DefaultStoreConfig(dataDir),
		Global:  DefaultGlobalConfig(),
	}
}

// DefaultOracleConfig returns default oracle configuration.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{
		Backend:         "http",
		Provider:        "openai",
		Model:           "gpt-4o-mini",
		APIKeyEnv:       "OPENAI_API_KEY",
		Timeout:         120 * time.Second,
		Temperature:     0,
		CLIPath:         "claude",
		DetectInjection: "warn",
	}
}

// DefaultPlannerConfig returns default planner configuration.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		NumChunkSizes: 5,
		Seed:          0,
		Concurrency:   4,
	}
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig(dataDir string) CacheConfig {
	return CacheConfig{
		Enabled: false,
		Backend: "memory",
		Path:    filepath.Join(dataDir, "judgments.db"),
		TTL:     24 * time.Hour,
	}
}

// DefaultStoreConfig returns default plan store configuration.
func DefaultStoreConfig(dataDir string) StoreConfig {
	return StoreConfig{
		Enabled: false,
		Path:    filepath.Join(dataDir, "plans.db"),
	}
}

// DefaultGlobalConfig returns default global configuration.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		LogLevel:  "info",
		LogFormat: "text",
	}
}
