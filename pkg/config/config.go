// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config provides configuration management for chunkplan.
//
// Configuration Loading Order (later overrides earlier):
// 1. Defaults (hardcoded)
// 2. Global Config: $HOME/.chunkplan/config.yaml
// 3. Project Config: ./.chunkplan.yaml
// 4. Environment Variables: CHUNKPLAN_*
// 5. Command line flags (applied by cmd/chunkplan)
package config

import (
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	Oracle  OracleConfig  `yaml:"oracle"`
	Planner PlannerConfig `yaml:"planner"`
	Cache   CacheConfig   `yaml:"cache"`
	Store   StoreConfig   `yaml:"store"`
	Global  GlobalConfig  `yaml:"global"`
}

// OracleConfig selects and tunes the judgment backend.
type OracleConfig struct {
	Backend     string        `yaml:"backend"`  // http, cli
	Provider    string        `yaml:"provider"` // openai, openrouter, ollama (http backend)
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"` // e.g., "OPENAI_API_KEY"
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	CLIPath     string        `yaml:"cli_path"` // cli backend binary, e.g. "claude"
	// DetectInjection scans outgoing sample text: off, warn, block
	DetectInjection string `yaml:"detect_injection"`
}

// PlannerConfig contains chunk planning settings.
type PlannerConfig struct {
	NumChunkSizes int    `yaml:"num_chunk_sizes"`
	Seed          uint64 `yaml:"seed"` // 0 = random per session
	Concurrency   int    `yaml:"concurrency"`
}

// CacheConfig controls caching of oracle judgments.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Backend string        `yaml:"backend"` // memory, disk
	Path    string        `yaml:"path"`    // bbolt file for the disk backend
	TTL     time.Duration `yaml:"ttl"`
}

// StoreConfig controls persistence of finished plans.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // sqlite database
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}
