// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates a configuration.
func (v *Validator) Validate(cfg *Config) error {
	if err := v.ValidateOracle(&cfg.Oracle); err != nil {
		return err
	}
	if err := v.ValidatePlanner(&cfg.Planner); err != nil {
		return err
	}
	if err := v.ValidateCache(&cfg.Cache); err != nil {
		return err
	}
	if err := v.ValidateGlobal(&cfg.Global); err != nil {
		return err
	}
	return nil
}

// ValidateOracle validates oracle configuration.
func (v *Validator) ValidateOracle(cfg *OracleConfig) error {
	if err := oneOf("oracle.backend", cfg.Backend, "http", "cli"); err != nil {
		return err
	}
	if cfg.Backend == "http" {
		if err := oneOf("oracle.provider", cfg.Provider, "openai", "openrouter", "ollama"); err != nil {
			return err
		}
	}
	if cfg.DetectInjection != "" {
		if err := oneOf("oracle.detect_injection", cfg.DetectInjection, "off", "warn", "block"); err != nil {
			return err
		}
	}

	if cfg.Timeout < 0 {
		return &ValidationError{
			Field:   "oracle.timeout",
			Value:   cfg.Timeout,
			Message: "must be positive",
		}
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return &ValidationError{
			Field:   "oracle.temperature",
			Value:   cfg.Temperature,
			Message: "must be between 0 and 2",
		}
	}

	return nil
}

// ValidatePlanner validates planner configuration.
func (v *Validator) ValidatePlanner(cfg *PlannerConfig) error {
	if cfg.NumChunkSizes < 1 {
		return &ValidationError{
			Field:   "planner.num_chunk_sizes",
			Value:   cfg.NumChunkSizes,
			Message: "must be at least 1",
		}
	}
	if cfg.Concurrency < 1 {
		return &ValidationError{
			Field:   "planner.concurrency",
			Value:   cfg.Concurrency,
			Message: "must be at least 1",
		}
	}
	return nil
}

// ValidateCache validates cache configuration.
func (v *Validator) ValidateCache(cfg *CacheConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if err := oneOf("cache.backend", cfg.Backend, "memory", "disk"); err != nil {
		return err
	}
	if cfg.Backend == "disk" && cfg.Path == "" {
		return &ValidationError{
			Field:   "cache.path",
			Message: "required for the disk backend",
		}
	}
	return nil
}

// ValidateGlobal validates global configuration.
func (v *Validator) ValidateGlobal(cfg *GlobalConfig) error {
	if cfg.LogLevel != "" {
		if err := oneOf("global.log_level", cfg.LogLevel, "debug", "info", "warn", "error"); err != nil {
			return err
		}
	}
	if cfg.LogFormat != "" {
		if err := oneOf("global.log_format", cfg.LogFormat, "text", "json"); err != nil {
			return err
		}
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error for %s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}
