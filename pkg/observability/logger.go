// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package observability provides logging, progress reporting and metrics.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a config log level onto slog. Unknown levels fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a slog logger writing to w. format is "json" or "text".
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NopLogger discards every record.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Progress receives human readable lines about what the planner is doing.
// It is fire-and-forget: implementations must not fail the caller.
type Progress interface {
	Logf(format string, args ...any)
}

// SlogProgress forwards progress lines to a slog logger at info level.
type SlogProgress struct {
	Logger *slog.Logger
}

// Logf implements Progress.
func (p SlogProgress) Logf(format string, args ...any) {
	if p.Logger == nil {
		return
	}
	p.Logger.Info(fmt.Sprintf(format, args...))
}

// NopProgress drops every line.
type NopProgress struct{}

// Logf implements Progress.
func (NopProgress) Logf(string, ...any) {}

// WriterProgress prints one line per call, for interactive CLI use.
type WriterProgress struct {
	W io.Writer
}

// Logf implements Progress.
func (p WriterProgress) Logf(format string, args ...any) {
	if p.W == nil {
		return
	}
	fmt.Fprintf(p.W, format+"\n", args...)
}
