// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// You may not use this file except in compliance with the License.

// Package security screens sampled document text for instructions aimed at
// the model before that text is embedded in a planning prompt.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// Severity represents the severity level of a detected pattern.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	default:
		return "low"
	}
}

// Mode selects what happens when a prompt looks injected.
type Mode string

const (
	ModeOff   Mode = "off"
	ModeWarn  Mode = "warn"
	ModeBlock Mode = "block"
)

// ParseMode maps a config value to a Mode. Unknown values disable screening.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWarn:
		return ModeWarn
	case ModeBlock:
		return ModeBlock
	default:
		return ModeOff
	}
}

type injectionPattern struct {
	pattern  *regexp.Regexp
	severity Severity
	category string
}

var defaultPatterns = []struct {
	pattern  string
	severity Severity
	category string
}{
	// Direct override attempts
	{`(?i)ignore\s+(all\s+)?(previous|above|prior|the)\s+(instructions?|prompts?|commands?)`, SeverityCritical, "override"},
	{`(?i)disregard\s+(all\s+)?(previous|above|prior|the)\s+(instructions?|prompts?|commands?)`, SeverityCritical, "override"},
	{`(?i)forget\s+(all\s+)?(previous|above|prior|the)\s+(instructions?|prompts?|commands?)`, SeverityCritical, "override"},

	// Role confusion
	{`(?i)you\s+are\s+now\s+(a\s+)?(new\s+)?(AI|assistant|persona|chatbot|model)`, SeverityCritical, "role_confusion"},
	{`(?i)from\s+now\s+on\s+you\s+are`, SeverityCritical, "role_confusion"},

	// System prompt extraction
	{`(?i)(show|print|reveal)\s+(me\s+)?(your|the)\s+(instructions?|system\s+prompt)`, SeverityHigh, "extraction"},

	// Answer steering aimed at the planning judgments
	{`(?i)(set|return|answer)\s+"?(needs_metadata|needs_document_head|needs_document_tail|next_context)"?\s*(to|=|:)`, SeverityHigh, "steering"},
	{`(?i)respond\s+(only|just)\s+with\s+"`, SeverityMedium, "format_manipulation"},
	{`(?i)(your\s+)?response\s+(must|should)\s+(be|start|end)\s+with`, SeverityMedium, "format_manipulation"},

	// Jailbreak vocabulary
	{`(?i)developer\s+mode`, SeverityMedium, "jailbreak"},
	{`(?i)DAN\s+(mode|protocol)`, SeverityMedium, "jailbreak"},
}

// Detector scans text for prompt injection patterns.
type Detector struct {
	patterns  []*injectionPattern
	threshold int
}

// NewDetector creates a detector flagging text that scores at least 30.
func NewDetector() *Detector {
	d := &Detector{threshold: 30}
	d.patterns = make([]*injectionPattern, 0, len(defaultPatterns))
	for _, p := range defaultPatterns {
		d.patterns = append(d.patterns, &injectionPattern{
			pattern:  regexp.MustCompile(p.pattern),
			severity: p.severity,
			category: p.category,
		})
	}
	return d
}

// DetectionResult represents the result of an injection scan.
type DetectionResult struct {
	Suspicious bool
	Score      int // 0-100
	Matches    []Match
}

// Categories lists the distinct match categories in first-seen order.
func (r *DetectionResult) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range r.Matches {
		if !seen[m.Category] {
			seen[m.Category] = true
			out = append(out, m.Category)
		}
	}
	return out
}

// Match represents a single pattern match.
type Match struct {
	Severity Severity
	Category string
	Text     string
}

// Scan scans text for injection patterns.
func (d *Detector) Scan(text string) *DetectionResult {
	result := &DetectionResult{}

	for _, pat := range d.patterns {
		for _, loc := range pat.pattern.FindAllStringIndex(text, -1) {
			result.Matches = append(result.Matches, Match{
				Severity: pat.severity,
				Category: pat.category,
				Text:     text[loc[0]:loc[1]],
			})
		}
	}

	result.Score = score(result.Matches)
	result.Suspicious = result.Score >= d.threshold
	return result
}

// Validate returns an InjectionError when text scores as suspicious.
func (d *Detector) Validate(text string) error {
	result := d.Scan(text)
	if result.Suspicious {
		return &InjectionError{Result: result}
	}
	return nil
}

func score(matches []Match) int {
	total := 0
	for _, m := range matches {
		switch m.Severity {
		case SeverityCritical:
			total += 40
		case SeverityHigh:
			total += 25
		case SeverityMedium:
			total += 10
		case SeverityLow:
			total += 3
		}
	}
	return min(total, 100)
}

// InjectionError represents an injection detection error.
type InjectionError struct {
	Result *DetectionResult
}

func (e *InjectionError) Error() string {
	if e.Result == nil {
		return "prompt contains potential injection patterns"
	}
	return fmt.Sprintf("prompt contains potential injection patterns (score %d: %s)",
		e.Result.Score, strings.Join(e.Result.Categories(), ", "))
}
