// Package template discovers and rewrites variable references in the
// Jinja-style prompt templates operations are declared with.
package template

import (
	"regexp"
	"strings"
)

const (
	// InputPrefix scopes record fields inside prompt templates.
	InputPrefix = "input."
	// ChunkContentVar is the single variable every per-chunk prompt addresses.
	ChunkContentVar = "input.chunk_content"
)

var (
	expressionPattern = regexp.MustCompile(`\{\{-?\s*(.*?)\s*-?\}\}`)
	statementPattern  = regexp.MustCompile(`\{%-?\s*(.*?)\s*-?%\}`)
	forPattern        = regexp.MustCompile(`^for\s+([A-Za-z_][\w,\s]*?)\s+in\s+(.+)$`)
	pathPattern       = regexp.MustCompile(`[A-Za-z_][\w]*(?:\.[A-Za-z_][\w]*)*`)
	stringPattern     = regexp.MustCompile(`"[^"]*"|'[^']*'`)
	tagPattern        = regexp.MustCompile(`(?s)\{\{.*?\}\}|\{%.*?%\}`)
	tokenPattern      = regexp.MustCompile(`"[^"]*"|'[^']*'|[A-Za-z_]\w*(?:\.[A-Za-z_]\w*)*`)
)

// keywords never name a variable.
var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"if": true, "else": true, "elif": true, "endif": true,
	"for": true, "endfor": true, "set": true, "endset": true,
	"true": true, "false": true, "none": true,
	"True": true, "False": true, "None": true,
	"loop": true,
}

// Variables returns the dotted variable paths a template references, in
// first-seen order without duplicates. Filters, string literals, keywords and
// for-loop locals are excluded.
func Variables(tpl string) []string {
	var out []string
	seen := map[string]bool{}
	locals := map[string]bool{}

	add := func(expr string) {
		expr = stringPattern.ReplaceAllString(expr, "")
		for _, path := range pathPattern.FindAllString(expr, -1) {
			root := path
			if i := strings.IndexByte(path, '.'); i >= 0 {
				root = path[:i]
			}
			if keywords[root] || locals[root] || seen[path] {
				continue
			}
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, m := range statementPattern.FindAllStringSubmatch(tpl, -1) {
		stmt := strings.TrimSpace(m[1])
		if fm := forPattern.FindStringSubmatch(stmt); fm != nil {
			for _, name := range strings.Split(fm[1], ",") {
				locals[strings.TrimSpace(name)] = true
			}
			add(stripFilters(fm[2]))
			continue
		}
		if rest, ok := cutKeyword(stmt, "if", "elif"); ok {
			add(stripFilters(rest))
		}
	}

	for _, m := range expressionPattern.FindAllStringSubmatch(tpl, -1) {
		add(stripFilters(m[1]))
	}

	return out
}

// StripInputPrefix removes the input scope from a variable name.
func StripInputPrefix(name string) string {
	return strings.ReplaceAll(name, InputPrefix, "")
}

// StripInputPrefixes applies StripInputPrefix to every name.
func StripInputPrefixes(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = StripInputPrefix(n)
	}
	return out
}

// Replace rewrites every exact "{{ from }}" interpolation to "{{ to }}".
func Replace(tpl, from, to string) string {
	return strings.ReplaceAll(tpl, "{{ "+from+" }}", "{{ "+to+" }}")
}

// ReplaceAll points every variable the template references at to. The
// variable path is rewritten as a whole identifier inside any "{{ }}" or
// "{% %}" tag, so spacing variants, filtered interpolations such as
// "{{ v | truncate(50) }}" and conditions like "{% if v %}" all follow.
// Filters and string literals are kept as they are.
func ReplaceAll(tpl, to string) string {
	vars := map[string]bool{}
	for _, v := range Variables(tpl) {
		vars[v] = true
	}
	if len(vars) == 0 {
		return tpl
	}
	return tagPattern.ReplaceAllStringFunc(tpl, func(tag string) string {
		return tokenPattern.ReplaceAllStringFunc(tag, func(tok string) string {
			if vars[tok] {
				return to
			}
			return tok
		})
	})
}

// Reference renders a variable as an interpolation, e.g. "{{ input.text }}".
func Reference(name string) string {
	return "{{ " + name + " }}"
}

// stripFilters drops everything after the first filter pipe.
func stripFilters(expr string) string {
	if i := strings.IndexByte(expr, '|'); i >= 0 {
		return expr[:i]
	}
	return expr
}

func cutKeyword(stmt string, words ...string) (string, bool) {
	for _, w := range words {
		if strings.HasPrefix(stmt, w+" ") {
			return strings.TrimSpace(stmt[len(w):]), true
		}
	}
	return "", false
}
