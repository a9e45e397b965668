// Package envfile parses key-value environment files and substitutes
// variable placeholders. Declarations reference env files by path; the
// exact variable names they carry are opaque to the topology itself.
package envfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ErrMalformedLine is returned for lines that are neither comments,
// blanks, nor KEY=VALUE pairs.
var ErrMalformedLine = errors.New("malformed env file line")

// keyRegex matches a POSIX-style variable name.
var keyRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Parse reads KEY=VALUE pairs from r. Blank lines and lines starting with
// '#' are skipped. An optional "export " prefix is accepted. Values may be
// single- or double-quoted; quotes are stripped.
func Parse(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.TrimPrefix(line, "export ")
		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrMalformedLine)
		}

		key = strings.TrimSpace(key)
		if !keyRegex.MatchString(key) {
			return nil, fmt.Errorf("line %d: invalid key %q: %w", lineNo, key, ErrMalformedLine)
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		vars[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return vars, nil
}

// =============================================================================
// Variable Substitution
// =============================================================================

// varPlaceholderRegex matches ${VAR} and ${VAR:-default} patterns.
// Groups:
//   - Group 1: Variable name (required)
//   - Group 2: Default value (optional, after :-)
var varPlaceholderRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Substitute replaces ${VAR} and ${VAR:-default} placeholders with values
// from the variables map.
//
// Behavior:
//   - ${VAR} - replaced with variables["VAR"] if exists, otherwise kept as-is
//   - ${VAR:-default} - replaced with variables["VAR"] if exists, otherwise "default"
//   - Unmatched text is left unchanged
func Substitute(value string, variables map[string]string) string {
	if variables == nil {
		variables = make(map[string]string)
	}

	return varPlaceholderRegex.ReplaceAllStringFunc(value, func(match string) string {
		submatch := varPlaceholderRegex.FindStringSubmatch(match)
		if len(submatch) >= 2 {
			varName := submatch[1]
			if val, ok := variables[varName]; ok {
				return val
			}
			if strings.HasPrefix(match, "${"+varName+":-") {
				// Default applies even when empty
				return submatch[2]
			}
		}
		return match
	})
}

// Placeholders extracts the unique variable names referenced as ${VAR} or
// ${VAR:-default} in content, in first-seen order.
func Placeholders(content string) []string {
	seen := make(map[string]bool)
	var vars []string

	for _, match := range varPlaceholderRegex.FindAllStringSubmatch(content, -1) {
		if len(match) >= 2 {
			name := match[1]
			if !seen[name] {
				seen[name] = true
				vars = append(vars, name)
			}
		}
	}

	return vars
}
