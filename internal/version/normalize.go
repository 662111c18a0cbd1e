// Package version provides version normalization and comparison for
// upstream version checking.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoMatch is returned when a version_regex does not match the raw tag.
	// It is a fallback signal, not a failure: callers should use the
	// undecorated tag instead.
	ErrNoMatch = errors.New("version pattern did not match")
	// ErrInvalidPattern is returned when a version_regex does not compile
	ErrInvalidPattern = errors.New("invalid version pattern")
)

// placeholderRegex matches $1..$9 placeholders in a version_format template
var placeholderRegex = regexp.MustCompile(`\$([1-9])`)

// StripDecorations removes conventional tag decorations from a raw upstream
// identifier: a leading "refs/tags/" prefix, a leading "v" or "V" marker
// directly followed by a digit, and any CR/LF noise.
func StripDecorations(raw string) string {
	s := strings.Trim(raw, "\r\n")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.TrimPrefix(s, "refs/tags/")

	// Only strip the v marker when it actually precedes a version number,
	// so tags like "vim-9.1" keep their name.
	if len(s) >= 2 && (s[0] == 'v' || s[0] == 'V') && s[1] >= '0' && s[1] <= '9' {
		s = s[1:]
	}

	return s
}

// ApplyFormat matches pattern against raw, anchored at the start, and
// substitutes $1..$9 placeholders in template with the corresponding capture
// groups. A group that did not participate in the match substitutes the
// empty string. A non-match returns ErrNoMatch so the caller can fall back
// to the undecorated tag.
func ApplyFormat(raw, pattern, template string) (string, error) {
	if !strings.HasPrefix(pattern, "^") {
		pattern = "^" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	matches := re.FindStringSubmatch(raw)
	if matches == nil {
		return "", ErrNoMatch
	}

	result := placeholderRegex.ReplaceAllStringFunc(template, func(ph string) string {
		idx := int(ph[1] - '0')
		if idx >= len(matches) {
			return ""
		}
		return matches[idx]
	})

	return result, nil
}

// Normalize applies the full normalization pipeline to a raw upstream
// identifier: strip decorations, then apply the optional regex-to-template
// transform. When the transform does not match, the undecorated tag is
// returned as-is.
func Normalize(raw, pattern, template string) (string, error) {
	s := StripDecorations(raw)
	if pattern == "" || template == "" {
		return s, nil
	}

	formatted, err := ApplyFormat(s, pattern, template)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			return s, nil
		}
		return "", err
	}

	return formatted, nil
}

// SelectMax returns the maximum version among candidates according to cmp.
// An empty input yields an empty string, never an error.
func SelectMax(cmp Comparator, versions []string) string {
	if len(versions) == 0 {
		return ""
	}

	max := versions[0]
	for _, v := range versions[1:] {
		if cmp.Compare(v, max) > 0 {
			max = v
		}
	}

	return max
}
