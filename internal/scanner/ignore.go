package scanner

import (
	"path"
	"strings"
)

// IgnorePattern is a single parsed .cppflowignore rule. Rules follow
// gitignore conventions: a leading "!" negates, a trailing "/" matches a
// directory and everything under it, a leading "/" anchors the rule to the
// scan root, and "**" spans any number of path segments.
type IgnorePattern struct {
	raw        string
	segments   []string
	isNegation bool
	isDir      bool
	isAnchored bool
}

// ParseIgnorePattern parses a single rule line.
func ParseIgnorePattern(pattern string) IgnorePattern {
	p := IgnorePattern{raw: pattern}

	if strings.HasPrefix(pattern, "!") {
		p.isNegation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		p.isDir = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		p.isAnchored = true
		pattern = pattern[1:]
	}
	p.segments = strings.Split(pattern, "/")

	return p
}

// IsNegation reports whether this rule un-ignores matching paths.
func (p IgnorePattern) IsNegation() bool {
	return p.isNegation
}

// Match reports whether the slash-separated relative path matches this rule.
// Negation is not applied here; the caller decides what a match means.
func (p IgnorePattern) Match(relPath string) bool {
	parts := strings.Split(strings.Trim(relPath, "/"), "/")

	// Directory rules match any path that lives under the named directory,
	// so the rule only needs to cover a prefix of the path.
	if p.isAnchored {
		return matchFrom(p.segments, parts, p.isDir)
	}
	for start := 0; start < len(parts); start++ {
		if matchFrom(p.segments, parts[start:], p.isDir) {
			return true
		}
	}
	return false
}

// matchFrom matches rule segments against path segments starting at the
// same position. When prefix is true the rule may stop before the path
// ends; otherwise it must consume the whole path.
func matchFrom(rule, parts []string, prefix bool) bool {
	if len(rule) == 0 {
		return prefix || len(parts) == 0
	}
	if rule[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchFrom(rule[1:], parts[i:], prefix) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	if !matchSegment(rule[0], parts[0]) {
		return false
	}
	return matchFrom(rule[1:], parts[1:], prefix)
}

// matchSegment matches one rule segment against one path segment. Literal
// segments compare case-insensitively; segments with glob metacharacters
// use path.Match semantics.
func matchSegment(pattern, segment string) bool {
	if !strings.ContainsAny(pattern, "*?[") {
		return strings.EqualFold(pattern, segment)
	}
	ok, err := path.Match(pattern, segment)
	return err == nil && ok
}
