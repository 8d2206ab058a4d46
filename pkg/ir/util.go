package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/cppflow/cppflow/pkg/syntax"
)

// CreateUniqueID builds a stable function identifier from the file path and
// qualified name. The hash suffix disambiguates overloads declared on the
// same line.
func CreateUniqueID(file, qualified, signature string) string {
	sum := sha256.Sum256([]byte(file + "\x00" + qualified + "\x00" + signature))
	return sanitizeName(qualified) + "_" + hex.EncodeToString(sum[:])[:8]
}

// ScopedID builds the deterministic identifier for module and project IR
// from a kind prefix and the element's name.
func ScopedID(prefix, name string) string {
	return prefix + "_" + sanitizeName(name)
}

// sanitizeName maps a qualified C++ name onto an identifier safe for use in
// file names and graph ids.
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ':':
			// collapse "::" into a single separator
			if !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
		default:
			if !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// FormatSignature renders a readable signature from decoded function info.
func FormatSignature(info syntax.FunctionInfo) string {
	var b strings.Builder
	if info.ReturnType != "" {
		b.WriteString(info.ReturnType)
		b.WriteByte(' ')
	}
	b.WriteString(info.Name)
	b.WriteByte('(')
	for i, p := range info.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type)
		if p.Name != "" {
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// paramInputs converts decoded parameters into IR inputs, dropping void.
func paramInputs(params []syntax.Param) []Param {
	out := make([]Param, 0, len(params))
	for _, p := range params {
		if p.Type == "void" && p.Name == "" {
			continue
		}
		out = append(out, Param{Type: p.Type, Name: p.Name})
	}
	return out
}
