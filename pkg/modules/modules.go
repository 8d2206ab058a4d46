// Package modules partitions a project's files into modules and derives the
// dependency relation between them from textual #include directives.
// Modules are named after the first path segment of their files; files at
// the repository root fall into the "root" module.
package modules

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/cppflow/cppflow/internal/scanner"
)

// RootModule is the sentinel name for files living directly at the
// project root.
const RootModule = "root"

// includeRe matches both angle-bracket and quoted include forms.
var includeRe = regexp.MustCompile(`#include\s+[<"]([^>"]+)[>"]`)

// SourceFile is one input file with its content.
type SourceFile struct {
	Path    string // Slash-separated path relative to the project root
	Content []byte
}

// Module is one partition of the project with its classified files and
// resolved dependencies.
type Module struct {
	Name           string   `json:"name"`
	Files          []string `json:"files"`                     // All files, sorted
	Sources        []string `json:"sources,omitempty"`         // Implementation files
	PublicHeaders  []string `json:"public_headers,omitempty"`  // Headers under include/ or public/
	PrivateHeaders []string `json:"private_headers,omitempty"` // All other headers
	Dependencies   []string `json:"dependencies,omitempty"`    // Module names, sorted, no self-loop
}

// Analyzer derives module structure from a file set. Analyze is a pure
// function of its input: running it twice on the same files yields
// identical results.
type Analyzer struct{}

// NewAnalyzer returns a module analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze partitions files into modules and computes the inter-module
// dependency edges. The returned slice is sorted by module name.
func (a *Analyzer) Analyze(files []SourceFile) []Module {
	byModule := make(map[string][]SourceFile)
	for _, f := range files {
		name := ModuleName(f.Path)
		byModule[name] = append(byModule[name], f)
	}

	names := make([]string, 0, len(byModule))
	for name := range byModule {
		names = append(names, name)
	}
	sort.Strings(names)

	// filename stem -> owning module, for include resolution. An ambiguous
	// stem resolves to a single owner: first match in module name order,
	// then file path order within the module.
	stemOwner := make(map[string]string)
	for _, name := range names {
		moduleFiles := byModule[name]
		sort.Slice(moduleFiles, func(i, j int) bool { return moduleFiles[i].Path < moduleFiles[j].Path })
		for _, f := range moduleFiles {
			s := stem(f.Path)
			if _, claimed := stemOwner[s]; !claimed {
				stemOwner[s] = name
			}
		}
	}

	out := make([]Module, 0, len(names))
	for _, name := range names {
		moduleFiles := byModule[name]

		m := Module{Name: name}
		deps := make(map[string]bool)

		for _, f := range moduleFiles {
			m.Files = append(m.Files, f.Path)

			switch scanner.DetectKind(path.Ext(f.Path)) {
			case scanner.KindHeader:
				if IsPublicPath(f.Path) {
					m.PublicHeaders = append(m.PublicHeaders, f.Path)
				} else {
					m.PrivateHeaders = append(m.PrivateHeaders, f.Path)
				}
			case scanner.KindSource:
				m.Sources = append(m.Sources, f.Path)
			}

			for _, inc := range ExtractIncludes(f.Content) {
				if owner, ok := stemOwner[stem(inc)]; ok && owner != name {
					deps[owner] = true
				}
			}
		}

		for dep := range deps {
			m.Dependencies = append(m.Dependencies, dep)
		}
		sort.Strings(m.Dependencies)

		out = append(out, m)
	}

	return out
}

// ModuleName maps a relative file path to its module. The first path
// segment names the module; root-level files belong to the root module.
func ModuleName(relPath string) string {
	relPath = strings.Trim(relPath, "/")
	idx := strings.Index(relPath, "/")
	if idx < 0 {
		return RootModule
	}
	return relPath[:idx]
}

// ExtractIncludes returns the targets of every #include directive in the
// content, in source order.
func ExtractIncludes(content []byte) []string {
	matches := includeRe.FindAllSubmatch(content, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, string(m[1]))
	}
	return out
}

// IsPublicPath reports whether any path segment marks the file as part of
// the module's public surface.
func IsPublicPath(relPath string) bool {
	for _, segment := range strings.Split(relPath, "/") {
		if segment == "include" || segment == "public" {
			return true
		}
	}
	return false
}

// stem is the file name without directory or extension, used to match
// include targets against project files.
func stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
