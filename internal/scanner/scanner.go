// Package scanner provides file tree walking functionality with ignore pattern
// support. It respects .cppflowignore files with gitignore-style patterns and
// classifies files as C++ sources or headers by extension.
package scanner

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string   // Relative path from root
	FullPath string   // Absolute path
	Kind     FileKind // Source or header classification
	Size     int64    // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	FollowSymlinks  bool     // Follow symlinks (within root only)
	DefaultExcludes []string // Default directories to exclude
	Extensions      []string // Extensions to keep; empty keeps every supported one
	IgnoreFileName  string   // Name of the ignore file (default: .cppflowignore)
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		FollowSymlinks: false,
		IgnoreFileName: ".cppflowignore",
		DefaultExcludes: []string{
			".git",
			".hg",
			".svn",
			".idea",
			".vscode",
			"build",
			"cmake-build-debug",
			"cmake-build-release",
			"out",
			"bin",
			"obj",
			"third_party",
			"thirdparty",
			"external",
			"vendor",
			"node_modules",
		},
	}
}

// Scanner walks a project tree and collects C++ source and header files.
type Scanner struct {
	opts Options
	root string

	// ignore rules accumulate as nested .cppflowignore files are found
	rules []IgnorePattern
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan recursively walks root and returns every file that passes the
// extension filter, default exclusions and .cppflowignore rules.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	s.root = absRoot
	s.rules, err = s.readIgnoreFile(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// unreadable entries are skipped, not fatal
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if s.skipDir(entry.Name()) {
				return filepath.SkipDir
			}
			if nested, err := s.readIgnoreFile(path); err == nil {
				s.rules = append(s.rules, nested...)
			}
			return nil
		}

		if s.opts.SkipHidden && strings.HasPrefix(entry.Name(), ".") {
			return nil
		}
		if s.ignored(rel) || !s.keepExtension(filepath.Ext(path)) {
			return nil
		}

		info, err := s.resolve(path, entry)
		if err != nil || info == nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:     rel,
			FullPath: path,
			Kind:     DetectKind(filepath.Ext(path)),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return files, nil
}

// resolve stats the entry, following a symlink only when the options allow
// it and the target is a regular file inside the scan root.
func (s *Scanner) resolve(path string, entry fs.DirEntry) (os.FileInfo, error) {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.Info()
	}
	if !s.opts.FollowSymlinks {
		return nil, nil
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, nil
	}
	realAbs, err := filepath.Abs(real)
	if err != nil {
		return nil, nil
	}
	if realAbs != s.root && !strings.HasPrefix(realAbs, s.root+string(filepath.Separator)) {
		return nil, nil
	}
	info, err := os.Stat(real)
	if err != nil || info.IsDir() {
		return nil, nil
	}
	return info, nil
}

// skipDir reports whether a directory is pruned from the walk entirely.
func (s *Scanner) skipDir(name string) bool {
	if s.opts.SkipHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// keepExtension reports whether the extension passes the configured filter.
func (s *Scanner) keepExtension(ext string) bool {
	if len(s.opts.Extensions) == 0 {
		return IsSupported(ext)
	}
	for _, e := range s.opts.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// ignored applies the accumulated rules in order; later negations can
// un-ignore a path matched by an earlier rule.
func (s *Scanner) ignored(rel string) bool {
	out := false
	for _, rule := range s.rules {
		if rule.Match(rel) {
			out = !rule.IsNegation()
		}
	}
	return out
}

// readIgnoreFile parses the ignore file in dir, if present.
func (s *Scanner) readIgnoreFile(dir string) ([]IgnorePattern, error) {
	f, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var rules []IgnorePattern
	lines := bufio.NewScanner(f)
	for lines.Scan() {
		line := strings.TrimSpace(lines.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, ParseIgnorePattern(line))
	}
	return rules, lines.Err()
}

// Scan walks root with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}

// ScanWithOptions walks root with custom options.
func ScanWithOptions(root string, opts Options) ([]FileInfo, error) {
	return New(opts).Scan(root)
}
