package ir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	functionsFile = "functions.json"
	modulesFile   = "modules.json"
	projectFile   = "project.json"
)

// Serializer reads and writes IR artifacts under a single output directory.
type Serializer struct {
	Dir string
}

// NewSerializer returns a Serializer rooted at dir.
func NewSerializer(dir string) *Serializer {
	return &Serializer{Dir: dir}
}

// WriteProject persists the full IR as functions.json, modules.json and
// project.json under the serializer's directory.
func (s *Serializer) WriteProject(project *ProjectIR, mods []*ModuleIR, funcs []*FunctionIR) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := s.writeJSON(functionsFile, funcs); err != nil {
		return err
	}
	if err := s.writeJSON(modulesFile, mods); err != nil {
		return err
	}
	return s.writeJSON(projectFile, project)
}

// LoadFunctions reads functions.json. Entries that fail to decode are
// skipped and counted instead of failing the whole load.
func (s *Serializer) LoadFunctions() ([]*FunctionIR, int, error) {
	var raw []json.RawMessage
	if err := s.readJSON(functionsFile, &raw); err != nil {
		return nil, 0, err
	}
	funcs := make([]*FunctionIR, 0, len(raw))
	skipped := 0
	for _, entry := range raw {
		var fn FunctionIR
		if err := json.Unmarshal(entry, &fn); err != nil || fn.ID == "" {
			skipped++
			continue
		}
		funcs = append(funcs, &fn)
	}
	return funcs, skipped, nil
}

// LoadModules reads modules.json with the same per-entry skip behavior as
// LoadFunctions.
func (s *Serializer) LoadModules() ([]*ModuleIR, int, error) {
	var raw []json.RawMessage
	if err := s.readJSON(modulesFile, &raw); err != nil {
		return nil, 0, err
	}
	mods := make([]*ModuleIR, 0, len(raw))
	skipped := 0
	for _, entry := range raw {
		var m ModuleIR
		if err := json.Unmarshal(entry, &m); err != nil || m.Name == "" {
			skipped++
			continue
		}
		mods = append(mods, &m)
	}
	return mods, skipped, nil
}

// LoadProject reads project.json.
func (s *Serializer) LoadProject() (*ProjectIR, error) {
	var project ProjectIR
	if err := s.readJSON(projectFile, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Serializer) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (s *Serializer) readJSON(name string, v interface{}) error {
	path := filepath.Join(s.Dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}
