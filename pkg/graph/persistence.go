package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The persisted shape flattens attribute keys next to the id/source/target
// keys instead of nesting them, so downstream renderers and caches can read
// nodes and edges as flat records.

type persistedDocument struct {
	Nodes []map[string]string `json:"nodes"`
	Edges []map[string]string `json:"edges"`
}

// Marshal encodes the graph into its persisted JSON form.
func Marshal(g *Graph) ([]byte, error) {
	doc := persistedDocument{
		Nodes: make([]map[string]string, 0, g.NodeCount()),
		Edges: make([]map[string]string, 0, g.EdgeCount()),
	}
	for _, id := range g.NodeIDs() {
		attrs, _ := g.Node(id)
		record := make(map[string]string, len(attrs)+1)
		for k, v := range attrs {
			record[k] = v
		}
		record["id"] = id
		doc.Nodes = append(doc.Nodes, record)
	}
	for _, e := range g.Edges() {
		record := make(map[string]string, len(e.Attrs)+2)
		for k, v := range e.Attrs {
			record[k] = v
		}
		record["source"] = e.Source
		record["target"] = e.Target
		doc.Edges = append(doc.Edges, record)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal decodes a persisted graph, preserving node and edge order.
func Unmarshal(name string, data []byte) (*Graph, error) {
	var doc persistedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}

	g := New(name)
	for i, record := range doc.Nodes {
		id, ok := record["id"]
		if !ok || id == "" {
			return nil, fmt.Errorf("node %d has no id", i)
		}
		attrs := make(Attrs, len(record)-1)
		for k, v := range record {
			if k != "id" {
				attrs[k] = v
			}
		}
		g.AddNode(id, attrs)
	}
	for i, record := range doc.Edges {
		source, target := record["source"], record["target"]
		if source == "" || target == "" {
			return nil, fmt.Errorf("edge %d is missing an endpoint", i)
		}
		attrs := make(Attrs, len(record)-2)
		for k, v := range record {
			if k != "source" && k != "target" {
				attrs[k] = v
			}
		}
		g.AddEdge(source, target, attrs)
	}
	return g, nil
}

// Save writes the graph to path in its persisted form.
func Save(g *Graph, path string) error {
	data, err := Marshal(g)
	if err != nil {
		return fmt.Errorf("encoding graph %s: %w", g.Name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing graph %s: %w", g.Name, err)
	}
	return nil
}

// Load reads a persisted graph from path.
func Load(name, path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph %s: %w", name, err)
	}
	return Unmarshal(name, data)
}

// SaveGraphs writes each graph to dir as <name>.json, creating dir if needed.
func SaveGraphs(graphs []*Graph, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating graph directory: %w", err)
	}
	for _, g := range graphs {
		if err := Save(g, filepath.Join(dir, g.Name+".json")); err != nil {
			return err
		}
	}
	return nil
}

// LoadGraphs reads every <name>.json file in dir. Files that do not decode
// as graphs are skipped; their names are returned alongside the graphs.
func LoadGraphs(dir string) ([]*Graph, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading graph directory: %w", err)
	}

	var graphs []*Graph
	var skipped []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		g, err := Load(name, filepath.Join(dir, entry.Name()))
		if err != nil {
			skipped = append(skipped, entry.Name())
			continue
		}
		graphs = append(graphs, g)
	}
	return graphs, skipped, nil
}
