// Package ir defines the intermediate representation recovered from control
// flow graphs: nested control blocks per function, module summaries, and the
// project roll-up. The IR is the stable, serializable contract between
// analysis and rendering.
package ir

// BlockKind classifies a recovered control block.
type BlockKind string

const (
	BlockSequence BlockKind = "sequence"
	BlockIf       BlockKind = "if"
	BlockLoop     BlockKind = "loop"
	BlockReturn   BlockKind = "return"
)

// ControlBlock is one node of the recovered, nested control structure of a
// function body. If blocks carry their then-arm in Children and their
// else-arm in ElseChildren; loop blocks carry the body in Children. The
// block id is the id of the CFG node the block was recovered from.
type ControlBlock struct {
	ID           string            `json:"block_id"`
	Kind         BlockKind         `json:"block_type"`
	Label        string            `json:"label"`
	Condition    string            `json:"condition,omitempty"`
	Children     []*ControlBlock   `json:"children,omitempty"`
	ElseChildren []*ControlBlock   `json:"else_children,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Param is a typed function input.
type Param struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// CallSite is one resolved or external call made by a function.
type CallSite struct {
	Callee string `json:"callee"`
	Kind   string `json:"kind"`
	Line   int    `json:"line,omitempty"`
}

// FunctionIR is the complete recovered representation of one function.
type FunctionIR struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Signature     string            `json:"signature"`
	File          string            `json:"file"`
	Line          int               `json:"line"`
	Namespace     string            `json:"namespace,omitempty"`
	ClassName     string            `json:"class_name,omitempty"`
	Inputs        []Param           `json:"inputs,omitempty"`
	Outputs       []string          `json:"outputs,omitempty"`
	ControlBlocks []*ControlBlock   `json:"control_blocks"`
	Calls         []CallSite        `json:"calls,omitempty"`
	Complexity    int               `json:"complexity"`
	IsEntryPoint  bool              `json:"is_entry_point,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ModuleIR summarizes one module and the functions defined in it. The
// functions, entry_points and API lists reference FunctionIR ids.
type ModuleIR struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Path           string            `json:"path"`
	Files          []string          `json:"files"`
	Sources        []string          `json:"sources,omitempty"`
	PublicHeaders  []string          `json:"public_headers,omitempty"`
	PrivateHeaders []string          `json:"private_headers,omitempty"`
	Functions      []string          `json:"functions,omitempty"`
	EntryPoints    []string          `json:"entry_points,omitempty"`
	PublicAPI      []string          `json:"public_api,omitempty"`
	PrivateAPI     []string          `json:"private_api,omitempty"`
	Dependencies   []string          `json:"dependencies,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// MainFlow names the entry-point function ids a module contributes to
// program startup.
type MainFlow struct {
	Module      string   `json:"module"`
	EntryPoints []string `json:"entry_points"`
}

// ProjectIR is the top-level roll-up of an analyzed project. The startup
// sequence lists entry-point function ids in module order.
type ProjectIR struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	RootPath        string            `json:"root_path"`
	Modules         []string          `json:"modules"`
	MainFlows       []MainFlow        `json:"main_flows,omitempty"`
	StartupSequence []string          `json:"startup_sequence,omitempty"`
	FunctionCount   int               `json:"function_count"`
	ModuleCount     int               `json:"module_count"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}
