package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cppflow/cppflow/pkg/callgraph"
	"github.com/cppflow/cppflow/pkg/cfg"
	"github.com/cppflow/cppflow/pkg/syntax"
)

// CFGOutput is the JSON shape of the cfg command.
type CFGOutput struct {
	FunctionName string      `json:"function_name"`
	Complexity   int         `json:"complexity"`
	EntryID      string      `json:"entry_id"`
	ExitID       string      `json:"exit_id"`
	Nodes        []*cfg.Node `json:"nodes"`
	Edges        []cfg.Edge  `json:"edges"`
}

// cfgCmd represents the cfg command
var cfgCmd = &cobra.Command{
	Use:   "cfg <file> <function>",
	Short: "Extract the control flow graph of one function",
	Long: `Parses a C++ file and builds the typed control flow graph for the named
function. Outputs nodes, edges and cyclomatic complexity.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, functionName := args[0], args[1]

		conf, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := requireSourceFile(filePath, conf.Extensions); err != nil {
			return err
		}

		graph, decl, err := buildFunctionCFG(cmd, filePath, functionName, conf.LabelMaxLen)
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			out := CFGOutput{
				FunctionName: graph.FunctionName,
				Complexity:   graph.Complexity(),
				EntryID:      graph.EntryID,
				ExitID:       graph.ExitID,
				Edges:        graph.Edges,
			}
			for _, id := range sortedNodeIDs(graph) {
				out.Nodes = append(out.Nodes, graph.Nodes[id])
			}
			return printJSON(out)
		}

		printCFG(graph, decl)
		return nil
	},
}

// buildFunctionCFG parses the file and builds the CFG for one function,
// suggesting alternatives when the name is not found.
func buildFunctionCFG(cmd *cobra.Command, filePath, functionName string, labelMax int) (*cfg.Graph, syntax.FunctionDecl, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, syntax.FunctionDecl{}, fmt.Errorf("reading file: %w", err)
	}
	root, err := syntax.NewParser().Parse(cmd.Context(), content)
	if err != nil {
		return nil, syntax.FunctionDecl{}, fmt.Errorf("parsing %s: %w", filePath, err)
	}

	decls := syntax.CollectFunctions(root)
	for _, decl := range decls {
		qualified := callgraph.Qualify(decl.Namespace, decl.Class, decl.Info.Name)
		if decl.Info.Name == functionName || qualified == functionName {
			builder := cfg.NewBuilder()
			builder.LabelMaxLen = labelMax
			return builder.Build(decl.Node, qualified), decl, nil
		}
	}

	var known []string
	for _, decl := range decls {
		known = append(known, callgraph.Qualify(decl.Namespace, decl.Class, decl.Info.Name))
	}
	if len(known) > 0 {
		return nil, syntax.FunctionDecl{}, fmt.Errorf("function %q not found in %s (defined here: %v)", functionName, filePath, known)
	}
	return nil, syntax.FunctionDecl{}, fmt.Errorf("function %q not found in %s", functionName, filePath)
}

func sortedNodeIDs(g *cfg.Graph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// printCFG prints the graph in human-readable form.
func printCFG(g *cfg.Graph, decl syntax.FunctionDecl) {
	fmt.Printf("=== CFG for function: %s ===\n", g.FunctionName)
	fmt.Printf("Cyclomatic Complexity: %d\n", g.Complexity())
	fmt.Printf("Defined at line: %d\n", decl.Node.StartLine())

	fmt.Printf("\nNodes (%d):\n", len(g.Nodes))
	for _, id := range sortedNodeIDs(g) {
		node := g.Nodes[id]
		fmt.Printf("  %s (%s, line %d) %s\n", id, node.Kind, node.Line, node.Label)
		for _, call := range node.Calls {
			fmt.Printf("    calls %s\n", call)
		}
	}

	fmt.Printf("\nEdges (%d):\n", len(g.Edges))
	for _, edge := range g.Edges {
		fmt.Printf("  %s --%s--> %s\n", edge.Source, edge.Kind, edge.Target)
	}
}

func init() {
	cfgCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(cfgCmd)
}
