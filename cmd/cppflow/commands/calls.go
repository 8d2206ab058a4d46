package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cppflow/cppflow/pkg/analysis"
	"github.com/cppflow/cppflow/pkg/callgraph"
)

// CallGraphOutput is the JSON shape of the calls command.
type CallGraphOutput struct {
	Root      string               `json:"root"`
	Stats     CallGraphStats       `json:"stats"`
	Functions []callgraph.Function `json:"functions,omitempty"`
	Edges     []callgraph.Edge     `json:"edges,omitempty"`
}

// CallGraphStats summarizes the call graph.
type CallGraphStats struct {
	Functions     int `json:"functions"`
	Edges         int `json:"edges"`
	ExternalEdges int `json:"external_edges"`
	EntryPoints   int `json:"entry_points"`
}

// callsCmd represents the calls command
var callsCmd = &cobra.Command{
	Use:   "calls [path]",
	Short: "Build the whole-program call graph",
	Long: `Analyzes a project and builds the call graph. Callees are resolved against
every function definition found in the project; calls into libraries stay
in the graph as external edges.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveProjectPath(args)
		if err != nil {
			return err
		}
		conf, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		result, err := analysis.New(conf, logger).Run(cmd.Context(), root)
		if err != nil {
			return err
		}

		cg := result.CallGraph
		edges := cg.Edges()
		stats := CallGraphStats{
			Functions:   len(cg.Functions()),
			Edges:       len(edges),
			EntryPoints: len(cg.EntryPoints(conf.EntryPointNames)),
		}
		for _, e := range edges {
			if e.External {
				stats.ExternalEdges++
			}
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return printJSON(CallGraphOutput{
				Root:      root,
				Stats:     stats,
				Functions: cg.Functions(),
				Edges:     edges,
			})
		}

		fmt.Printf("Call graph for %s\n", root)
		fmt.Printf("Functions: %d, edges: %d (%d external), entry points: %d\n",
			stats.Functions, stats.Edges, stats.ExternalEdges, stats.EntryPoints)

		order, acyclic := cg.TopologicalOrder()
		if !acyclic {
			fmt.Println("Note: recursive call cycles present, order is best-effort")
		}
		fmt.Println("\nFunctions (callers before callees):")
		for _, name := range order {
			fmt.Printf("  %s\n", name)
			for _, edge := range cg.Callees(name) {
				marker := ""
				if edge.External {
					marker = " [external]"
				}
				fmt.Printf("    -> %s %v%s\n", edge.Callee, edge.Kinds, marker)
			}
		}
		return nil
	},
}

func init() {
	callsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(callsCmd)
}
