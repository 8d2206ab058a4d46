package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cppflow/cppflow/pkg/graph"
)

// graphCmd groups operations on persisted normalized graphs.
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Validate and slice persisted graphs",
	Long: `Operates on graph files written by the analyze command: structural
validation and scope-bounded subgraph extraction.`,
}

// graphValidateCmd represents the graph validate command
var graphValidateCmd = &cobra.Command{
	Use:   "validate <graph-file>",
	Short: "Check a persisted graph for structural problems",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		g, err := graph.Load(graphName(path), path)
		if err != nil {
			return err
		}

		result := graph.Validate(g)
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return printJSON(struct {
				OK       bool     `json:"ok"`
				Errors   []string `json:"errors,omitempty"`
				Warnings []string `json:"warnings,omitempty"`
			}{result.OK(), result.Errors, result.Warnings})
		}

		fmt.Printf("Graph %s: %d nodes, %d edges\n", g.Name, g.NodeCount(), g.EdgeCount())
		for _, e := range result.Errors {
			fmt.Printf("  error: %s\n", e)
		}
		for _, w := range result.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		if result.OK() && len(result.Warnings) == 0 {
			fmt.Println("  no problems found")
		}
		if !result.OK() {
			return fmt.Errorf("%d structural errors", len(result.Errors))
		}
		return nil
	},
}

// graphSliceCmd represents the graph slice command
var graphSliceCmd = &cobra.Command{
	Use:   "slice <graph-file> <seed>...",
	Short: "Extract a depth-bounded subgraph around seed nodes",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, seeds := args[0], args[1:]
		conf, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		g, err := graph.Load(graphName(path), path)
		if err != nil {
			return err
		}
		for _, seed := range seeds {
			if !g.HasNode(seed) {
				return fmt.Errorf("seed node %q not in graph", seed)
			}
		}

		depth, _ := cmd.Flags().GetInt("depth")
		if !cmd.Flags().Changed("depth") {
			depth = conf.SubgraphDepth
		}
		sub := graph.Subgraph(g, seeds, depth)

		if out, _ := cmd.Flags().GetString("output"); out != "" {
			if err := graph.Save(sub, out); err != nil {
				return err
			}
			fmt.Printf("Wrote subgraph with %d nodes, %d edges to %s\n", sub.NodeCount(), sub.EdgeCount(), out)
			return nil
		}

		data, err := graph.Marshal(sub)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func graphName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func init() {
	graphValidateCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	graphSliceCmd.Flags().IntP("depth", "d", 0, "Traversal depth (defaults to config)")
	graphSliceCmd.Flags().StringP("output", "o", "", "Write subgraph to file instead of stdout")
	graphCmd.AddCommand(graphValidateCmd)
	graphCmd.AddCommand(graphSliceCmd)
	RootCmd.AddCommand(graphCmd)
}
