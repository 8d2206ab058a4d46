package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cppflow/cppflow/pkg/analysis"
	"github.com/cppflow/cppflow/pkg/graph"
	"github.com/cppflow/cppflow/pkg/ir"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Run the full pipeline and write IR and graph artifacts",
	Long: `Runs the complete analysis over a project: scans files, builds per-function
control flow graphs, recovers IR, assembles the call graph and module graph,
and writes functions.json, modules.json, project.json plus the normalized
graphs into the output directory.`,
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
		if out, _ := cmd.Flags().GetString("output"); out != "" {
			conf.OutputDir = out
		}

		result, err := analysis.New(conf, logger).Run(cmd.Context(), root)
		if err != nil {
			return err
		}

		if err := writeArtifacts(conf.OutputDir, result); err != nil {
			return err
		}

		fmt.Printf("Analyzed %s\n", root)
		fmt.Printf("  files:     %d (%d cached)\n", result.FileCount, result.CacheHits)
		fmt.Printf("  functions: %d\n", len(result.Functions))
		fmt.Printf("  modules:   %d\n", len(result.Modules))
		fmt.Printf("  artifacts: %s\n", conf.OutputDir)

		if len(result.Diagnostics) > 0 {
			fmt.Printf("\nDiagnostics (%d):\n", len(result.Diagnostics))
			for _, d := range result.Diagnostics {
				fmt.Printf("  %s\n", d)
			}
		}
		return nil
	},
}

// writeArtifacts persists the IR documents and the normalized graphs.
func writeArtifacts(dir string, result *analysis.Result) error {
	if err := os.MkdirAll(filepath.Join(dir, "cfg"), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	serializer := ir.NewSerializer(dir)
	if err := serializer.WriteProject(result.Project, result.Modules, result.Functions); err != nil {
		return err
	}

	if err := graph.Save(graph.BuildCallGraph(result.Functions), filepath.Join(dir, "callgraph.json")); err != nil {
		return err
	}
	if err := graph.Save(graph.BuildModuleGraph(result.Modules), filepath.Join(dir, "modules_graph.json")); err != nil {
		return err
	}
	for _, fn := range result.Functions {
		g := graph.BuildCFGGraph(fn)
		path := filepath.Join(dir, "cfg", fn.ID+".json")
		if err := graph.Save(g, path); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	analyzeCmd.Flags().StringP("output", "o", "", "Output directory (overrides config)")
	RootCmd.AddCommand(analyzeCmd)
}
