package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cppflow/cppflow/pkg/analysis"
	"github.com/cppflow/cppflow/pkg/modules"
)

// ModulesOutput is the JSON shape of the modules command.
type ModulesOutput struct {
	Root    string           `json:"root"`
	Modules []modules.Module `json:"modules"`
}

// modulesCmd represents the modules command
var modulesCmd = &cobra.Command{
	Use:   "modules [path]",
	Short: "Show module partition and dependencies",
	Long: `Partitions the project's files into modules by top-level directory and
extracts module dependencies from include references.`,
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

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return printJSON(ModulesOutput{Root: root, Modules: result.ModuleSet})
		}

		fmt.Printf("Modules in %s (%d):\n", root, len(result.ModuleSet))
		for _, mod := range result.ModuleSet {
			fmt.Printf("\n%s (%d files)\n", mod.Name, len(mod.Files))
			if len(mod.PublicHeaders) > 0 {
				fmt.Printf("  public headers: %s\n", strings.Join(mod.PublicHeaders, ", "))
			}
			if len(mod.Dependencies) > 0 {
				fmt.Printf("  depends on: %s\n", strings.Join(mod.Dependencies, ", "))
			}
		}
		return nil
	},
}

func init() {
	modulesCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(modulesCmd)
}
