package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cppflow/cppflow/pkg/ir"
)

// irCmd represents the ir command
var irCmd = &cobra.Command{
	Use:   "ir <file> <function>",
	Short: "Show the recovered control blocks of one function",
	Long: `Parses a C++ file, builds the control flow graph for the named function
and recovers its nested control block representation.`,
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

		transformer := ir.NewTransformer(conf.EntryPointNames)
		fn := transformer.TransformFunction(filePath, decl, graph)

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return printJSON(fn)
		}

		fmt.Printf("=== IR for function: %s ===\n", fn.Name)
		fmt.Printf("Signature: %s\n", fn.Signature)
		fmt.Printf("Complexity: %d\n", fn.Complexity)
		if len(fn.Calls) > 0 {
			fmt.Printf("Calls (%d):\n", len(fn.Calls))
			for _, call := range fn.Calls {
				fmt.Printf("  %s (%s)\n", call.Callee, call.Kind)
			}
		}
		fmt.Println("\nControl blocks:")
		printBlocks(fn.ControlBlocks, 1)
		return nil
	},
}

func printBlocks(blocks []*ir.ControlBlock, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, block := range blocks {
		line := fmt.Sprintf("%s[%s] %s", indent, block.Kind, block.Label)
		if block.Condition != "" && block.Condition != block.Label {
			line += fmt.Sprintf(" (condition: %s)", block.Condition)
		}
		fmt.Println(line)
		printBlocks(block.Children, depth+1)
		if len(block.ElseChildren) > 0 {
			fmt.Printf("%selse:\n", indent)
			printBlocks(block.ElseChildren, depth+1)
		}
	}
}

func init() {
	irCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(irCmd)
}
