// Package commands provides the CLI commands for the cppflow tool.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cppflow/cppflow/internal/config"
	"github.com/cppflow/cppflow/internal/log"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cppflow",
	Short: "cppflow - C++ control flow and dependency analysis",
	Long: `cppflow analyzes C++ projects into structured, queryable representations:
per-function control flow graphs, a whole-program call graph, a module
dependency graph, and serialized intermediate representation.

Commands:
  analyze     Run the full pipeline and write IR and graph artifacts
  cfg         Extract the control flow graph of one function
  ir          Show the recovered control blocks of one function
  calls       Build the whole-program call graph
  modules     Show module partition and dependencies
  graph       Validate and slice persisted graphs
  init        Create a configuration file interactively

Use "cppflow [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
}

// loadConfig loads the layered configuration and applies the verbose flag.
func loadConfig(cmd *cobra.Command) (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
		cfg.LogLevel = "debug"
	}
	logger := log.New(log.LoggerConfig{Level: log.ParseLevel(cfg.LogLevel)})
	return cfg, logger, nil
}

// resolveProjectPath turns an optional positional argument into an absolute
// directory path.
func resolveProjectPath(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", path)
	}
	return absPath, nil
}

// requireSourceFile validates that the argument names an existing C++ file.
func requireSourceFile(path string, extensions []string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, expected a file: %s", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return nil
		}
	}
	return fmt.Errorf("unsupported file type: %s (expected one of %s)", path, strings.Join(extensions, ", "))
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
