// Package main implements the cppflow CLI. It analyzes C++ projects into
// control flow graphs, call graphs, module graphs and serialized IR.
package main

import (
	"os"

	"github.com/cppflow/cppflow/cmd/cppflow/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`cppflow version {{.Version}}
`)

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
