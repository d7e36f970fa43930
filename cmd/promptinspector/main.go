// Command promptinspector scores and rewrites LLM prompts from the command
// line, over HTTP, or as an MCP server.
package main

import (
	"os"

	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
