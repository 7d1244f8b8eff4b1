// Package main provides the entry point for the knowledgeengine CLI.
package main

import (
	"os"

	"github.com/goldentooth/knowledgeengine/cmd/knowledgeengine/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
