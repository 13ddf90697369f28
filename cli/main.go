// ABOUTME: Entry point for the sqlnova-planner CLI
// ABOUTME: Command-line tool for migration planning and CI/CD capacity checks

package main

import (
	"fmt"
	"os"

	"github.com/sqlnova/migration-planner/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
