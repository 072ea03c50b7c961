// taskdeck is a project management dashboard for hierarchical work items:
// epics, stories, tasks and subtasks, browsable from the terminal and served
// over a REST API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
