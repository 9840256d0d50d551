// The main package for the wp-inspector executable.
package main

import (
	"github.com/JakeFAU/wp-inspector/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
