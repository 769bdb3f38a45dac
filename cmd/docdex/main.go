// docdex is a documentation indexing and retrieval server for AI coding
// assistants, speaking the Model Context Protocol over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/docdex/docdex/cmd/docdex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
