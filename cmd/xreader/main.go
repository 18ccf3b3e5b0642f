// Command xreader summarizes the X home timeline.
package main

import (
	"fmt"
	"os"

	"github.com/ibeckermayer/xreader/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
