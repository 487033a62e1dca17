package main

import (
	"fmt"
	"os"

	"github.com/gophercp/cpcore/cmd/cpsolve"
)

func main() {
	rootCmd := cpsolve.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
