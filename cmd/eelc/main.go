// Command eelc compiles EEL source into a WASM-MVP binary module.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/eel2wasm/cmd/eelc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
