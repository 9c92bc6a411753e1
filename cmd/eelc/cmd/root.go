// Package cmd implements the eelc command-line tool: a thin wrapper
// around internal/compiler for driving the lexer, parser, and module
// emitter from the shell.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags).
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "eelc",
	Short: "EEL-to-WASM compiler",
	Long: `eelc compiles NS-EEL-style expression scripts into a WASM-MVP
binary module: one exported function per source unit, operating over a
shared linear memory and host-supplied globals.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}
