package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/eel2wasm/internal/compiler"
	"github.com/cwbudde/eel2wasm/internal/wasmgen"
	"github.com/spf13/cobra"
)

var (
	outputFile  string
	exportName  string
	poolName    string
	globalNames []string
	disassemble bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile an EEL source file to a WASM module",
	Long: `Compile an EEL function body into a WASM-MVP binary module
exporting a single function, and save it as a .wasm file.

Examples:
  # Compile a preset expression to a module
  eelc compile preset.eel

  # Compile with a custom export name and output path
  eelc compile preset.eel --export frame --output out.wasm

  # Declare which globals the host provides, and show the emitted code
  eelc compile preset.eel --global g --global t --disassemble`,
	Args: cobra.ExactArgs(1),
	RunE: compileScript,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: <input>.wasm)")
	compileCmd.Flags().StringVar(&exportName, "export", "main", "name the compiled function is exported under")
	compileCmd.Flags().StringVar(&poolName, "pool", "", "global pool the source's identifiers resolve against")
	compileCmd.Flags().StringSliceVar(&globalNames, "global", nil, "a global the host supplies to --pool (repeatable)")
	compileCmd.Flags().BoolVar(&disassemble, "disassemble", false, "print the disassembled function body after compilation")
}

func compileScript(cmd *cobra.Command, args []string) error {
	filename := args[0]

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	source := string(content)

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Fprintf(os.Stderr, "Compiling %s...\n", filename)
	}

	units := []compiler.Unit{{Export: exportName, Source: source, Pool: poolName}}
	globals := compiler.Globals{poolName: globalNames}

	module, dump, compileErr := compiler.Compile(units, globals)
	if compileErr != nil {
		fmt.Fprint(os.Stderr, compileErr.Format(false))
		fmt.Fprintln(os.Stderr)
		return fmt.Errorf("compilation failed")
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Compilation successful (%d bytes)\n", len(module))
	}

	if disassemble {
		fmt.Fprintf(os.Stderr, "\n== %s ==\n", exportName)
		wasmgen.NewDisassembler(dump[exportName], os.Stderr).Disassemble()
		fmt.Fprintln(os.Stderr)
	}

	outFile := outputFile
	if outFile == "" {
		ext := filepath.Ext(filename)
		if ext != "" {
			outFile = strings.TrimSuffix(filename, ext) + ".wasm"
		} else {
			outFile = filename + ".wasm"
		}
	}

	if err := os.WriteFile(outFile, module, 0644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", outFile, err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Module written to %s (%d bytes)\n", outFile, len(module))
	} else {
		fmt.Printf("Compiled %s -> %s\n", filename, outFile)
	}

	return nil
}
