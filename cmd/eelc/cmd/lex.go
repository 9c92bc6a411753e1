package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/eel2wasm/internal/lexer"
	"github.com/spf13/cobra"
)

var (
	evalExpr string
	showPos  bool
	showType bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize an EEL source file or expression",
	Long: `Tokenize an EEL program and print the resulting tokens.

Examples:
  # Tokenize a script file
  eelc lex preset.eel

  # Tokenize an inline expression
  eelc lex -e "g = 2 ^ 2 ^ 4;"

  # Show token positions alongside their kind
  eelc lex --show-type --show-pos preset.eel`,
	Args: cobra.MaximumNArgs(1),
	RunE: lexScript,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "tokenize inline code instead of reading from file")
	lexCmd.Flags().BoolVar(&showPos, "show-pos", false, "show token byte offsets")
	lexCmd.Flags().BoolVar(&showType, "show-type", false, "show token kind names")
}

func lexScript(cmd *cobra.Command, args []string) error {
	input, filename, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Fprintf(os.Stderr, "Tokenizing: %s\n", filename)
		fmt.Fprintf(os.Stderr, "Input length: %d bytes\n", len(input))
		fmt.Fprintln(os.Stderr, "---")
	}

	l := lexer.New(input)
	tokenCount := 0
	for {
		tok, lexErr := l.NextToken()
		if lexErr != nil {
			fmt.Fprint(os.Stderr, lexErr.Format(false))
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("lexing failed")
		}

		tokenCount++
		printToken(tok)

		if tok.Kind == lexer.EOF {
			break
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "---")
		fmt.Fprintf(os.Stderr, "Total tokens: %d\n", tokenCount)
	}

	return nil
}

func printToken(tok lexer.Token) {
	var output string
	if showType {
		output = fmt.Sprintf("[%-10s]", tok.Kind)
	}

	if tok.Kind == lexer.EOF {
		output += " EOF"
	} else if tok.Literal == "" {
		output += fmt.Sprintf(" %s", tok.Kind)
	} else {
		output += fmt.Sprintf(" %q", tok.Literal)
	}

	if showPos {
		output += fmt.Sprintf(" @%d:%d", tok.Span.Start, tok.Span.End)
	}

	fmt.Println(output)
}

// readSource resolves the CLI's uniform "inline expression, file argument,
// or stdin" input convention shared by lex and parse.
func readSource(inline string, args []string) (input, filename string, err error) {
	switch {
	case inline != "":
		return inline, "<eval>", nil
	case len(args) == 1:
		content, readErr := os.ReadFile(args[0])
		if readErr != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", args[0], readErr)
		}
		return string(content), args[0], nil
	default:
		content, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", readErr)
		}
		return string(content), "<stdin>", nil
	}
}
