package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/eel2wasm/internal/ast"
	"github.com/cwbudde/eel2wasm/internal/lexer"
	"github.com/cwbudde/eel2wasm/internal/parser"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse an EEL source file and dump its AST",
	Long: `Parse an EEL function body and print its Abstract Syntax Tree.

If no file is provided, reads from stdin. Use -e to parse a single
expression given on the command line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "parse inline code instead of reading from file")
}

func runParse(_ *cobra.Command, args []string) error {
	input, filename, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}

	l := lexer.New(input)
	p := parser.New(l, input)
	fn, parseErr := p.ParseFunction()
	if parseErr != nil {
		fmt.Fprint(os.Stderr, parseErr.Format(false))
		fmt.Fprintln(os.Stderr)
		return fmt.Errorf("parsing %s failed", filename)
	}

	fmt.Println("Function")
	dumpBlock(fn.Body, 1)
	return nil
}

func dumpBlock(b ast.Block, indent int) {
	fmt.Printf("%sBlock (%d expressions)\n", pad(indent), len(b.Expressions))
	for _, e := range b.Expressions {
		dumpExpr(e, indent+1)
	}
}

func dumpExpr(e ast.Expression, indent int) {
	p := pad(indent)
	switch n := e.(type) {
	case *ast.NumberLiteral:
		fmt.Printf("%sNumberLiteral %g\n", p, n.Value)
	case *ast.Identifier:
		fmt.Printf("%sIdentifier %s\n", p, n.Name)
	case *ast.Unary:
		fmt.Printf("%sUnary %s\n", p, unaryOpName(n.Op))
		dumpExpr(n.Right, indent+1)
	case *ast.Binary:
		fmt.Printf("%sBinary %s\n", p, binaryOpName(n.Op))
		dumpExpr(n.Left, indent+1)
		dumpExpr(n.Right, indent+1)
	case *ast.Assignment:
		fmt.Printf("%sAssignment %s\n", p, assignOpName(n.Operator))
		dumpAssignmentTarget(n.Target, indent+1)
		dumpExpr(n.Right, indent+1)
	case *ast.FunctionCall:
		fmt.Printf("%sFunctionCall %s (%d args)\n", p, n.Name.Name, len(n.Arguments))
		for _, arg := range n.Arguments {
			dumpExpr(arg, indent+1)
		}
	case *ast.Block:
		dumpBlock(*n, indent)
	default:
		fmt.Printf("%s%T\n", p, e)
	}
}

func dumpAssignmentTarget(t ast.AssignmentTarget, indent int) {
	switch n := t.(type) {
	case *ast.Identifier:
		dumpExpr(n, indent)
	case *ast.FunctionCall:
		dumpExpr(n, indent)
	}
}

func pad(indent int) string {
	out := make([]byte, indent*2)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}

func unaryOpName(op ast.UnaryOperator) string {
	switch op {
	case ast.UnaryPlus:
		return "+"
	case ast.UnaryMinus:
		return "-"
	case ast.UnaryNot:
		return "!"
	default:
		return "?"
	}
}

func binaryOpName(op ast.BinaryOperator) string {
	switch op {
	case ast.Add:
		return "+"
	case ast.Subtract:
		return "-"
	case ast.Multiply:
		return "*"
	case ast.Divide:
		return "/"
	case ast.Mod:
		return "%"
	case ast.Pow:
		return "^"
	case ast.Eq:
		return "=="
	case ast.NotEqual:
		return "!="
	case ast.LessThan:
		return "<"
	case ast.GreaterThan:
		return ">"
	case ast.LessThanEqual:
		return "<="
	case ast.GreaterThanEqual:
		return ">="
	case ast.BitwiseAnd:
		return "&"
	case ast.BitwiseOr:
		return "|"
	case ast.LogicalAnd:
		return "&&"
	case ast.LogicalOr:
		return "||"
	default:
		return "?"
	}
}

func assignOpName(op ast.AssignmentOperator) string {
	switch op {
	case ast.Assign:
		return "="
	case ast.AssignAdd:
		return "+="
	case ast.AssignSub:
		return "-="
	case ast.AssignMul:
		return "*="
	case ast.AssignDiv:
		return "/="
	case ast.AssignMod:
		return "%="
	default:
		return "?"
	}
}
