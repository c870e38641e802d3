package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/lexer"
	"wisp/internal/parser"
)

var parseDumpAST bool

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a Wisp script and display its AST",
	Long: `Parse lexes and parses a Wisp script and prints its top-level
statement count, or the full tree with --dump-ast.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "parse inline source instead of reading from file")
	parseCmd.Flags().BoolVar(&parseDumpAST, "dump-ast", false, "dump the full AST structure")
}

func runParse(cmd *cobra.Command, args []string) error {
	source, _, err := resolveInput(evalExpr, args)
	if err != nil {
		return err
	}

	l := lexer.New(source)
	var tokens []lexer.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == lexer.EOF {
			break
		}
	}

	reporter := diag.NewReporter(os.Stderr)
	p := parser.New(tokens, reporter)
	program := p.ParseProgram()

	if reporter.HadError() {
		return fmt.Errorf("parsing failed")
	}

	if parseDumpAST {
		fmt.Println("Abstract Syntax Tree:")
		fmt.Println("=====================")
		dumpASTNode(program, 0)
	} else {
		fmt.Printf("Program (%d statements)\n", len(program.Stmts))
	}

	return nil
}

func dumpASTNode(node any, indent int) {
	indentStr := ""
	for i := 0; i < indent; i++ {
		indentStr += "  "
	}

	switch n := node.(type) {
	case *ast.Program:
		fmt.Printf("%sProgram (%d statements)\n", indentStr, len(n.Stmts))
		for _, stmt := range n.Stmts {
			dumpASTNode(stmt, indent+1)
		}
	case *ast.Block:
		fmt.Printf("%sBlock (%d statements)\n", indentStr, len(n.Stmts))
		for _, stmt := range n.Stmts {
			dumpASTNode(stmt, indent+1)
		}
	case *ast.ExpressionStmt:
		fmt.Printf("%sExpressionStmt\n", indentStr)
		dumpASTNode(n.Expr, indent+1)
	case *ast.Declaration:
		fmt.Printf("%sDeclaration %v\n", indentStr, n.Names)
		if n.IsInitialized {
			dumpASTNode(n.Initializer, indent+1)
		}
	case *ast.If:
		fmt.Printf("%sIf\n", indentStr)
		dumpASTNode(n.Cond, indent+1)
		dumpASTNode(n.Then, indent+1)
		for _, elif := range n.Elifs {
			fmt.Printf("%sElif\n", indentStr)
			dumpASTNode(elif.Cond, indent+1)
			dumpASTNode(elif.Then, indent+1)
		}
		if n.Else != nil {
			fmt.Printf("%sElse\n", indentStr)
			dumpASTNode(n.Else, indent+1)
		}
	case *ast.While:
		fmt.Printf("%sWhile\n", indentStr)
		dumpASTNode(n.Cond, indent+1)
		dumpASTNode(n.Body, indent+1)
	case *ast.Do:
		fmt.Printf("%sDo\n", indentStr)
		dumpASTNode(n.Body, indent+1)
		dumpASTNode(n.Cond, indent+1)
	case *ast.For:
		fmt.Printf("%sFor\n", indentStr)
		dumpASTNode(n.Body, indent+1)
	case *ast.From:
		fmt.Printf("%sFrom %s\n", indentStr, n.VarName)
		dumpASTNode(n.Array, indent+1)
		dumpASTNode(n.Body, indent+1)
	case *ast.Switch:
		fmt.Printf("%sSwitch (%d cases)\n", indentStr, len(n.Cases))
		dumpASTNode(n.Cond, indent+1)
	case *ast.Return:
		fmt.Printf("%sReturn\n", indentStr)
		if n.Value != nil {
			dumpASTNode(n.Value, indent+1)
		}
	case *ast.Break:
		fmt.Printf("%sBreak\n", indentStr)
	case *ast.Continue:
		fmt.Printf("%sContinue\n", indentStr)
	case *ast.Print:
		fmt.Printf("%sPrint\n", indentStr)
		dumpASTNode(n.Expr, indent+1)
	case *ast.FunctionStmt:
		fmt.Printf("%sFunctionStmt %s%v\n", indentStr, n.Name, n.Params)
		dumpASTNode(n.Body, indent+1)
	case *ast.StructStmt:
		fmt.Printf("%sStructStmt %s (%d fields)\n", indentStr, n.Name, len(n.Fields))
	case *ast.ClassStmt:
		fmt.Printf("%sClassStmt %s (no-op)\n", indentStr, n.Name)
	case *ast.ArrayStmt:
		fmt.Printf("%sArrayStmt %s (%d elements)\n", indentStr, n.Name, len(n.Elements))
	case *ast.MapStmt:
		fmt.Printf("%sMapStmt %s (%d entries)\n", indentStr, n.Name, len(n.Entries))
	case *ast.Binary:
		fmt.Printf("%sBinary (%s)\n", indentStr, n.OpLexeme)
		dumpASTNode(n.Left, indent+1)
		dumpASTNode(n.Right, indent+1)
	case *ast.Logical:
		fmt.Printf("%sLogical (%s)\n", indentStr, n.OpLexeme)
		dumpASTNode(n.Left, indent+1)
		dumpASTNode(n.Right, indent+1)
	case *ast.Unary:
		fmt.Printf("%sUnary (%s prefix=%v)\n", indentStr, n.OpLexeme, n.IsPrefix)
		dumpASTNode(n.Operand, indent+1)
	case *ast.Grouping:
		fmt.Printf("%sGrouping\n", indentStr)
		dumpASTNode(n.Inner, indent+1)
	case *ast.NumberLit:
		fmt.Printf("%sNumberLit: %g\n", indentStr, n.Value)
	case *ast.StringLit:
		fmt.Printf("%sStringLit: %q\n", indentStr, n.Value)
	case *ast.NilLit:
		fmt.Printf("%sNilLit\n", indentStr)
	case *ast.Now:
		fmt.Printf("%sNow\n", indentStr)
	case *ast.Variable:
		fmt.Printf("%sVariable: %s\n", indentStr, n.Name)
	case *ast.Assign:
		fmt.Printf("%sAssign: %s\n", indentStr, n.Name)
		dumpASTNode(n.Value, indent+1)
	case *ast.Call:
		fmt.Printf("%sCall %s (%d args)\n", indentStr, n.Name, len(n.Args))
		for _, a := range n.Args {
			dumpASTNode(a, indent+1)
		}
	case *ast.Get:
		fmt.Printf("%sGet .%s\n", indentStr, n.Name)
		dumpASTNode(n.Object, indent+1)
	case *ast.GetDef:
		fmt.Printf("%sGetDef .%s (%d args)\n", indentStr, n.Name, len(n.Args))
		dumpASTNode(n.Variable, indent+1)
	case *ast.Set:
		fmt.Printf("%sSet .%s\n", indentStr, n.Name)
		dumpASTNode(n.Object, indent+1)
		dumpASTNode(n.Value, indent+1)
	case nil:
		fmt.Printf("%s<nil>\n", indentStr)
	default:
		fmt.Printf("%s%T\n", indentStr, node)
	}
}
