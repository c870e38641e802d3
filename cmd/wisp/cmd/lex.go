package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wisp/internal/lexer"
)

var (
	lexShowLine   bool
	lexOnlyErrors bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a Wisp file or expression",
	Long: `Tokenize a Wisp program and print the resulting tokens, one per
line. Useful for debugging the lexer.`,
	Args: cobra.MaximumNArgs(1),
	RunE: lexScript,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "tokenize inline source instead of reading from file")
	lexCmd.Flags().BoolVar(&lexShowLine, "show-line", false, "show the source line each token starts on")
	lexCmd.Flags().BoolVar(&lexOnlyErrors, "only-errors", false, "show only illegal tokens")
}

func lexScript(cmd *cobra.Command, args []string) error {
	source, _, err := resolveInput(evalExpr, args)
	if err != nil {
		return err
	}

	l := lexer.New(source)
	tokenCount := 0
	errorCount := 0

	for {
		tok := l.NextToken()

		if lexOnlyErrors && tok.Type != lexer.ILLEGAL {
			if tok.Type == lexer.EOF {
				break
			}
			continue
		}

		tokenCount++
		if tok.Type == lexer.ILLEGAL {
			errorCount++
		}

		printToken(tok)

		if tok.Type == lexer.EOF {
			break
		}
	}

	if lexOnlyErrors && errorCount > 0 {
		return fmt.Errorf("found %d illegal token(s)", errorCount)
	}
	return nil
}

func printToken(tok lexer.Token) {
	output := fmt.Sprintf("[%-8s]", tok.Type)

	switch {
	case tok.Type == lexer.EOF:
		output += " EOF"
	case tok.Type == lexer.ILLEGAL:
		output += fmt.Sprintf(" ILLEGAL: %q", tok.Lexeme)
	case tok.Lexeme == "":
		output += fmt.Sprintf(" %s", tok.Type)
	default:
		output += fmt.Sprintf(" %q", tok.Lexeme)
	}

	if lexShowLine {
		output += fmt.Sprintf(" @%d", tok.Line)
	}

	fmt.Println(output)
}
