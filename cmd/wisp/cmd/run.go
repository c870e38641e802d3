package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wisp/pkg/wisp"
)

var evalExpr string

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a Wisp script",
	Long: `Run lexes, parses, and executes a Wisp script, printing "Exit" on
success or "Abort <message>" on a fatal runtime error. Both cases exit
with status 0; a non-zero status means the CLI itself failed (bad
arguments, unreadable file).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "run inline source instead of reading from a file")
}

func runScript(cmd *cobra.Command, args []string) error {
	source, _, err := resolveInput(evalExpr, args)
	if err != nil {
		return err
	}

	engine, err := wisp.New(os.Stdout, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	ok, abortMessage := engine.Run(source)
	if !ok {
		fmt.Printf("Abort %s\n", abortMessage)
		return nil
	}
	fmt.Println("Exit")
	return nil
}

// resolveInput picks inline source over a file argument, mirroring the
// teacher's -e/file precedence; filename is "<eval>" for inline source.
func resolveInput(inline string, args []string) (source string, filename string, err error) {
	if inline != "" {
		return inline, "<eval>", nil
	}
	if len(args) == 1 {
		filename = args[0]
		content, err := os.ReadFile(filename)
		if err != nil {
			return "", filename, fmt.Errorf("failed to read file %s: %w", filename, err)
		}
		return string(content), filename, nil
	}
	return "", "", fmt.Errorf("either provide a file path or use -e for inline source")
}
