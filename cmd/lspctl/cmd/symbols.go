package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	symbolsQuery string
	symbolsRoot  string
	symbolsLang  string
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Send workspace/symbol with a query string and print the raw result",
	RunE:  runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&symbolsRoot, "root", ".", "workspace root")
	symbolsCmd.Flags().StringVar(&symbolsLang, "lang", "go", "languageId sent to the server")
	symbolsCmd.Flags().StringVar(&symbolsQuery, "query", "", "symbol name query")
}

func runSymbols(c *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := startClient(ctx, symbolsRoot, symbolsLang)
	if err != nil {
		return err
	}
	defer client.Stop(ctx)

	result, err := client.WorkspaceSymbol(ctx, symbolsQuery)
	if err != nil {
		return err
	}
	fmt.Println(string(result))
	return nil
}
