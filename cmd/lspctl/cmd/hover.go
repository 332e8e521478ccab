package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brianly1003/lspclient"
)

var (
	hoverFile string
	hoverLine int
	hoverChar int
	hoverRoot string
	hoverLang string
)

var hoverCmd = &cobra.Command{
	Use:   "hover",
	Short: "Send textDocument/hover at a file position and print the raw result",
	RunE:  runHover,
}

func init() {
	hoverCmd.Flags().StringVar(&hoverRoot, "root", ".", "workspace root")
	hoverCmd.Flags().StringVar(&hoverLang, "lang", "go", "languageId sent to the server")
	hoverCmd.Flags().StringVar(&hoverFile, "file", "", "path to the document on disk")
	hoverCmd.Flags().IntVar(&hoverLine, "line", 0, "zero-based line number")
	hoverCmd.Flags().IntVar(&hoverChar, "char", 0, "zero-based character offset")
	hoverCmd.MarkFlagRequired("file")
}

func runHover(c *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := startClient(ctx, hoverRoot, hoverLang)
	if err != nil {
		return err
	}
	defer client.Stop(ctx)

	result, err := client.Hover(ctx, hoverFile, lspclient.Position{Line: hoverLine, Character: hoverChar})
	if err != nil {
		return err
	}
	fmt.Println(string(result))
	return nil
}
