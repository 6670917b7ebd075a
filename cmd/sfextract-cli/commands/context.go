package commands

import (
	"fmt"
	"net/url"
	"os"

	"sfextract-backend/lib/dom/gqdom"
	"sfextract-backend/lib/scrapers/lightning"
	"sfextract-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var contextHtml *string
var contextUrl *string

func init() {
	contextHtml = contextCmd.Flags().String("html", "", "Path to a saved DOM snapshot of the page.")
	contextUrl = contextCmd.Flags().String("url", "", "The url the page was rendered at.")
	contextCmd.MarkFlagRequired("html")
	contextCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(contextCmd)
}

var contextCmd = &cobra.Command{
	Use:   "context --html <path/to/page.html> --url <page url>",
	Short: "Classifies a page snapshot without extracting anything.",
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(*contextHtml)
		if err != nil {
			serviceutil.Fatal("failed to open snapshot", err)
		}
		doc, err := gqdom.Parse(f)
		f.Close()
		if err != nil {
			serviceutil.Fatal("failed to parse snapshot", err)
		}

		pageUrl, err := url.Parse(*contextUrl)
		if err != nil {
			serviceutil.Fatal("failed to parse page url", err)
		}

		pageCtx := lightning.ResolveContext(pageUrl.Path, doc)
		if pageCtx == nil {
			fmt.Println("not a supported page")
			return
		}
		fmt.Printf("object: %s\nview: %s\n", pageCtx.Object, pageCtx.View)
	},
}
