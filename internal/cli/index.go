package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/romangod6/sitemapgen/internal/output"
	"github.com/romangod6/sitemapgen/internal/sitemap"
)

func newIndexCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "index <sitemap-url>...",
		Short: "Render a sitemap index pointing at existing sitemap files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := sitemap.GenerateIndex(args)
			if err != nil {
				return err
			}
			if outputPath == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
				return err
			}
			return output.WriteFile(outputPath, doc)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the index to this file instead of stdout")
	return cmd
}
