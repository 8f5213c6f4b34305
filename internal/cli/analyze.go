package cli

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/romangod6/sitemapgen/internal/analyzer"
)

func newAnalyzeCmd() *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "analyze <sitemap-url>",
		Short: "Summarize a published sitemap and spot-check some of its pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: 30 * time.Second}
			report, err := analyzer.Analyze(cmd.Context(), client, args[0], samples)
			if err != nil {
				return err
			}
			report.Write(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().IntVarP(&samples, "samples", "n", 3, "number of listed pages to fetch")
	return cmd
}
