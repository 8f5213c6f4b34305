package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/romangod6/sitemapgen/internal/generator"
	"github.com/romangod6/sitemapgen/internal/sitemap"
)

func newRoutesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the configured routes that would be added to the sitemap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			excluded := cfg.Sitemap.ExcludedRoutes
			if excluded == nil {
				excluded = sitemap.DefaultExcludedRoutes
			}

			uris, err := generator.RouteTable(cfg.Sitemap.Routes).URIs(excluded)
			if err != nil {
				return err
			}
			for _, uri := range uris {
				fmt.Fprintln(cmd.OutOrStdout(), uri)
			}
			return nil
		},
	}
}
