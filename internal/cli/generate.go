package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/romangod6/sitemapgen/internal/output"
)

type generateOptions struct {
	outputDir string
	stdout    bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write sitemap.xml (and split files when needed) to the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			gen, cleanup, err := newRun("generate", cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			b, err := gen.Build(ctx)
			if err != nil {
				return err
			}

			if opts.stdout {
				doc, err := b.Generate()
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
				return err
			}

			dir := cfg.Sitemap.OutputDir
			if opts.outputDir != "" {
				dir = opts.outputDir
			}
			result, err := output.WriteSplit(dir, cfg.Site.BaseURL, b.URLs(), output.Limits{
				MaxURLs:  cfg.Sitemap.MaxURLs,
				MaxBytes: cfg.Sitemap.MaxBytes,
			})
			if err != nil {
				return err
			}

			for _, f := range result.Files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "output directory (default: sitemap.output_dir)")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "print a single sitemap document instead of writing files")
	return cmd
}
