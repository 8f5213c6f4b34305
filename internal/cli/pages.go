package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/storage"
)

// newPagesCmd manages the built-in pages table, which a "pages" collection
// can list in the sitemap.
func newPagesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Manage the built-in pages table",
	}
	cmd.AddCommand(
		newPagesInitCmd(root),
		newPagesAddCmd(root),
		newPagesListCmd(root),
		newPagesShowCmd(root),
	)
	return cmd
}

// openPagesStore connects and creates the pages table. Unlike generation,
// these commands own the table, so the schema is always ensured.
func openPagesStore(root *rootOptions) (storage.Store, error) {
	cfg, err := root.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is not configured")
	}
	store, err := storage.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, fmt.Errorf("initializing database tables: %w", err)
	}
	return store, nil
}

func newPagesInitCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the pages table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPagesStore(root)
			if err != nil {
				return err
			}
			return store.Close()
		},
	}
}

func newPagesAddCmd(root *rootOptions) *cobra.Command {
	var (
		slug  string
		draft bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a page and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPagesStore(root)
			if err != nil {
				return err
			}
			defer store.Close()

			page := models.NewPage(args[0], slug)
			page.Published = !draft
			if err := store.CreatePage(cmd.Context(), page); err != nil {
				return fmt.Errorf("creating page: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), page.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "URL segment (default: the page id)")
	cmd.Flags().BoolVar(&draft, "draft", false, "store the page unpublished")
	return cmd
}

func newPagesListCmd(root *rootOptions) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPagesStore(root)
			if err != nil {
				return err
			}
			defer store.Close()

			pages, err := store.ListPages(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSLUG\tPUBLISHED\tTITLE")
			for _, p := range pages {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", p.ID, p.Slug, p.Published, p.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of pages")
	cmd.Flags().IntVar(&offset, "offset", 0, "pages to skip")
	return cmd
}

func newPagesShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid page id: %w", err)
			}

			store, err := openPagesStore(root)
			if err != nil {
				return err
			}
			defer store.Close()

			page, err := store.GetPage(cmd.Context(), id)
			if err != nil {
				return err
			}
			if page == nil {
				return fmt.Errorf("page %s not found", id)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %s\n", page.ID)
			fmt.Fprintf(out, "Title:     %s\n", page.Title)
			fmt.Fprintf(out, "Slug:      %s\n", page.Slug)
			fmt.Fprintf(out, "Published: %t\n", page.Published)
			fmt.Fprintf(out, "Created:   %s\n", page.CreatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
