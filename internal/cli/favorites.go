package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/csheth/artscout/internal/window"
)

func newFavoritesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage saved artworks",
		Example: `  artscout favorites add 27992 28560
  artscout favorites list --titles
  artscout favorites remove 27992`,
	}
	cmd.AddCommand(
		newFavoritesListCmd(opts),
		newFavoritesEditCmd(opts, "add", "Save artworks by id", true),
		newFavoritesEditCmd(opts, "remove", "Forget saved artworks by id", false),
	)
	return cmd
}

func newFavoritesListCmd(opts *options) *cobra.Command {
	var titles bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print saved artwork ids in the order they were saved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.favorites()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ids := store.IDs()
			if !titles {
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			source := window.IDListSource{Fetcher: a.client, BaseURL: a.client.BaseURL(), IDs: ids}
			for page := 1; page <= source.PageLimit(); page++ {
				batch, err := source.Page(cmd.Context(), page)
				if err != nil {
					return err
				}
				for _, art := range batch.Records {
					fmt.Fprintf(out, "%d\t%s\t%s\n", art.ID, art.Title, art.ArtistTitle)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&titles, "titles", false, "fetch and print titles from the catalog")
	return cmd
}

func newFavoritesEditCmd(opts *options, use, short string, save bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil || id <= 0 {
					return fmt.Errorf("artwork id must be a positive integer, got %q", arg)
				}
				ids = append(ids, id)
			}

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.favorites()
			if err != nil {
				return err
			}
			for _, id := range ids {
				if save {
					err = store.Save(id)
				} else {
					err = store.Remove(id)
				}
				if err != nil {
					return err
				}
				a.logger.Info("favorites updated", "op", use, "id", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d saved artworks\n", len(store.IDs()))
			return nil
		},
	}
}
