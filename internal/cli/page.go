package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/csheth/artscout/internal/artic"
	"github.com/csheth/artscout/internal/window"
)

func newPageCmd(opts *options) *cobra.Command {
	var (
		query        string
		publicDomain bool
		onView       bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "page N",
		Short: "Print one page of catalog search results",
		Long: `Fetches a single page of ten artworks, drops records without an image and
prints what the browser would render for it, including the layout height
derived from each thumbnail.`,
		Example: `  # The highlights feed starts at page 2
  artscout page 2

  # Public domain results for a search term
  artscout page 1 --query "american gothic" --public-domain --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := strconv.Atoi(args[0])
			if err != nil || page < 1 {
				return fmt.Errorf("page must be a positive integer, got %q", args[0])
			}

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			source := window.SearchSource{
				Fetcher: a.client,
				BaseURL: a.client.BaseURL(),
				Term:    query,
				Filters: artic.Filters{IsPublicDomain: publicDomain, IsOnView: onView},
			}
			batch, err := source.Page(cmd.Context(), page)
			if err != nil {
				return err
			}
			a.logger.Info("page printed", "page", page, "records", len(batch.Records))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(pageReport(page, batch))
			}
			fmt.Fprintln(out, renderPage(page, batch))
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "search term")
	cmd.Flags().BoolVar(&publicDomain, "public-domain", false, "only public domain works")
	cmd.Flags().BoolVar(&onView, "on-view", false, "only works currently on view")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

type pageRow struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Artist       string   `json:"artist,omitempty"`
	ImageID      string   `json:"image_id"`
	LayoutHeight *float64 `json:"layout_height,omitempty"`
}

type pageOutput struct {
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages,omitempty"`
	Artworks   []pageRow `json:"artworks"`
}

func pageReport(page int, batch window.Batch) pageOutput {
	out := pageOutput{Page: page, Artworks: make([]pageRow, 0, len(batch.Records))}
	if batch.TotalKnown {
		out.TotalPages = batch.TotalPages
	}
	for _, art := range batch.Records {
		row := pageRow{ID: art.ID, Title: art.Title, Artist: art.ArtistTitle, ImageID: art.ImageID}
		if h, ok := art.LayoutHeight(); ok {
			row.LayoutHeight = &h
		}
		out.Artworks = append(out.Artworks, row)
	}
	return out
}

func renderPage(page int, batch window.Batch) string {
	report := pageReport(page, batch)
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return cell }).
		Headers("ID", "TITLE", "ARTIST", "HEIGHT")
	for _, row := range report.Artworks {
		height := "-"
		if row.LayoutHeight != nil {
			height = strconv.FormatFloat(*row.LayoutHeight, 'f', 1, 64)
		}
		t.Row(strconv.Itoa(row.ID), row.Title, row.Artist, height)
	}
	header := fmt.Sprintf("Page %d", page)
	if report.TotalPages > 0 {
		header = fmt.Sprintf("Page %d of %d", page, report.TotalPages)
	}
	return header + "\n" + t.String()
}
