package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/artscout/internal/artic"
	"github.com/csheth/artscout/internal/favorites"
	"github.com/csheth/artscout/internal/window"
)

func fetchPageJob(listID string, ctrl *window.Controller, ext window.Extension, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		batch, err := ctrl.Fetch(ctx, ext)
		return pageResultMsg{listID: listID, ext: ext, batch: batch, err: err}, err
	}
}

func fetchDetailJob(catalog Catalog, id int, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		detail, err := catalog.Artwork(ctx, id)
		return detailResultMsg{id: id, detail: detail, err: err}, err
	}
}

func toggleFavoriteJob(store favorites.Store, id int, title string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		saved, err := favorites.Toggle(store, id)
		return favoriteResultMsg{id: id, title: title, saved: saved, err: err}, err
	}
}

func downloadImageJob(catalog Catalog, imageID, dir string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		path, err := catalog.DownloadImage(ctx, imageID, dir)
		return downloadResultMsg{imageID: imageID, path: path, err: err}, err
	}
}

func trimmedTitle(art artic.Artwork) string {
	title := art.Title
	if title == "" {
		title = "Untitled"
	}
	runes := []rune(title)
	if len(runes) <= 48 {
		return title
	}
	return string(runes[:45]) + "…"
}
