package tui

import (
	"github.com/csheth/artscout/internal/artic"
	"github.com/csheth/artscout/internal/window"
)

// screen is the route the program is showing. The list screens each own a
// window controller; details is shown on top of the list that opened it.
type screen int

const (
	screenHome screen = iota
	screenSearch
	screenFavorites
	screenDetails
)

func (s screen) String() string {
	switch s {
	case screenHome:
		return "Home"
	case screenSearch:
		return "Search"
	case screenFavorites:
		return "Favorites"
	case screenDetails:
		return "Details"
	default:
		return "Unknown"
	}
}

func (s screen) isList() bool {
	switch s {
	case screenHome, screenSearch, screenFavorites:
		return true
	default:
		return false
	}
}

// startingPage is where each list screen begins paging.
func (s screen) startingPage() int {
	switch s {
	case screenHome:
		return 2
	default:
		return 1
	}
}

const heroTagline = "Wander the Art Institute of Chicago from your terminal."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 2
	searchHeaderPrefix        = "Displaying results for: "

	// detailScope groups detail fetches so closing the overlay cancels them.
	detailScope = "details"
)

// Card sizing: one terminal row per 25 layout units, clamped.
const (
	layoutUnitsPerRow = 25.0
	minCardRows       = 3
	maxCardRows       = 16
	fallbackCardRows  = 6
)

type pageResultMsg struct {
	listID string
	ext    window.Extension
	batch  window.Batch
	err    error
}

type detailResultMsg struct {
	id     int
	detail *artic.ArtworkDetail
	err    error
}

type favoriteResultMsg struct {
	id    int
	title string
	saved bool
	err   error
}

type downloadResultMsg struct {
	imageID string
	path    string
	err     error
}
