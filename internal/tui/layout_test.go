package tui

import (
	"strings"
	"testing"

	"github.com/csheth/artscout/internal/artic"
)

func TestPageLayoutUpdate(t *testing.T) {
	cases := []struct {
		name           string
		width          int
		height         int
		chrome         int
		viewportWidth  int
		viewportHeight int
	}{
		{name: "narrow", width: 80, height: 24, chrome: 3, viewportWidth: 78, viewportHeight: 21},
		{name: "wide", width: 200, height: 40, chrome: 5, viewportWidth: 198, viewportHeight: 35},
		{name: "tiny", width: 20, height: 5, chrome: 3, viewportWidth: minViewportWidth, viewportHeight: 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := newPageLayout()
			layout.Update(tc.width, tc.height, tc.chrome)
			if layout.viewportWidth != tc.viewportWidth {
				t.Fatalf("viewport width mismatch: got %d want %d", layout.viewportWidth, tc.viewportWidth)
			}
			if layout.viewportHeight != tc.viewportHeight {
				t.Fatalf("viewport height mismatch: got %d want %d", layout.viewportHeight, tc.viewportHeight)
			}
		})
	}
}

func thumb(width, height float64) artic.Thumbnail {
	return artic.Thumbnail{Width: &width, Height: &height}
}

func TestCardRows(t *testing.T) {
	cases := []struct {
		name string
		art  artic.Artwork
		want int
	}{
		{name: "landscape", art: artic.Artwork{Thumbnail: thumb(200, 100)}, want: 8},
		{name: "portrait", art: artic.Artwork{Thumbnail: thumb(100, 150)}, want: 12},
		{name: "no thumbnail", art: artic.Artwork{}, want: fallbackCardRows},
		{name: "panorama", art: artic.Artwork{Thumbnail: thumb(1000, 10)}, want: minCardRows},
		{name: "scroll", art: artic.Artwork{Thumbnail: thumb(100, 2000)}, want: maxCardRows},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cardRows(tc.art); got != tc.want {
				t.Fatalf("cardRows() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRenderCard(t *testing.T) {
	art := artic.Artwork{
		ID:             7,
		Title:          "Nighthawks",
		ImageID:        "img-0007",
		ArtistTitle:    "Edward Hopper",
		IsPublicDomain: true,
		Thumbnail:      thumb(200, 100),
	}
	card := renderCard(art, true, true, 80)
	for _, want := range []string{"▸ Nighthawks ★", "Edward Hopper · public domain", "[img-0007]"} {
		if !strings.Contains(card, want) {
			t.Fatalf("card missing %q:\n%s", want, card)
		}
	}
	if lines := strings.Count(card, "\n") + 1; lines != 2+cardRows(art)+2 {
		t.Fatalf("card spans %d lines, want %d", lines, 2+cardRows(art)+2)
	}

	plain := renderCard(artic.Artwork{Title: "", ImageID: "x"}, false, false, 80)
	if !strings.Contains(plain, "Untitled ☆") || !strings.Contains(plain, "Unknown artist") {
		t.Fatalf("fallback card:\n%s", plain)
	}
}

func TestClampYOffset(t *testing.T) {
	cases := []struct{ offset, lines, height, want int }{
		{offset: 5, lines: 100, height: 20, want: 5},
		{offset: 90, lines: 100, height: 20, want: 80},
		{offset: -3, lines: 100, height: 20, want: 0},
		{offset: 4, lines: 10, height: 20, want: 0},
	}
	for _, tc := range cases {
		if got := clampYOffset(tc.offset, tc.lines, tc.height); got != tc.want {
			t.Fatalf("clampYOffset(%d, %d, %d) = %d, want %d", tc.offset, tc.lines, tc.height, got, tc.want)
		}
	}
}
