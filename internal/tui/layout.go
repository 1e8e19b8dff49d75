package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/artscout/internal/artic"
	"github.com/csheth/artscout/internal/window"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 20,
	}
}

// Update sizes the viewport to the window minus chrome rows.
func (l *pageLayout) Update(width, height, chrome int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	contentHeight := height - chrome
	if contentHeight < 6 {
		contentHeight = 6
	}
	l.viewportHeight = contentHeight
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

// listContent is the rendered window. anchors[i] is the first line of
// records[i] and pages[i] the page it came from.
type listContent struct {
	content string
	records []artic.Artwork
	anchors []int
	pages   []int
}

func (m *model) buildListContent() listContent {
	cb := &contentBuilder{}
	out := listContent{}
	if m.list == nil {
		return out
	}
	snap := m.list.ctrl.Snapshot()
	pages := m.list.ctrl.Pages()

	if len(pages) > 0 && pages[0].Number == snap.StartingPage {
		if header := m.listHeader(); header != "" {
			cb.WriteString(header)
			cb.WriteString("\n\n")
		}
	}

	if m.list.screen == screenFavorites && m.list.total == 0 {
		cb.WriteString(helperStyle.Render("No saved artworks yet. Press f on any artwork to save it."))
		cb.WriteRune('\n')
		out.content = cb.String()
		return out
	}

	if len(pages) == 0 {
		switch {
		case m.list.err != "":
			cb.WriteString(errorStyle.Render(m.list.err))
			cb.WriteRune('\n')
			cb.WriteString(helperStyle.Render("Press r to retry."))
			cb.WriteRune('\n')
		default:
			cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Loading page %d…", m.spinner.View(), snap.CurrentPage)))
			cb.WriteRune('\n')
		}
		out.content = cb.String()
		return out
	}

	wrap := m.wrapWidth(4)
	for pageIdx, page := range pages {
		if pageIdx > 0 {
			cb.WriteRune('\n')
		}
		label := fmt.Sprintf("Page %d", page.Number)
		if snap.Ceiling < window.DefaultPageCap && snap.Ceiling >= page.Number {
			label = fmt.Sprintf("Page %d of %d", page.Number, snap.Ceiling)
		}
		cb.WriteString(sectionHeaderStyle.Render(label))
		cb.WriteString("\n\n")
		if len(page.Records) == 0 {
			cb.WriteString(helperStyle.Render("No artworks with images on this page."))
			cb.WriteRune('\n')
			continue
		}
		for _, art := range page.Records {
			idx := len(out.records)
			out.records = append(out.records, art)
			out.anchors = append(out.anchors, cb.Line())
			out.pages = append(out.pages, page.Number)
			saved := m.config.Favorites != nil && m.config.Favorites.IsSaved(art.ID)
			cb.WriteString(renderCard(art, idx == m.list.cursor, saved, wrap))
			cb.WriteString("\n\n")
		}
	}

	last := pages[len(pages)-1].Number
	if !snap.Locked() && last >= snap.Ceiling {
		cb.WriteString(helperStyle.Render("End of results."))
		cb.WriteRune('\n')
	}
	out.content = cb.String()
	return out
}

func (m *model) listHeader() string {
	switch m.list.screen {
	case screenHome:
		return joinNonEmpty([]string{m.heroView(), sectionHeaderStyle.Render("Highlights from the collection")})
	case screenSearch:
		lines := []string{}
		if m.list.term != "" {
			lines = append(lines, titleStyle.Render(searchHeaderPrefix+m.list.term))
		}
		if f := m.list.filters.ActiveFilter(); f != "" {
			lines = append(lines, helperStyle.Render("Filter: "+filterLabel(f)))
		}
		return strings.Join(lines, "\n")
	case screenFavorites:
		return titleStyle.Render(fmt.Sprintf("Saved artworks (%d)", m.list.total))
	default:
		return ""
	}
}

func filterLabel(field string) string {
	switch field {
	case "is_public_domain":
		return "public domain only"
	case "is_on_view":
		return "on view only"
	default:
		return field
	}
}

// cardRows converts a layout height into terminal rows for the image block.
func cardRows(art artic.Artwork) int {
	h, ok := art.LayoutHeight()
	if !ok {
		return fallbackCardRows
	}
	rows := int(math.Round(h / layoutUnitsPerRow))
	if rows < minCardRows {
		return minCardRows
	}
	if rows > maxCardRows {
		return maxCardRows
	}
	return rows
}

func renderCard(art artic.Artwork, selected, saved bool, width int) string {
	prefix := "  "
	if selected {
		prefix = "▸ "
	}
	star := "☆"
	if saved {
		star = "★"
	}
	title := prefix + trimmedTitle(art) + " " + star
	if selected {
		title = currentLineStyle.Render(title)
	} else {
		title = cardTitleStyle.Render(title)
	}

	meta := []string{}
	if art.ArtistTitle != "" {
		meta = append(meta, art.ArtistTitle)
	}
	if art.IsPublicDomain {
		meta = append(meta, "public domain")
	}
	if art.IsOnView {
		meta = append(meta, "on view")
	}
	if len(meta) == 0 {
		meta = append(meta, "Unknown artist")
	}

	boxWidth := width - 4
	if boxWidth > 60 {
		boxWidth = 60
	}
	rows := cardRows(art)
	body := placeholderBody(art, boxWidth-2, rows)
	box := placeholderStyle.Width(boxWidth).Height(rows).Render(body)

	return strings.Join([]string{
		title,
		"  " + helperStyle.Render(strings.Join(meta, " · ")),
		indentMultiline(box, "  "),
	}, "\n")
}

// placeholderBody fills the image block: alt text first, then the image id,
// never taller than rows.
func placeholderBody(art artic.Artwork, width, rows int) string {
	var lines []string
	if strings.TrimSpace(art.Thumbnail.AltText) != "" {
		lines = append(lines, strings.Split(wordwrap.String(art.Thumbnail.AltText, width), "\n")...)
	}
	lines = append(lines, "["+art.ImageID+"]")
	if len(lines) > rows {
		lines = append(lines[:rows-1], lines[len(lines)-1])
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(lines, "\n"))
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func splitLinesPreserve(content string) []string {
	if content == "" {
		return []string{""}
	}
	return strings.Split(content, "\n")
}
