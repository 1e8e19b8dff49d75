package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/artscout/internal/window"
)

func (m *model) View() string {
	m.refreshViewportIfDirty()
	parts := []string{m.tabBar()}
	if m.screen == screenSearch {
		parts = append(parts, m.searchPanel())
	}
	switch m.screen {
	case screenHome, screenSearch, screenFavorites, screenDetails:
		parts = append(parts, m.viewport.View())
	default:
		parts = append(parts, errorStyle.Render(fmt.Sprintf("unknown screen %d", m.screen)))
	}
	parts = append(parts, m.statusBarView(), m.messageLine())
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	return strings.Join(parts, "\n")
}

func (m *model) tabBar() string {
	tabs := []struct {
		key    string
		screen screen
	}{
		{"1", screenHome},
		{"2", screenSearch},
		{"3", screenFavorites},
	}
	current := m.screen
	if current == screenDetails {
		current = m.returnTo
	}
	cells := make([]string, 0, len(tabs)+1)
	for _, tab := range tabs {
		label := fmt.Sprintf(" %s %s ", tab.key, tab.screen)
		if tab.screen == current {
			cells = append(cells, activeTabStyle.Render(label))
		} else {
			cells = append(cells, tabStyle.Render(label))
		}
	}
	if m.screen == screenDetails {
		cells = append(cells, activeTabStyle.Render(" Details "))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *model) searchPanel() string {
	var filters []string
	if m.filters.IsPublicDomain {
		filters = append(filters, "public domain")
	}
	if m.filters.IsOnView {
		filters = append(filters, "on view")
	}
	hint := "/ to edit · p public domain · o on view"
	if len(filters) > 0 {
		hint = "filters: " + strings.Join(filters, ", ") + " · " + hint
	}
	if m.typing {
		hint = "Enter to search, Esc to cancel."
	}
	return m.searchInput.View() + "\n" + helperStyle.Render(hint)
}

func (m *model) heroView() string {
	if m.viewport.Width < lipgloss.Width(logoArtLines[0])+2 {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			heroTitleStyle.Render("ARTSCOUT"),
			taglineStyle.Render(heroTagline),
		)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderLogo(),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) buildDetailContent() string {
	cb := &contentBuilder{}
	if m.detail == nil {
		if m.detailErr != "" {
			cb.WriteString(errorStyle.Render(m.detailErr))
			cb.WriteRune('\n')
			cb.WriteString(helperStyle.Render("Press r to retry or Esc to go back."))
			return cb.String()
		}
		cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Loading artwork %d…", m.spinner.View(), m.detailID)))
		return cb.String()
	}

	d := m.detail
	wrap := m.wrapWidth(4)
	star := "☆ not saved"
	if m.config.Favorites != nil && m.config.Favorites.IsSaved(d.ID) {
		star = "★ saved"
	}
	cb.WriteString(heroTitleStyle.Render(wordwrap.String(d.Title, wrap)))
	cb.WriteRune('\n')
	if d.ArtistDisplay != "" {
		cb.WriteString(subtitleStyle.Render(wordwrap.String(d.ArtistDisplay, wrap)))
		cb.WriteRune('\n')
	}
	cb.WriteString(helperStyle.Render(star))
	cb.WriteString("\n\n")

	rows := cardRows(d.Artwork)
	box := placeholderStyle.Width(min(wrap-2, 60)).Height(rows).Render(placeholderBody(d.Artwork, min(wrap-2, 60)-2, rows))
	cb.WriteString(box)
	cb.WriteRune('\n')
	if d.ImageURL != "" {
		cb.WriteString(helperStyle.Render(d.ImageURL))
		cb.WriteRune('\n')
	}
	cb.WriteRune('\n')

	facts := []struct{ label, value string }{
		{"Date", d.DateDisplay},
		{"Medium", d.MediumDisplay},
		{"Origin", d.PlaceOfOrigin},
		{"Dimensions", d.Dimensions},
		{"Credit", d.CreditLine},
	}
	for _, fact := range facts {
		if strings.TrimSpace(fact.value) == "" {
			continue
		}
		cb.WriteString(keyDescStyle.Render(fmt.Sprintf("%-11s", fact.label)))
		cb.WriteString(indentMultiline(wordwrap.String(fact.value, wrap-12), strings.Repeat(" ", 11))[11:])
		cb.WriteRune('\n')
	}

	description := d.Description
	if description == "" {
		description = d.ShortDescription
	}
	if description != "" {
		cb.WriteRune('\n')
		cb.WriteString(sectionHeaderStyle.Render("About this work"))
		cb.WriteRune('\n')
		cb.WriteString(wordwrap.String(description, wrap))
		cb.WriteRune('\n')
	}
	return cb.String()
}

func (m *model) statusBarView() string {
	stats := []string{m.screen.String()}
	if m.list != nil && m.screen.isList() {
		snap := m.list.ctrl.Snapshot()
		if snap.Ceiling < window.DefaultPageCap {
			stats = append(stats, fmt.Sprintf("Page %d/%d", snap.CurrentPage, snap.Ceiling))
		} else {
			stats = append(stats, fmt.Sprintf("Page %d", snap.CurrentPage))
		}
		if len(snap.Loaded) > 0 {
			stats = append(stats, fmt.Sprintf("Window %d–%d", snap.Loaded[0], snap.Loaded[len(snap.Loaded)-1]))
		}
		if snap.Locked() {
			stats = append(stats, fmt.Sprintf("%s %s", m.spinner.View(), snap.State))
		}
	}
	if m.config.Favorites != nil {
		stats = append(stats, fmt.Sprintf("★ %d", len(m.config.Favorites.IDs())))
	}
	if badges := m.jobStatusBadges(); len(badges) > 0 {
		stats = append(stats, badges...)
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) jobStatusBadges() []string {
	if len(m.active) == 0 {
		return nil
	}
	counts := map[jobKind]int{}
	for _, snap := range m.active {
		counts[snap.Kind]++
	}
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	badges := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		badges = append(badges, fmt.Sprintf("%s×%d", kind, counts[jobKind(kind)]))
	}
	return badges
}

func (m *model) messageLine() string {
	if m.errorMessage != "" {
		return errorStyle.Render(m.errorMessage)
	}
	if m.infoMessage != "" {
		return helperStyle.Render(m.infoMessage)
	}
	return " "
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"↑/↓", "Scroll"},
		{"tab", "Next artwork"},
		{"enter", "Details"},
		{"f", "Favorite"},
		{"d", "Download image"},
		{"1/2/3", "Home/Search/Saved"},
		{"/", "Search"},
		{"p/o", "Filters"},
		{"r", "Retry"},
		{"esc", "Back"},
		{"?", "Toggle cheatsheet"},
		{"q", "Quit"},
	}
	rows := []string{sectionHeaderStyle.Render("Navigation Cheatsheet")}
	const columns = 4
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width += 1
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}

	// shadow first, offset down and right
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			if y+1 < height && x+1 < width {
				grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
			}
		}
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			grid[y][x] = cell{r: r, style: logoFaceStyle}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}

var (
	heroAccentColor        = lipgloss.Color("#ff8c00")
	heroEmberColor         = lipgloss.Color("#2b1400")
	heroTextColor          = lipgloss.Color("#fff4d0")
	heroSecondaryTextColor = lipgloss.Color("#ffb347")
)

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Underline(true)
	subtitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	cardTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e0def4"))
	placeholderStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Foreground(lipgloss.Color("244")).Padding(0, 1)
	heroTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	taglineStyle       = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	tabStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4")).Background(lipgloss.Color("#2a273f"))
	activeTabStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(heroAccentColor)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	currentLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	logoFaceStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroEmberColor)
	logoShadowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#110600"))
	logoContainerStyle = lipgloss.NewStyle().Padding(0, 1)
	logoArtLines       = []string{
		" █████╗  ██████╗  ████████╗ ███████╗  ██████╗  ██████╗  ██╗   ██╗ ████████╗ ",
		"██╔══██╗ ██╔══██╗ ╚══██╔══╝ ██╔════╝ ██╔════╝ ██╔═══██╗ ██║   ██║ ╚══██╔══╝ ",
		"███████║ ██████╔╝    ██║    ███████╗ ██║      ██║   ██║ ██║   ██║    ██║    ",
		"██╔══██║ ██╔══██╗    ██║    ╚════██║ ██║      ██║   ██║ ██║   ██║    ██║    ",
		"██║  ██║ ██║  ██║    ██║    ███████║ ╚██████╗ ╚██████╔╝ ╚██████╔╝    ██║    ",
		"╚═╝  ╚═╝ ╚═╝  ╚═╝    ╚═╝    ╚══════╝  ╚═════╝  ╚═════╝   ╚═════╝     ╚═╝    ",
	}
)
