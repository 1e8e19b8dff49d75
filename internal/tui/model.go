package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/csheth/artscout/internal/artic"
	"github.com/csheth/artscout/internal/favorites"
	"github.com/csheth/artscout/internal/window"
)

// Catalog is everything the TUI asks of the catalog client.
// *artic.Client satisfies it.
type Catalog interface {
	window.Fetcher
	BaseURL() string
	ImageURL(imageID string) string
	Artwork(ctx context.Context, id int) (*artic.ArtworkDetail, error)
	DownloadImage(ctx context.Context, imageID, dir string) (string, error)
}

// Config wires runtime options into the TUI program.
type Config struct {
	Catalog        Catalog
	Favorites      favorites.Store
	RetainPages    int
	DownloadDir    string
	RequestTimeout time.Duration
	// InitialSearch opens the Search screen with this term instead of Home.
	InitialSearch string
	Logger        *slog.Logger
}

// listView is one mounted list screen. Its id tags page results so that a
// response for a list that has since been replaced is dropped.
type listView struct {
	id       string
	screen   screen
	ctrl     *window.Controller
	term     string
	filters  artic.Filters
	total    int
	cursor   int
	inflight window.Extension
	err      string
}

type model struct {
	config Config
	logger *slog.Logger
	jobs   *jobBus
	active map[string]jobSnapshot

	screen   screen
	returnTo screen
	list        *listView
	records     []artic.Artwork
	anchors     []int
	recordPages []int

	searchInput textinput.Model
	searchTerm  string
	filters     artic.Filters
	typing      bool

	detailID      int
	detail        *artic.ArtworkDetail
	detailErr     string
	listYOffset   int
	listTop       cardRef
	detailContent string

	spinner       spinner.Model
	viewport      viewport.Model
	layout        pageLayout
	viewportDirty bool
	lineCount     int

	helpVisible  bool
	errorMessage string
	infoMessage  string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 20 * time.Second
	}

	searchInput := textinput.New()
	searchInput.Placeholder = "Search the collection…"
	searchInput.CharLimit = 120
	searchInput.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = false

	m := &model{
		config:        config,
		logger:        logger.With("component", "tui"),
		jobs:          newJobBus(logger),
		active:        map[string]jobSnapshot{},
		screen:        screenHome,
		returnTo:      screenHome,
		searchInput:   searchInput,
		spinner:       spin,
		viewport:      vp,
		layout:        newPageLayout(),
		viewportDirty: true,
		infoMessage:   "Scroll to browse. Press ? for keys.",
	}
	if term := strings.TrimSpace(config.InitialSearch); term != "" {
		m.screen = screenSearch
		m.searchTerm = term
		m.searchInput.SetValue(term)
	}
	return m
}

func (m *model) Init() tea.Cmd {
	return m.mountList(m.screen)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, m.onListScrolled()
	case spinner.TickMsg:
		if len(m.active) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.list != nil && len(m.list.ctrl.Pages()) == 0 {
			m.markViewportDirty()
			m.refreshViewportIfDirty()
		}
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			return m, m.scrollBy(-3)
		case tea.MouseWheelDown:
			return m, m.scrollBy(3)
		}
		return m, nil
	case jobSignalMsg:
		wasIdle := len(m.active) == 0
		m.active[msg.Snapshot.ID] = msg.Snapshot
		if wasIdle {
			return m, m.spinner.Tick
		}
		return m, nil
	case jobResultEnvelope:
		delete(m.active, msg.Snapshot.ID)
		if msg.Payload == nil {
			return m, nil
		}
		if msg.Snapshot.Status == jobStatusCanceled {
			m.logger.Debug("cancelled job result dropped", "id", msg.Snapshot.ID, "scope", msg.Snapshot.Scope)
			return m, nil
		}
		return m.Update(msg.Payload)
	case pageResultMsg:
		return m, m.applyPage(msg)
	case detailResultMsg:
		m.applyDetail(msg)
		return m, nil
	case favoriteResultMsg:
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("Favorite update failed: %v", msg.err)
			return m, nil
		}
		m.errorMessage = ""
		if msg.saved {
			m.infoMessage = fmt.Sprintf("Saved %s to favorites.", msg.title)
		} else {
			m.infoMessage = fmt.Sprintf("Removed %s from favorites.", msg.title)
		}
		m.rerender()
		return m, nil
	case downloadResultMsg:
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("Download failed: %v", msg.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = "Image saved to " + msg.path
		return m, nil
	}
	return m, nil
}

// mountList replaces the current list with a fresh controller for target.
// The old controller is closed so its in-flight page can no longer land.
func (m *model) mountList(target screen) tea.Cmd {
	if m.list != nil {
		m.list.ctrl.Close()
		m.jobs.Cancel(m.list.id)
	}
	m.screen = target
	m.detail = nil
	m.errorMessage = ""

	lv := &listView{id: uuid.NewString(), screen: target}
	opts := window.Options{
		StartingPage: target.startingPage(),
		Retain:       m.config.RetainPages,
		Logger:       m.logger,
	}
	var source window.PageSource
	switch target {
	case screenHome:
		source = window.SearchSource{Fetcher: m.config.Catalog, BaseURL: m.config.Catalog.BaseURL()}
	case screenSearch:
		lv.term = m.searchTerm
		lv.filters = m.filters
		source = window.SearchSource{
			Fetcher: m.config.Catalog,
			BaseURL: m.config.Catalog.BaseURL(),
			Term:    m.searchTerm,
			Filters: m.filters,
		}
	case screenFavorites:
		var ids []int
		if m.config.Favorites != nil {
			ids = m.config.Favorites.IDs()
		}
		idSource := window.IDListSource{Fetcher: m.config.Catalog, BaseURL: m.config.Catalog.BaseURL(), IDs: ids}
		lv.total = len(ids)
		opts.PageLimit = idSource.PageLimit()
		source = idSource
	case screenDetails:
		m.errorMessage = "details is not a list screen"
		return nil
	}

	ctrl, err := window.New(source, opts)
	if err != nil {
		m.list = nil
		m.errorMessage = err.Error()
		return nil
	}
	lv.ctrl = ctrl
	m.list = lv
	m.logger.Debug("list mounted", "screen", target, "list", lv.id, "starting_page", opts.StartingPage)

	m.resize(m.layout.windowWidth, m.layout.windowHeight)
	m.viewport.SetYOffset(0)
	m.markViewportDirty()
	m.refreshViewportIfDirty()

	ext, ok := ctrl.Start()
	if !ok {
		return nil
	}
	return m.startExtension(ext)
}

func (m *model) startExtension(ext window.Extension) tea.Cmd {
	m.list.inflight = ext
	m.logger.Debug("extension granted", "list", m.list.id, "direction", ext.Direction, "page", ext.Page)
	return m.jobs.Start(jobKindPage, m.list.id, fetchPageJob(m.list.id, m.list.ctrl, ext, m.config.RequestTimeout))
}

func (m *model) applyPage(msg pageResultMsg) tea.Cmd {
	if m.list == nil || msg.listID != m.list.id {
		m.logger.Debug("page result for unmounted list dropped", "list", msg.listID)
		return nil
	}
	err := m.list.ctrl.Apply(msg.ext, msg.batch, msg.err)
	switch {
	case errors.Is(err, window.ErrClosed), errors.Is(err, window.ErrStale):
		m.logger.Debug("page result discarded", "page", msg.ext.Page, "err", err)
		return nil
	case err != nil:
		m.errorMessage = fmt.Sprintf("Could not load page %d: %v", msg.ext.Page, err)
		if _, loaded := m.list.ctrl.Focal(); !loaded {
			m.list.err = m.errorMessage
		}
		m.logger.Warn("page load failed", "page", msg.ext.Page, "direction", msg.ext.Direction, "err", err)
		m.rerender()
		return nil
	}
	m.list.err = ""
	m.errorMessage = ""
	if !m.screen.isList() {
		m.rerender()
		return nil
	}
	top := m.topCard()
	selected := m.cardAt(m.list.cursor, 0)
	m.rerender()
	m.restoreTopCard(top)
	if i, ok := m.indexOfCard(selected); ok && i != m.list.cursor {
		m.list.cursor = i
		m.rerender()
	}
	if m.syncCursorToViewport() {
		m.rerender()
	}
	return nil
}

// cardRef names a rendered card by page and id, which stays valid when
// pages are spliced in or evicted around it. delta is the viewport's
// distance below the card's first line.
type cardRef struct {
	page  int
	id    int
	delta int
	ok    bool
}

func (m *model) cardAt(i, delta int) cardRef {
	if i < 0 || i >= len(m.records) || i >= len(m.recordPages) {
		return cardRef{}
	}
	return cardRef{page: m.recordPages[i], id: m.records[i].ID, delta: delta, ok: true}
}

// topCard is the first card starting at or below the first viewport line,
// or the last card when the viewport starts inside it.
func (m *model) topCard() cardRef {
	if len(m.anchors) == 0 {
		return cardRef{}
	}
	top := m.viewport.YOffset
	i := len(m.anchors) - 1
	for j, line := range m.anchors {
		if line >= top {
			i = j
			break
		}
	}
	return m.cardAt(i, top-m.anchors[i])
}

func (m *model) indexOfCard(ref cardRef) (int, bool) {
	if !ref.ok {
		return 0, false
	}
	for i, art := range m.records {
		if art.ID == ref.id && i < len(m.recordPages) && m.recordPages[i] == ref.page {
			return i, true
		}
	}
	return 0, false
}

// restoreTopCard scrolls so ref sits where it was before the content changed.
func (m *model) restoreTopCard(ref cardRef) {
	i, ok := m.indexOfCard(ref)
	if !ok {
		return
	}
	m.viewport.SetYOffset(clampYOffset(m.anchors[i]+ref.delta, m.lineCount, m.viewport.Height))
}

func (m *model) applyDetail(msg detailResultMsg) {
	if m.screen != screenDetails || msg.id != m.detailID {
		return
	}
	if msg.err != nil {
		m.detailErr = msg.err.Error()
		m.errorMessage = fmt.Sprintf("Could not load artwork %d: %v", msg.id, msg.err)
	} else {
		m.detail = msg.detail
		m.detailErr = ""
		m.errorMessage = ""
	}
	m.rerender()
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.typing {
		return m, m.processSearchKey(msg)
	}
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.helpVisible = !m.helpVisible
		m.resize(m.layout.windowWidth, m.layout.windowHeight)
		return m, nil
	case "esc", "backspace":
		if m.screen == screenDetails {
			m.closeDetails()
			return m, nil
		}
		if m.helpVisible {
			m.helpVisible = false
			m.resize(m.layout.windowWidth, m.layout.windowHeight)
		}
		return m, nil
	case "up", "k":
		return m, m.scrollBy(-1)
	case "down", "j":
		return m, m.scrollBy(1)
	case "pgup", "b":
		return m, m.scrollBy(-m.viewport.Height)
	case "pgdown", " ":
		return m, m.scrollBy(m.viewport.Height)
	case "g", "home":
		return m, m.scrollBy(-m.viewport.YOffset)
	case "G", "end":
		return m, m.scrollBy(m.lineCount)
	}

	if m.screen == screenDetails {
		return m, m.handleDetailKey(msg)
	}

	switch msg.String() {
	case "1", "h":
		return m, m.switchScreen(screenHome)
	case "2", "s":
		return m, m.switchScreen(screenSearch)
	case "3", "*":
		return m, m.switchScreen(screenFavorites)
	case "/":
		m.screen = screenSearch
		m.typing = true
		m.searchInput.Focus()
		m.resize(m.layout.windowWidth, m.layout.windowHeight)
		return m, textinput.Blink
	case "tab", "n":
		return m, m.moveCursor(1)
	case "shift+tab", "N":
		return m, m.moveCursor(-1)
	case "enter":
		if art, ok := m.selected(); ok {
			return m, m.openDetails(art)
		}
		return m, nil
	case "f":
		if art, ok := m.selected(); ok {
			return m, m.toggleFavorite(art.ID, trimmedTitle(art))
		}
		return m, nil
	case "p":
		if m.screen == screenSearch {
			m.filters.IsPublicDomain = !m.filters.IsPublicDomain
			return m, m.mountList(screenSearch)
		}
	case "o":
		if m.screen == screenSearch {
			m.filters.IsOnView = !m.filters.IsOnView
			return m, m.mountList(screenSearch)
		}
	case "r":
		return m, m.retry()
	}
	return m, nil
}

func (m *model) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "f":
		title := fmt.Sprintf("artwork %d", m.detailID)
		if m.detail != nil {
			title = trimmedTitle(m.detail.Artwork)
		}
		return m.toggleFavorite(m.detailID, title)
	case "d":
		if m.detail == nil || m.detail.ImageID == "" {
			m.errorMessage = "This artwork has no image to download."
			return nil
		}
		m.infoMessage = "Downloading " + m.detail.ImageID + "…"
		return m.jobs.Start(jobKindDownload, "", downloadImageJob(m.config.Catalog, m.detail.ImageID, m.config.DownloadDir))
	case "r":
		if m.detail == nil {
			m.detailErr = ""
			m.rerender()
			return m.jobs.Start(jobKindDetail, detailScope, fetchDetailJob(m.config.Catalog, m.detailID, m.config.RequestTimeout))
		}
	}
	return nil
}

func (m *model) processSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.typing = false
		m.searchInput.Blur()
		m.searchInput.SetValue(m.searchTerm)
		m.resize(m.layout.windowWidth, m.layout.windowHeight)
		if m.list == nil || m.list.screen != screenSearch {
			return m.mountList(screenSearch)
		}
		return nil
	case tea.KeyEnter:
		m.typing = false
		m.searchInput.Blur()
		m.searchTerm = strings.TrimSpace(m.searchInput.Value())
		m.infoMessage = ""
		return m.mountList(screenSearch)
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return cmd
}

func (m *model) switchScreen(target screen) tea.Cmd {
	if m.list != nil && m.list.screen == target && m.screen == target {
		return nil
	}
	return m.mountList(target)
}

// retry re-requests the focal page after a failed initial load.
func (m *model) retry() tea.Cmd {
	if m.list == nil {
		return m.mountList(m.screen)
	}
	ext, ok := m.list.ctrl.Start()
	if !ok {
		return m.onListScrolled()
	}
	m.list.err = ""
	m.errorMessage = ""
	m.rerender()
	return m.startExtension(ext)
}

func (m *model) openDetails(art artic.Artwork) tea.Cmd {
	m.returnTo = m.screen
	m.listYOffset = m.viewport.YOffset
	m.listTop = m.topCard()
	m.screen = screenDetails
	m.detailID = art.ID
	m.detail = nil
	m.detailErr = ""
	m.resize(m.layout.windowWidth, m.layout.windowHeight)
	m.rerender()
	m.viewport.SetYOffset(0)
	return m.jobs.Start(jobKindDetail, detailScope, fetchDetailJob(m.config.Catalog, art.ID, m.config.RequestTimeout))
}

func (m *model) closeDetails() {
	m.jobs.Cancel(detailScope)
	m.screen = m.returnTo
	m.detail = nil
	m.detailErr = ""
	m.resize(m.layout.windowWidth, m.layout.windowHeight)
	m.rerender()
	m.viewport.SetYOffset(m.listYOffset)
	m.restoreTopCard(m.listTop)
}

func (m *model) toggleFavorite(id int, title string) tea.Cmd {
	if m.config.Favorites == nil {
		m.errorMessage = "Favorites are not available."
		return nil
	}
	return m.jobs.Start(jobKindFavorite, "", toggleFavoriteJob(m.config.Favorites, id, title))
}

func (m *model) scrollBy(delta int) tea.Cmd {
	m.viewport.SetYOffset(m.viewport.YOffset + delta)
	return m.onListScrolled()
}

// onListScrolled feeds the current scroll position to the window controller
// and starts any extension it grants.
func (m *model) onListScrolled() tea.Cmd {
	if m.list == nil || !m.screen.isList() {
		return nil
	}
	if m.syncCursorToViewport() {
		m.rerender()
	}
	ext, ok := m.list.ctrl.OnScroll(m.scrollMetrics())
	if !ok {
		return nil
	}
	return m.startExtension(ext)
}

func (m *model) scrollMetrics() window.Metrics {
	return window.Metrics{
		VisibleHeight: float64(m.viewport.Height),
		ScrollOffset:  float64(m.viewport.YOffset),
		ContentHeight: float64(m.lineCount),
	}
}

func (m *model) selected() (artic.Artwork, bool) {
	if m.list == nil || m.list.cursor < 0 || m.list.cursor >= len(m.records) {
		return artic.Artwork{}, false
	}
	return m.records[m.list.cursor], true
}

// moveCursor selects the next or previous card, scrolling it into view.
// Moving past the last card pages down instead.
func (m *model) moveCursor(delta int) tea.Cmd {
	if m.list == nil || len(m.records) == 0 {
		return nil
	}
	target := m.list.cursor + delta
	if target < 0 {
		target = 0
	}
	if target >= len(m.records) {
		return m.scrollBy(m.viewport.Height)
	}
	m.list.cursor = target
	m.rerender()
	m.ensureCursorVisible()
	return m.onListScrolled()
}

func (m *model) ensureCursorVisible() {
	if m.list == nil || m.list.cursor >= len(m.anchors) {
		return
	}
	line := m.anchors[m.list.cursor]
	end := line + 4 + cardRows(m.records[m.list.cursor])
	if line < m.viewport.YOffset {
		m.viewport.SetYOffset(line)
		return
	}
	if end > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(line)
	}
}

// syncCursorToViewport moves the selection onto a visible card when the
// selected one has scrolled out of view. It reports whether it moved.
func (m *model) syncCursorToViewport() bool {
	if m.list == nil || len(m.anchors) == 0 {
		return false
	}
	top := m.viewport.YOffset
	bottom := top + m.viewport.Height
	if c := m.list.cursor; c >= 0 && c < len(m.anchors) && m.anchors[c] >= top && m.anchors[c] < bottom {
		return false
	}
	next := len(m.anchors) - 1
	for i, line := range m.anchors {
		if line >= top {
			next = i
			break
		}
	}
	if next == m.list.cursor {
		return false
	}
	m.list.cursor = next
	return true
}

func (m *model) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	chrome := 3
	if m.screen == screenSearch {
		chrome += 2
	}
	if m.helpVisible {
		chrome += lipgloss.Height(m.keyLegendView())
	}
	m.layout.Update(width, height, chrome)
	m.viewport.Width = m.layout.viewportWidth
	m.viewport.Height = m.layout.viewportHeight
	m.markViewportDirty()
	m.refreshViewportIfDirty()
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if m.viewportDirty {
		m.refreshViewport()
	}
}

func (m *model) rerender() {
	m.markViewportDirty()
	m.refreshViewportIfDirty()
}

// refreshViewport rebuilds the content for the current screen and keeps the
// scroll offset where it was, clamped to the new content.
func (m *model) refreshViewport() {
	m.viewportDirty = false
	prevYOffset := m.viewport.YOffset

	var content string
	switch m.screen {
	case screenDetails:
		content = m.buildDetailContent()
		m.detailContent = content
	case screenHome, screenSearch, screenFavorites:
		view := m.buildListContent()
		content = view.content
		m.records = view.records
		m.anchors = view.anchors
		m.recordPages = view.pages
		if m.list != nil && m.list.cursor >= len(m.records) {
			m.list.cursor = len(m.records) - 1
			if m.list.cursor < 0 {
				m.list.cursor = 0
			}
		}
	}
	m.lineCount = len(splitLinesPreserve(content))
	m.viewport.SetContent(content)
	m.viewport.SetYOffset(clampYOffset(prevYOffset, m.lineCount, m.viewport.Height))
}

func clampYOffset(offset, lines, height int) int {
	maxOffset := lines - height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	if offset < 0 {
		return 0
	}
	return offset
}
