package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/mrkt/internal/catalog"
	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/importer"
	"github.com/pders01/mrkt/internal/navigate"
	"github.com/pders01/mrkt/internal/search"
	"github.com/pders01/mrkt/internal/searchbar"
)

// Screen rows above the dropdown and below the content.
const (
	headerHeight = 2
	inputHeight  = 3
	statusHeight = 2
	dropTop      = headerHeight + inputHeight
)

// Refresher re-imports the product feeds of every store.
type Refresher interface {
	RefreshAll(ctx context.Context) ([]importer.Report, error)
}

// Options are the collaborators of the App. Opener and Refresher are optional.
type Options struct {
	Catalog   catalog.Reader
	Source    search.Source
	Opener    navigate.Navigator
	Refresher Refresher
}

type App struct {
	config     *config.Config
	catalog    catalog.Reader
	source     search.Source
	opener     navigate.Navigator
	refresher  Refresher
	search     *searchbar.Controller
	router     *navigate.Router
	keyHandler *KeyHandler
	keys       keyMap

	input     textinput.Model
	storeList list.Model
	viewport  viewport.Model
	spinner   spinner.Model
	help      help.Model

	view    View
	sb      searchbar.State
	drop    dropdown
	stores  []catalog.Store
	detail  *detail
	pending []tea.Cmd

	width  int
	height int

	status        string
	statusKind    StatusKind
	err           error
	busy          bool
	spinning      bool
	loadingDetail bool

	updates chan struct{}
	done    chan struct{}

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(cfg *config.Config, opts Options) *App {
	storeList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	storeList.Title = "› stores"
	storeList.SetShowStatusBar(false)
	storeList.SetFilteringEnabled(false)
	storeList.SetShowHelp(false)

	placeholder := cfg.Search.Placeholder
	if placeholder == "" {
		placeholder = searchbar.DefaultPlaceholder
	}
	si := textinput.New()
	si.Placeholder = placeholder
	si.Prompt = "⌕ "
	si.CharLimit = maxQueryLength

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	app := &App{
		config:    cfg,
		catalog:   opts.Catalog,
		source:    opts.Source,
		opener:    opts.Opener,
		refresher: opts.Refresher,
		keys:      newKeyMap(cfg.Keys),
		input:     si,
		storeList: storeList,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
		help:      help.New(),
		view:      ViewHome,
		updates:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	app.router = navigate.NewRouter(app.openRoute)
	app.keyHandler = NewKeyHandler(app, cfg)

	rows := searchbar.EstimateVisibleRows(cfg.Search.MaxHeight, cfg.Search.RowHeight)
	app.search = searchbar.NewController(opts.Source,
		searchbar.WithNavigator(app.router),
		searchbar.WithOnChange(app.notify),
		searchbar.WithDebounce(cfg.Search.Debounce),
		searchbar.WithFetchTimeout(cfg.Search.FetchTimeout),
		searchbar.WithVisibleRows(rows),
	)
	app.drop.height = rows + 2
	app.sb = app.search.State()

	return app
}

// notify runs on whichever goroutine changed the search state; Update picks
// the change up through waitForSearch.
func (a *App) notify(searchbar.State) {
	select {
	case a.updates <- struct{}{}:
	default:
	}
}

// Close stops background search work. The program must not be running.
func (a *App) Close() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
	a.search.Close()
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	detailCfg := a.config.UI.Detail
	maxWidth := max(detailCfg.WordWrapMaxWidth, 20)
	minWidth := max(detailCfg.WordWrapMinWidth, 20)

	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.loadStores(),
		a.waitForSearch(),
		textinput.Blink,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, a.flush()

	case tea.KeyMsg:
		model, cmd := a.keyHandler.HandleKey(msg)
		return model, tea.Batch(cmd, a.flush())

	case tea.MouseMsg:
		cmd := a.handleMouse(msg)
		return a, tea.Batch(cmd, a.flush())

	case searchUpdatedMsg:
		a.syncSearch(a.search.State())
		return a, tea.Batch(a.waitForSearch(), a.startSpinner(), a.flush())

	case storesLoadedMsg:
		a.setStores(msg.stores)
		return a, nil

	case detailRenderedMsg:
		if a.view == ViewDetail && a.detail != nil && a.detail.route == msg.route {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingDetail = false
		}
		return a, nil

	case refreshDoneMsg:
		a.busy = false
		a.afterRefresh(msg)
		return a, tea.Batch(a.loadStores(), a.flush())

	case openedMsg:
		a.setStatus(MsgOpened(msg.url), StatusSuccess)
		return a, nil

	case errorMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if !a.spinning {
			return a, nil
		}
		if !a.isBusy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	// cursor blink and other component-internal messages
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	body := max(1, height-dropTop-statusHeight)
	a.input.Width = max(10, width-8)
	a.storeList.SetSize(width, body)
	a.viewport.Width = width
	a.viewport.Height = max(1, height-headerHeight-statusHeight)
	a.help.Width = width

	// two lines of every dropdown are group headers
	a.drop.height = max(4, body)
	a.dispatch(searchbar.Resize{VisibleRows: a.drop.height - 2})
}

// dispatch feeds ev to the search controller and adopts the new state.
func (a *App) dispatch(ev searchbar.Event) {
	a.syncSearch(a.search.Dispatch(ev))
}

func (a *App) syncSearch(s searchbar.State) {
	a.sb = s
	a.drop.follow(s)
}

// queue holds a command produced outside Update's return path, such as by
// the router while a Select effect runs.
func (a *App) queue(cmd tea.Cmd) {
	if cmd != nil {
		a.pending = append(a.pending, cmd)
	}
}

func (a *App) flush() tea.Cmd {
	if len(a.pending) == 0 {
		return nil
	}
	cmds := a.pending
	a.pending = nil
	return tea.Batch(cmds...)
}

func (a *App) setStores(stores []catalog.Store) {
	a.stores = stores
	items := make([]list.Item, len(stores))
	for i, s := range stores {
		items[i] = storeItem{store: s}
	}
	a.storeList.SetItems(items)
	a.storeList.Title = "› stores · " + MsgStoresCount(len(stores))
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
	a.err = nil
}

func (a *App) isBusy() bool {
	return a.busy || a.sb.Loading || a.loadingDetail
}

// startSpinner starts the tick loop once; it stops itself when idle.
func (a *App) startSpinner() tea.Cmd {
	if a.spinning || !a.isBusy() {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

// openRoute is the router handler behind every selection.
func (a *App) openRoute(r navigate.Route) error {
	d, err := a.lookup(r)
	if err != nil {
		a.err = err
		return err
	}
	a.detail = d
	a.view = ViewDetail
	a.input.Blur()
	a.loadingDetail = true
	a.err = nil
	a.viewport.SetContent("")
	a.queue(a.renderDetail(d))
	a.queue(a.startSpinner())
	return nil
}

func (a *App) lookup(r navigate.Route) (*detail, error) {
	d := &detail{route: r}
	if a.catalog == nil {
		return a.fromResult(d, catalog.ErrNotFound)
	}
	switch r.Kind {
	case navigate.RouteStore:
		s, err := a.catalog.GetStore(r.ID)
		if err != nil {
			return a.fromResult(d, err)
		}
		d.store = s
		d.products, err = a.catalog.ListProducts(r.ID, a.config.Search.Limit)
		if err != nil {
			return nil, fmt.Errorf("loading products: %w", err)
		}
	case navigate.RouteProduct:
		p, err := a.catalog.GetProduct(r.ID)
		if err != nil {
			return a.fromResult(d, err)
		}
		d.product = p
		if s, err := a.catalog.GetStore(p.StoreID); err == nil {
			d.store = s
		}
	}
	return d, nil
}

// fromResult builds a detail from the highlighted search result when the
// local catalog does not know the record, as with a remote search backend.
func (a *App) fromResult(d *detail, err error) (*detail, error) {
	if !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}
	e, ok := a.search.State().HighlightedEntry()
	if !ok || e.ID != d.route.ID || e.Path != d.route.Path() {
		return nil, err
	}
	d.entry = &e
	return d, nil
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewHome:
		content = a.homeView()
	case ViewDetail:
		if a.loadingDetail {
			content = renderCentered(a.width, max(1, a.height-statusHeight),
				renderMuted(a.spinner.View()+" "+MsgLoading))
		} else {
			header := renderHeader("› "+a.detail.title(), a.detail.route.Path(), a.width)
			content = lipgloss.JoinVertical(lipgloss.Top, header, a.viewport.View())
		}
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(max(1, a.height-statusHeight)).
		MaxHeight(max(1, a.height-statusHeight)).
		Render(content)

	separator := SeparatorStyle.Render(strings.Repeat("─", max(0, a.width)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) homeView() string {
	header := renderHeader(CompactLogo+" search", "", a.width)

	frame := renderInputFrame(a.input.View(), a.input.Focused(), max(10, a.width-8))

	var body string
	switch {
	case a.sb.Visible():
		body = a.drop.view(a.sb, max(10, a.width-2))
	case len(a.stores) == 0:
		body = renderCentered(a.width, max(1, a.height-dropTop-statusHeight), GetWelcomeMessage())
	default:
		body = a.storeList.View()
	}

	return lipgloss.JoinVertical(lipgloss.Top, header, "", frame, body)
}

// statusBar doubles as the polite live region: while the dropdown is open
// it reads out the Announce text.
func (a *App) statusBar() string {
	style := StatusBarStyle.Width(a.width)

	if a.err != nil {
		return style.Render(StatusErrorStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}
	if a.view == ViewHome {
		if a.sb.Err != nil && a.sb.Visible() {
			return style.Render(StatusWarnStyle.Render(MsgSearchOffline))
		}
		if msg := searchbar.Announce(a.sb); msg != "" {
			if a.sb.Loading {
				msg = a.spinner.View() + " " + msg
			}
			return style.Render(msg)
		}
	}
	if a.busy {
		return style.Render(a.spinner.View() + " " + a.status)
	}
	if a.status != "" {
		return style.Render(statusStyle(a.statusKind).Render(a.status))
	}
	return style.Render(a.help.View(a.helpKeys()))
}

func (a *App) helpKeys() help.KeyMap {
	switch {
	case a.view == ViewDetail:
		return detailHelp{a.keys}
	case a.input.Focused():
		return searchHelp{a.keys}
	default:
		return a.keys
	}
}

func statusStyle(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}

type storeItem struct {
	store catalog.Store
}

func (i storeItem) Title() string       { return i.store.Name }
func (i storeItem) Description() string { return i.store.Description }
func (i storeItem) FilterValue() string { return i.store.Name }

type searchUpdatedMsg struct{}

type storesLoadedMsg struct {
	stores []catalog.Store
}

type detailRenderedMsg struct {
	route   navigate.Route
	content string
}

type refreshDoneMsg struct {
	reports []importer.Report
	err     error
}

type openedMsg struct {
	url string
}

type errorMsg struct {
	err error
}
