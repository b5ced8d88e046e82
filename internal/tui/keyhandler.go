package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/mrkt/internal/config"
	"github.com/pders01/mrkt/internal/search"
	"github.com/pders01/mrkt/internal/searchbar"
)

const maxQueryLength = 256

// navKeys map terminal keys onto the search box's navigation keys.
var navKeys = map[string]searchbar.KeyCode{
	"down":   searchbar.KeyArrowDown,
	"up":     searchbar.KeyArrowUp,
	"pgdown": searchbar.KeyPageDown,
	"pgup":   searchbar.KeyPageUp,
	"enter":  searchbar.KeyEnter,
}

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, modifierKey: modifierKey}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !kh.app.busy {
		kh.app.status = ""
	}
	kh.app.err = nil

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	return kh.app.view == ViewHome && kh.app.input.Focused()
}

// handleTextInputMode routes keys while the search input has focus.
// Navigation keys drive the dropdown; everything else edits the query.
func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	k := msg.String()

	switch {
	case k == "ctrl+c":
		return a, tea.Quit

	case key.Matches(msg, a.keys.Back):
		if a.sb.Open {
			a.dispatch(searchbar.Key{Code: searchbar.KeyEscape})
		} else {
			a.input.Blur()
		}
		return a, nil

	case key.Matches(msg, a.keys.Blur):
		kh.blurSearch()
		return a, nil

	case key.Matches(msg, a.keys.Open):
		if e, ok := a.sb.HighlightedEntry(); ok && a.sb.Visible() {
			a.setStatus(MsgOpening, StatusInfo)
			return a, a.openPath(e.Path)
		}
		return a, nil
	}

	if code, ok := navKeys[k]; ok {
		a.dispatch(searchbar.Key{Code: code})
		return a, nil
	}

	return kh.delegateToTextInput(msg)
}

// delegateToTextInput edits the query and reports changes to the search box.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	prev := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)

	if next := a.input.Value(); next != prev {
		a.dispatch(searchbar.Input{Query: sanitizeSearchInput(next)})
		return a, tea.Batch(cmd, a.startSpinner())
	}
	return a, cmd
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit, true
	case key.Matches(msg, a.keys.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil, true
	case key.Matches(msg, a.keys.Refresh):
		return a, kh.startRefresh(), true
	}

	switch a.view {
	case ViewHome:
		return kh.handleHomeCustomKeys(msg)
	case ViewDetail:
		return kh.handleDetailCustomKeys(msg)
	default:
		return a, nil, false
	}
}

func (kh *KeyHandler) handleHomeCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch {
	case key.Matches(msg, a.keys.Search):
		return a, kh.focusSearch(), true
	case key.Matches(msg, a.keys.Open):
		if i, ok := a.storeList.SelectedItem().(storeItem); ok {
			a.setStatus(MsgOpening, StatusInfo)
			return a, a.openPath(storePath(i)), true
		}
		return a, nil, true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleDetailCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	if key.Matches(msg, a.keys.Open) && a.detail != nil {
		a.setStatus(MsgOpening, StatusInfo)
		return a, a.openPath(a.detail.route.Path()), true
	}
	return a, nil, false
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd

	switch a.view {
	case ViewHome:
		if msg.String() == "enter" {
			if i, ok := a.storeList.SelectedItem().(storeItem); ok {
				_ = a.router.Navigate(storePath(i))
			}
			return a, nil
		}
		a.storeList, cmd = a.storeList.Update(msg)
		return a, cmd

	case ViewDetail:
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	default:
		return a, nil
	}
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewDetail:
		a.view = ViewHome
		a.detail = nil
		a.loadingDetail = false
		return a, nil
	default:
		return a, nil
	}
}

func (kh *KeyHandler) focusSearch() tea.Cmd {
	a := kh.app
	cmd := a.input.Focus()
	a.dispatch(searchbar.Focus{})
	return cmd
}

// blurSearch moves focus out of the search box, which closes the dropdown
// like a click elsewhere would.
func (kh *KeyHandler) blurSearch() {
	kh.app.input.Blur()
	kh.app.dispatch(searchbar.OutsideClick{})
}

func (kh *KeyHandler) startRefresh() tea.Cmd {
	a := kh.app
	if a.refresher == nil {
		a.setStatus(MsgNoFeeds, StatusWarn)
		return nil
	}
	if a.busy {
		return nil
	}
	a.setStatus(MsgRefreshing, StatusInfo)
	a.busy = true
	return tea.Batch(a.startSpinner(), a.refreshCatalog())
}

// handleMouse maps presses onto the search box: the input focuses it, a
// result row selects it, anything else counts as a click outside.
func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if a.view == ViewDetail {
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return cmd
	}

	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		if !a.sb.Visible() {
			var cmd tea.Cmd
			a.storeList, cmd = a.storeList.Update(msg)
			return cmd
		}
		return nil
	}

	switch {
	case msg.Y >= headerHeight && msg.Y < dropTop:
		return a.keyHandler.focusSearch()
	case a.sb.Visible() && msg.Y >= dropTop:
		if idx := a.drop.hit(a.sb, msg.Y-dropTop); idx >= 0 {
			a.dispatch(searchbar.Click{Index: idx})
			return nil
		}
		if msg.Y-dropTop < a.drop.rows(a.sb) {
			// group headers and notices belong to the listbox
			return nil
		}
	}
	a.keyHandler.blurSearch()
	return nil
}

func storePath(i storeItem) string {
	if i.store.Path != "" {
		return i.store.Path
	}
	return search.DefaultPath(search.KindStore, i.store.ID)
}

// sanitizeSearchInput flattens control whitespace and bounds the length.
// Leading and trailing spaces are kept; matching ignores them anyway.
func sanitizeSearchInput(input string) string {
	input = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(input)
	if r := []rune(input); len(r) > maxQueryLength {
		input = string(r[:maxQueryLength])
	}
	return input
}
