package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/mrkt/internal/catalog"
	"github.com/pders01/mrkt/internal/config"
)

func TestSanitizeSearchInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "laptop", "laptop"},
		{"control whitespace", "lap\ntop\r\tbag", "lap top  bag"},
		{"keeps outer spaces", "  lap ", "  lap "},
		{"unicode", "Bücher", "Bücher"},
		{"bounded", strings.Repeat("ü", maxQueryLength+10), strings.Repeat("ü", maxQueryLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeSearchInput(tt.in))
		})
	}
}

func TestStorePath(t *testing.T) {
	assert.Equal(t, "/stores/4", storePath(storeItem{store: catalog.Store{ID: "4"}}))
	assert.Equal(t, "/shops/books", storePath(storeItem{store: catalog.Store{ID: "4", Path: "/shops/books"}}))
}

func TestKeyMapFollowsConfig(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Keys.Modifier = "alt"
	cfg.Keys.Bindings.Search = "s"
	cfg.Keys.Bindings.Open = "b"

	km := newKeyMap(cfg.Keys)

	tests := []struct {
		name    string
		binding key.Binding
		msg     tea.KeyMsg
		want    bool
	}{
		{"custom search", km.Search, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")}, true},
		{"old search", km.Search, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")}, false},
		{"alt open", km.Open, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b"), Alt: true}, true},
		{"ctrl+c always quits", km.Quit, tea.KeyMsg{Type: tea.KeyCtrlC}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, key.Matches(tt.msg, tt.binding))
		})
	}
}

func TestHelpKeysByContext(t *testing.T) {
	app := newTestApp(t, Options{})

	assert.IsType(t, keyMap{}, app.helpKeys())

	press(app, runes("/"))
	assert.IsType(t, searchHelp{}, app.helpKeys())

	typeQuery(app, "lap")
	press(app, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewDetail, app.view)
	assert.IsType(t, detailHelp{}, app.helpKeys())
}

func TestHelpToggle(t *testing.T) {
	app := newTestApp(t, Options{})

	press(app, runes("?"))
	assert.True(t, app.help.ShowAll)

	press(app, runes("?"))
	assert.False(t, app.help.ShowAll)
}

func TestQueryCharactersAreNotShortcuts(t *testing.T) {
	app := newTestApp(t, Options{})
	press(app, runes("/"))

	typeQuery(app, "q?/")

	assert.Equal(t, "q?/", app.input.Value())
	assert.Equal(t, "q?/", app.sb.Query)
	assert.False(t, app.help.ShowAll)
	assert.Equal(t, ViewHome, app.view)
}

func TestQuitKeys(t *testing.T) {
	tests := []struct {
		name  string
		focus bool
		msg   tea.KeyMsg
	}{
		{"q on home", false, runes("q")},
		{"ctrl+c on home", false, tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"ctrl+c while typing", true, tea.KeyMsg{Type: tea.KeyCtrlC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, Options{})
			if tt.focus {
				press(app, runes("/"))
			}

			cmd := press(app, tt.msg)

			assert.True(t, quits(cmd))
		})
	}
}

// quits reports whether cmd, possibly batched, produces tea.QuitMsg.
func quits(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	switch msg := cmd().(type) {
	case tea.QuitMsg:
		return true
	case tea.BatchMsg:
		for _, c := range msg {
			if quits(c) {
				return true
			}
		}
	}
	return false
}
