package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/mrkt/internal/catalog"
	"github.com/pders01/mrkt/internal/search"
	"github.com/pders01/mrkt/internal/searchbar"
)

const refreshTimeout = 5 * time.Minute

func (a *App) loadStores() tea.Cmd {
	return func() tea.Msg {
		if a.catalog == nil {
			return storesLoadedMsg{}
		}
		stores, err := a.catalog.ListStores()
		if err != nil {
			return errorMsg{err: fmt.Errorf("loading stores: %w", err)}
		}
		return storesLoadedMsg{stores: stores}
	}
}

// waitForSearch blocks until the search controller reports a change.
func (a *App) waitForSearch() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.updates:
			return searchUpdatedMsg{}
		case <-a.done:
			return nil
		}
	}
}

func (a *App) renderDetail(d *detail) tea.Cmd {
	maxDesc := a.config.UI.Detail.MaxDescriptionLength
	return func() tea.Msg {
		r, err := a.getRenderer()
		if err != nil {
			return detailRenderedMsg{route: d.route, content: "Error initializing renderer: " + err.Error()}
		}
		rendered, err := r.Render(detailMarkdown(d, maxDesc))
		if err != nil {
			return detailRenderedMsg{route: d.route, content: fmt.Sprintf("Failed to render %s: %v\n\nPress Escape to go back.", d.route.Path(), err)}
		}
		return detailRenderedMsg{route: d.route, content: rendered}
	}
}

// detailMarkdown renders a store with its products, or a single product.
// maxDesc bounds product descriptions in the store's table.
func detailMarkdown(d *detail, maxDesc int) string {
	var b strings.Builder

	switch {
	case d.product != nil:
		p := d.product
		fmt.Fprintf(&b, "# %s\n\n", p.Name)
		if price := productPrice(*p); price != "" {
			fmt.Fprintf(&b, "**Price:** %s\n\n", price)
		}
		if d.store != nil {
			fmt.Fprintf(&b, "Sold by **%s** (`%s`)\n\n", d.store.Name, search.DefaultPath(search.KindStore, d.store.ID))
		}
		if p.URL != "" {
			fmt.Fprintf(&b, "[View in shop](%s)\n\n", p.URL)
		}
		b.WriteString("---\n\n")
		b.WriteString(orPlaceholder(p.Description))

	case d.store != nil:
		s := d.store
		fmt.Fprintf(&b, "# %s\n\n", s.Name)
		b.WriteString(orPlaceholder(s.Description))
		b.WriteString("\n\n")
		if s.FeedURL != "" {
			fmt.Fprintf(&b, "*Product feed: %s*\n\n", truncateMiddle(s.FeedURL, 80))
		}
		fmt.Fprintf(&b, "## Products & Services (%d)\n\n", len(d.products))
		if len(d.products) == 0 {
			b.WriteString("No products found\n")
			break
		}
		b.WriteString("| Product | Price | Description |\n|---|---|---|\n")
		for _, p := range d.products {
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				tableCell(p.Name), productPrice(p), tableCell(truncateEnd(p.Description, maxDesc)))
		}

	case d.entry != nil:
		e := d.entry
		fmt.Fprintf(&b, "# %s\n\n", e.Title)
		if price := searchbar.FormatPrice(*e); price != "" {
			fmt.Fprintf(&b, "**Price:** %s\n\n", price)
		}
		b.WriteString("---\n\n")
		b.WriteString(orPlaceholder(e.Description))
	}

	return b.String()
}

func productPrice(p catalog.Product) string {
	if p.Price == nil {
		return ""
	}
	return searchbar.FormatPrice(search.FlatEntry{
		Kind:     search.KindProduct,
		Price:    *p.Price,
		Currency: p.Currency,
		HasPrice: true,
	})
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "*No description.*"
	}
	return s
}

func tableCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// openPath opens path in the browser through the configured opener.
func (a *App) openPath(path string) tea.Cmd {
	if a.opener == nil || path == "" {
		return nil
	}
	opener := a.opener
	return func() tea.Msg {
		if err := opener.Navigate(path); err != nil {
			return errorMsg{err: fmt.Errorf("failed to open %s: %w", path, err)}
		}
		return openedMsg{url: path}
	}
}

func (a *App) refreshCatalog() tea.Cmd {
	refresher := a.refresher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		reports, err := refresher.RefreshAll(ctx)
		return refreshDoneMsg{reports: reports, err: err}
	}
}

// resyncSearch reloads a snapshot source in the background; the controller
// reports the new state through waitForSearch.
func (a *App) resyncSearch() tea.Cmd {
	ctrl := a.search
	timeout := a.config.Search.FetchTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := ctrl.Resync(ctx); err != nil {
			return errorMsg{err: fmt.Errorf("reloading search candidates: %w", err)}
		}
		return nil
	}
}

// afterRefresh drops cached search answers, asks the source again and
// summarizes the reports.
func (a *App) afterRefresh(msg refreshDoneMsg) {
	if inv, ok := a.source.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}
	a.dispatch(searchbar.Reload{})
	a.queue(a.startSpinner())
	a.queue(a.resyncSearch())

	if msg.err == nil && len(msg.reports) == 0 {
		a.setStatus(MsgNoFeeds, StatusWarn)
		return
	}

	docCount := -1
	if dc, ok := a.source.(search.DocCounter); ok {
		if n, err := dc.DocCount(); err == nil {
			docCount = n
		}
	}

	kind := StatusSuccess
	if msg.err != nil {
		kind = StatusWarn
	}
	a.setStatus(MsgRefreshSummary(msg.reports, countErrors(msg.err), docCount), kind)
}

// countErrors counts the errors joined into err.
func countErrors(err error) int {
	if err == nil {
		return 0
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return len(joined.Unwrap())
	}
	return 1
}
