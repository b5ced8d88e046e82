package tui

import (
	"fmt"
	"strings"

	"github.com/pders01/mrkt/internal/importer"
)

// StatusKind is the severity of a status line message.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgRefreshing    = "Refreshing…"
	MsgLoading       = "Loading…"
	MsgSearching     = "Searching…"
	MsgOpening       = "Opening in browser…"
	MsgNoFeeds       = "No store has a product feed"
	MsgSearchOffline = "Search unavailable, showing previous results"
)

func MsgOpened(url string) string {
	return fmt.Sprintf("Opened %s", strings.TrimSpace(url))
}

func MsgStoresCount(n int) string {
	if n == 1 {
		return "1 store"
	}
	return fmt.Sprintf("%d stores", n)
}

// MsgRefreshSummary condenses import reports into one status line. docCount
// is omitted when negative.
func MsgRefreshSummary(reports []importer.Report, errors, docCount int) string {
	updated, products := 0, 0
	for _, r := range reports {
		if r.NotModified {
			continue
		}
		updated++
		products += r.Products
	}
	base := fmt.Sprintf("Refreshed: %d stores • %d products", updated, products)
	if errors > 0 {
		base += fmt.Sprintf(" • %d errors", errors)
	}
	if docCount >= 0 {
		base += fmt.Sprintf(" • idx: %d docs", docCount)
	}
	return base
}
