package tui

import (
	"github.com/pders01/mrkt/internal/catalog"
	"github.com/pders01/mrkt/internal/navigate"
	"github.com/pders01/mrkt/internal/search"
)

type View int

const (
	ViewHome View = iota
	ViewDetail
)

func (v View) String() string {
	switch v {
	case ViewHome:
		return "home"
	case ViewDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// detail is the record shown in ViewDetail.
type detail struct {
	route    navigate.Route
	store    *catalog.Store
	product  *catalog.Product
	products []catalog.Product
	// entry stands in for records the local catalog does not hold
	entry *search.FlatEntry
}

func (d *detail) title() string {
	switch {
	case d == nil:
		return ""
	case d.product != nil:
		return d.product.Name
	case d.store != nil:
		return d.store.Name
	case d.entry != nil:
		return d.entry.Title
	default:
		return d.route.Path()
	}
}
