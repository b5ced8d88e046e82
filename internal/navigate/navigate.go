package navigate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRoute is returned for paths that do not address a store or product.
var ErrUnknownRoute = errors.New("unknown route")

// Navigator receives the path of a selected search result.
type Navigator interface {
	Navigate(path string) error
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(path string) error

func (f NavigatorFunc) Navigate(path string) error { return f(path) }

type RouteKind int

const (
	RouteStore RouteKind = iota + 1
	RouteProduct
)

func (k RouteKind) String() string {
	switch k {
	case RouteStore:
		return "store"
	case RouteProduct:
		return "product"
	default:
		return "unknown"
	}
}

// Route is a parsed navigation target.
type Route struct {
	Kind RouteKind
	ID   string
}

// Path renders the route back into its canonical path.
func (r Route) Path() string {
	switch r.Kind {
	case RouteStore:
		return "/stores/" + r.ID
	case RouteProduct:
		return "/products/" + r.ID
	default:
		return "/"
	}
}

// ParsePath understands /stores/{id} and /products/{id}. A trailing slash,
// query string or fragment is ignored.
func ParsePath(path string) (Route, error) {
	p := path
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.Trim(p, "/")
	parts := strings.Split(p, "/")
	if len(parts) != 2 || parts[1] == "" {
		return Route{}, fmt.Errorf("%w: %q", ErrUnknownRoute, path)
	}

	switch parts[0] {
	case "stores":
		return Route{Kind: RouteStore, ID: parts[1]}, nil
	case "products":
		return Route{Kind: RouteProduct, ID: parts[1]}, nil
	default:
		return Route{}, fmt.Errorf("%w: %q", ErrUnknownRoute, path)
	}
}

// Router resolves paths and hands the parsed route to a handler.
type Router struct {
	handle func(Route) error
}

func NewRouter(handle func(Route) error) *Router {
	return &Router{handle: handle}
}

func (r *Router) Navigate(path string) error {
	route, err := ParsePath(path)
	if err != nil {
		return err
	}
	return r.handle(route)
}

// History records every path it is asked to navigate to.
type History struct {
	Paths []string
}

func (h *History) Navigate(path string) error {
	h.Paths = append(h.Paths, path)
	return nil
}

// Last returns the most recent path or "" when nothing was visited.
func (h *History) Last() string {
	if len(h.Paths) == 0 {
		return ""
	}
	return h.Paths[len(h.Paths)-1]
}
