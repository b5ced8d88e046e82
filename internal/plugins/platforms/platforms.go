// Package platforms resolves shop pages of common e-commerce systems to
// their product feeds.
package platforms

import (
	"context"
	"net/url"
	"strings"

	"github.com/pders01/mrkt/internal/plugins"
)

// Default returns a registry with every built-in platform.
func Default() *plugins.Registry {
	return plugins.NewRegistry(NewShopify(), NewWooCommerce())
}

// Shopify serves an Atom feed per collection at /collections/{handle}.atom.
type Shopify struct{}

func NewShopify() *Shopify { return &Shopify{} }

func (*Shopify) Name() string  { return "shopify" }
func (*Shopify) Priority() int { return 50 }

func (*Shopify) Matches(u *url.URL) bool {
	if plugins.IsFeedPath(u.Path) {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), ".myshopify.com") ||
		strings.HasPrefix(u.Path, "/collections/")
}

func (*Shopify) Resolve(_ context.Context, u *url.URL) (*plugins.FeedInfo, error) {
	handle := "all"
	if rest, ok := strings.CutPrefix(u.Path, "/collections/"); ok {
		if h, _, _ := strings.Cut(rest, "/"); h != "" {
			handle = h
		}
	}
	feed := url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/collections/" + handle + ".atom"}
	return &plugins.FeedInfo{
		FeedURL:   feed.String(),
		StoreName: shopName(u.Hostname(), ".myshopify.com"),
	}, nil
}

// WooCommerce publishes products as a WordPress post type, so the standard
// RSS2 feed filtered to products lists the catalog.
type WooCommerce struct{}

func NewWooCommerce() *WooCommerce { return &WooCommerce{} }

func (*WooCommerce) Name() string  { return "woocommerce" }
func (*WooCommerce) Priority() int { return 40 }

func (*WooCommerce) Matches(u *url.URL) bool {
	if plugins.IsFeedPath(u.Path) || u.Query().Has("feed") {
		return false
	}
	return u.Path == "/shop" || strings.HasPrefix(u.Path, "/shop/") ||
		strings.HasPrefix(u.Path, "/product-category/")
}

func (*WooCommerce) Resolve(_ context.Context, u *url.URL) (*plugins.FeedInfo, error) {
	feed := url.URL{Scheme: u.Scheme, Host: u.Host}
	if rest, ok := strings.CutPrefix(u.Path, "/product-category/"); ok && strings.Trim(rest, "/") != "" {
		feed.Path = "/product-category/" + strings.Trim(rest, "/") + "/feed/"
	} else {
		feed.Path = "/"
		feed.RawQuery = url.Values{"post_type": {"product"}, "feed": {"rss2"}}.Encode()
	}
	return &plugins.FeedInfo{
		FeedURL:   feed.String(),
		StoreName: shopName(u.Hostname(), ""),
	}, nil
}

// shopName derives a display name from a host: "acme.myshopify.com" and
// "www.acme.com" both become "acme".
func shopName(host, suffix string) string {
	host = strings.ToLower(host)
	if suffix != "" {
		host = strings.TrimSuffix(host, suffix)
	}
	host = strings.TrimPrefix(host, "www.")
	if i := strings.Index(host, "."); i > 0 {
		host = host[:i]
	}
	return host
}
