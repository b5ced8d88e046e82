package plugins

import (
	"context"
	"net/url"
	"strings"
)

// FeedInfo is what a resolver learned about a store URL.
type FeedInfo struct {
	// OriginalURL is the URL the user gave
	OriginalURL string
	// FeedURL is the product feed to import
	FeedURL string
	// StoreName names the store when the feed itself has no title
	StoreName string
	// Platform is the shop system that was recognized, "" when none
	Platform string
}

// Resolver turns the address of a shop on a known platform into the address
// of its product feed.
type Resolver interface {
	Name() string

	// Matches reports whether u is a shop page this resolver understands.
	Matches(u *url.URL) bool

	Resolve(ctx context.Context, u *url.URL) (*FeedInfo, error)

	// Priority orders resolvers that match the same URL, higher first.
	Priority() int
}

// Registry picks the resolver for a URL.
type Registry struct {
	resolvers []Resolver
}

func NewRegistry(resolvers ...Resolver) *Registry {
	r := &Registry{}
	for _, res := range resolvers {
		r.Register(res)
	}
	return r
}

func (r *Registry) Register(res Resolver) {
	r.resolvers = append(r.resolvers, res)
}

// Find returns the highest priority resolver matching u, or nil.
func (r *Registry) Find(u *url.URL) Resolver {
	var best Resolver
	highest := -1
	for _, res := range r.resolvers {
		if res.Matches(u) && res.Priority() > highest {
			best = res
			highest = res.Priority()
		}
	}
	return best
}

// Resolve maps rawURL to a feed URL. URLs no resolver claims, including
// ones that do not parse, come back unchanged.
func (r *Registry) Resolve(ctx context.Context, rawURL string) (*FeedInfo, error) {
	passthrough := &FeedInfo{OriginalURL: rawURL, FeedURL: rawURL}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return passthrough, nil
	}
	res := r.Find(u)
	if res == nil {
		return passthrough, nil
	}
	info, err := res.Resolve(ctx, u)
	if err != nil {
		return nil, err
	}
	info.OriginalURL = rawURL
	if info.Platform == "" {
		info.Platform = res.Name()
	}
	return info, nil
}

// Resolvers returns a copy of the registered resolvers.
func (r *Registry) Resolvers() []Resolver {
	return append([]Resolver(nil), r.resolvers...)
}

// IsFeedPath reports whether p already names a feed document.
func IsFeedPath(p string) bool {
	p = strings.ToLower(strings.TrimRight(p, "/"))
	for _, suffix := range []string{".xml", ".rss", ".atom", "/feed", "/rss"} {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}
