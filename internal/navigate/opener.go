package navigate

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// BrowserOpener opens base_url + path with the platform's default opener.
type BrowserOpener struct {
	base   *url.URL
	opener string
	start  func(name string, args ...string) error
}

// DefaultOpener returns the platform command used to open URLs.
func DefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "start"
	default:
		return "xdg-open"
	}
}

// NewBrowserOpener validates baseURL. An empty opener selects DefaultOpener.
func NewBrowserOpener(baseURL, opener string) (*BrowserOpener, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: missing host", baseURL)
	}
	if opener == "" {
		opener = DefaultOpener()
	}
	return &BrowserOpener{base: u, opener: opener, start: startDetached}, nil
}

// URL resolves path against the base URL.
func (b *BrowserOpener) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := *b.base
	ref, err := url.Parse(path)
	if err != nil {
		u.Path = strings.TrimRight(u.Path, "/") + path
		return u.String()
	}
	u.Path = strings.TrimRight(u.Path, "/") + ref.Path
	u.RawQuery = ref.RawQuery
	u.Fragment = ref.Fragment
	return u.String()
}

// Navigate implements Navigator by launching the opener.
func (b *BrowserOpener) Navigate(path string) error {
	target := b.URL(path)
	if b.opener == "start" {
		// start is a cmd builtin; the empty argument is the window title
		return b.start("cmd", "/c", "start", "", target)
	}
	return b.start(b.opener, target)
}

func startDetached(name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("no application found to open URL: %w", err)
	}
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
