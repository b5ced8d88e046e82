package validation

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// ErrInvalidURL wraps every rejection from EndpointValidator.
var ErrInvalidURL = errors.New("invalid url")

// EndpointValidator checks product feed and catalog API URLs before they are
// stored or fetched.
type EndpointValidator struct {
	AllowLocalhost  bool
	AllowPrivateIPs bool
	MaxLength       int
	// DefaultScheme is prepended to inputs without one.
	DefaultScheme string
}

// NewEndpointValidator blocks loopback and private networks.
func NewEndpointValidator() *EndpointValidator {
	return &EndpointValidator{MaxLength: 2048, DefaultScheme: "https"}
}

// NewLocalEndpointValidator accepts loopback and private networks, for
// self-hosted catalogs and tests.
func NewLocalEndpointValidator() *EndpointValidator {
	v := NewEndpointValidator()
	v.AllowLocalhost = true
	v.AllowPrivateIPs = true
	return v
}

func rejectURL(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidURL, fmt.Sprintf(format, args...))
}

// Normalize validates raw and returns its canonical form.
func (v *EndpointValidator) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return "", rejectURL("empty")
	case v.MaxLength > 0 && len(raw) > v.MaxLength:
		return "", rejectURL("longer than %d characters", v.MaxLength)
	case strings.ContainsAny(raw, "<>\"'` \t\r\n"):
		return "", rejectURL("contains forbidden characters")
	}

	if !strings.Contains(raw, "://") {
		scheme := v.DefaultScheme
		if scheme == "" {
			scheme = "https"
		}
		raw = scheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", rejectURL("%v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", rejectURL("scheme %q not allowed", u.Scheme)
	}
	if u.User != nil {
		return "", rejectURL("credentials in url")
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", rejectURL("missing host")
	}
	if err := v.checkHost(host); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", rejectURL("path traversal")
	}
	q := strings.ToLower(u.RawQuery)
	if strings.Contains(q, "<script") || strings.Contains(q, "javascript:") {
		return "", rejectURL("suspicious query")
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), nil
}

func (v *EndpointValidator) checkHost(host string) error {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		if !v.AllowLocalhost {
			return rejectURL("localhost not permitted")
		}
		return nil
	}

	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		// a name, not a literal address
		return nil
	}
	switch {
	case addr.IsUnspecified(), addr == netip.MustParseAddr("255.255.255.255"):
		return rejectURL("address %s not routable", addr)
	case addr.IsLoopback():
		if !v.AllowLocalhost {
			return rejectURL("localhost not permitted")
		}
	case addr.IsPrivate(), addr.IsLinkLocalUnicast():
		if !v.AllowPrivateIPs {
			return rejectURL("private address %s not permitted", addr)
		}
	}
	return nil
}
