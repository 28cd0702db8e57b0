package integration

import (
	"fmt"
	"net/url"
)

// Source is the addressing context of the page being evaluated. It is
// derived from the current location on every evaluation, so client-side
// navigation is always reflected.
type Source struct {
	// Protocol includes the separator, e.g. "https://"
	Protocol string

	// Host includes the port when one is present
	Host string

	// Path always starts with "/"
	Path string

	// Search is the query string including "?", or ""
	Search string

	// Hash is the fragment including "#", or ""
	Hash string
}

// ParseSource splits an absolute URL into a Source.
func ParseSource(rawURL string) (Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Source{}, fmt.Errorf("invalid page location %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Source{}, fmt.Errorf("page location %q is not an absolute URL", rawURL)
	}

	src := Source{
		Protocol: u.Scheme + "://",
		Host:     u.Host,
		Path:     u.EscapedPath(),
	}
	if src.Path == "" {
		src.Path = "/"
	}
	if u.RawQuery != "" || u.ForceQuery {
		src.Search = "?" + u.RawQuery
	}
	if u.Fragment != "" {
		src.Hash = "#" + u.EscapedFragment()
	}
	return src, nil
}

// Scheme returns the protocol without "://".
func (s Source) Scheme() string {
	if len(s.Protocol) > 3 && s.Protocol[len(s.Protocol)-3:] == "://" {
		return s.Protocol[:len(s.Protocol)-3]
	}
	return s.Protocol
}

// Origin returns protocol and host, e.g. "https://gitlab.example.com".
func (s Source) Origin() string {
	return s.Protocol + s.Host
}

// URL reassembles the full location.
func (s Source) URL() string {
	return s.Protocol + s.Host + s.Path + s.Search + s.Hash
}

func (s Source) String() string {
	return s.URL()
}
