package integration

import (
	"net/url"
	"strings"
)

// RelativeURL expresses path relative to serviceURL: when the service is
// hosted under a sub-path ("https://host/gitlab"), that prefix is removed
// from path so the result can be joined back with ResolveURL.
func RelativeURL(serviceURL, path string) string {
	u, err := url.Parse(serviceURL)
	if err != nil {
		return path
	}
	prefix := strings.TrimRight(u.EscapedPath(), "/")
	if prefix != "" && (path == prefix || strings.HasPrefix(path, prefix+"/")) {
		path = strings.TrimPrefix(path, prefix)
	}
	if path == "" {
		return "/"
	}
	return path
}

// ResolveURL turns ref into an absolute URL. Absolute refs are returned as
// they are; anything else is taken relative to the service root, so
// "/open.htm?id=1" under "https://host/app" becomes
// "https://host/app/open.htm?id=1".
func ResolveURL(serviceURL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		if base, err := url.Parse(serviceURL); err == nil && base.Scheme != "" {
			return base.Scheme + ":" + ref
		}
		return ref
	}
	return strings.TrimRight(serviceURL, "/") + "/" + strings.TrimLeft(ref, "/")
}

// SearchParams parses "key=value" pairs from a query string or fragment.
// Fragments used as client-side routes ("#/task?id=1") are read from the
// last "?" onward. Only the first value of each key is kept; malformed
// pairs are skipped.
func SearchParams(s string) map[string]string {
	s = strings.TrimLeft(s, "#?")
	if i := strings.LastIndex(s, "?"); i >= 0 {
		s = s[i+1:]
	}

	params := make(map[string]string)
	values, _ := url.ParseQuery(s)
	for key, vals := range values {
		if len(vals) > 0 {
			params[key] = vals[0]
		}
	}
	return params
}
