package integration

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is a compiled URL match expression of the form scheme://host/path.
//
// The scheme is "*" (http or https) or a literal. Host and path are matched
// together against host+path+query+fragment: "*" matches any run of
// characters there, so "*://*/issues/*" accepts issue pages under any
// namespace prefix. Every other character, including "?", is literal.
type Pattern struct {
	expr     string
	scheme   string
	location glob.Glob
}

// CompilePattern parses and compiles a URL match expression.
func CompilePattern(expr string) (*Pattern, error) {
	scheme, rest, ok := strings.Cut(expr, "://")
	if !ok {
		return nil, fmt.Errorf("pattern %q: missing scheme separator \"://\"", expr)
	}
	if scheme == "" {
		return nil, fmt.Errorf("pattern %q: empty scheme", expr)
	}
	if scheme != "*" && strings.Contains(scheme, "*") {
		return nil, fmt.Errorf("pattern %q: scheme must be \"*\" or a literal", expr)
	}
	if rest == "" || strings.HasPrefix(rest, "/") {
		return nil, fmt.Errorf("pattern %q: empty host", expr)
	}
	if !strings.Contains(rest, "/") {
		return nil, fmt.Errorf("pattern %q: missing path", expr)
	}

	g, err := glob.Compile(quoteExceptStar(rest))
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", expr, err)
	}

	return &Pattern{
		expr:     expr,
		scheme:   strings.ToLower(scheme),
		location: g,
	}, nil
}

// MustCompilePattern is CompilePattern for patterns known at build time.
func MustCompilePattern(expr string) *Pattern {
	p, err := CompilePattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether src is addressed by the pattern.
func (p *Pattern) Match(src Source) bool {
	scheme := strings.ToLower(src.Scheme())
	switch p.scheme {
	case "*":
		if scheme != "http" && scheme != "https" {
			return false
		}
	default:
		if scheme != p.scheme {
			return false
		}
	}
	return p.location.Match(src.Host + src.Path + src.Search + src.Hash)
}

func (p *Pattern) String() string {
	return p.expr
}

// quoteExceptStar escapes glob syntax so that only "*" stays special.
func quoteExceptStar(s string) string {
	parts := strings.Split(s, "*")
	for i, part := range parts {
		parts[i] = glob.QuoteMeta(part)
	}
	return strings.Join(parts, "*")
}

// PatternSet is an ordered list of patterns OR'd together.
type PatternSet []*Pattern

// CompilePatterns compiles every expression, failing on the first invalid one.
func CompilePatterns(exprs []string) (PatternSet, error) {
	set := make(PatternSet, 0, len(exprs))
	for _, expr := range exprs {
		p, err := CompilePattern(expr)
		if err != nil {
			return nil, err
		}
		set = append(set, p)
	}
	return set, nil
}

// Match returns the first pattern addressing src.
func (ps PatternSet) Match(src Source) (*Pattern, bool) {
	for _, p := range ps {
		if p.Match(src) {
			return p, true
		}
	}
	return nil, false
}
