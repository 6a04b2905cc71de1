package router

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Params carries the captures of one successful match. Named holds ":name"
// segment captures that were actually present in the path; Positional holds
// wildcard and raw-regex captures in capture order.
type Params struct {
	Named      map[string]string
	Positional []string
}

// At returns the i-th positional capture, "" when out of range.
func (p Params) At(i int) string {
	if i < 0 || i >= len(p.Positional) {
		return ""
	}
	return p.Positional[i]
}

// Get returns a named capture, "" when absent.
func (p Params) Get(name string) string {
	return p.Named[name]
}

// Pattern is one compiled route matcher. Patterns are immutable after
// compilation and safe for concurrent Match calls.
type Pattern struct {
	method   string
	re       *regexp.Regexp
	source   string
	names    []string // per capture group; "" marks a positional capture
	wildcard bool
}

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// paramToken matches one ":name" segment together with its preceding
// separator, an optional custom capture and the optional marker,
// e.g. "/:id", ".:format?", "/:id(\d+)".
var paramToken = regexp.MustCompile(`([/.])?:(\w+)(\(([^)]*)\))?(\?)?`)

// Compile turns a "<METHOD> /path-template" string into a Pattern. ":name"
// captures one segment, ":name?" makes the segment and its separator
// optional, ":name(expr)" substitutes a custom capture expression, and "*"
// captures greedily across segments.
func Compile(pattern string) (*Pattern, error) {
	method, tmpl, ok := strings.Cut(pattern, " ")
	if !ok {
		return nil, fmt.Errorf("%w: %q is not \"<METHOD> /template\"", ErrPatternCompile, pattern)
	}
	if !allowedMethods[method] {
		return nil, fmt.Errorf("%w: unsupported method %q", ErrPatternCompile, method)
	}
	if !strings.HasPrefix(tmpl, "/") {
		return nil, fmt.Errorf("%w: template %q must start with /", ErrPatternCompile, tmpl)
	}

	var (
		src   strings.Builder
		names []string
		seen  = make(map[string]bool)
	)
	src.WriteString("(?i)^")

	last := 0
	for _, m := range paramToken.FindAllStringSubmatchIndex(tmpl, -1) {
		writeLiteral(&src, tmpl[last:m[0]], &names)
		last = m[1]

		sep := submatch(tmpl, m, 1)
		name := submatch(tmpl, m, 2)
		capture := submatch(tmpl, m, 4)
		optional := m[10] >= 0

		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrPatternCompile, name)
		}
		seen[name] = true
		names = append(names, name)

		if capture == "" {
			capture = "[^/]+?"
		}
		if optional {
			src.WriteString("(?:" + regexp.QuoteMeta(sep) + "(" + capture + "))?")
		} else {
			src.WriteString(regexp.QuoteMeta(sep) + "(" + capture + ")")
		}
	}
	writeLiteral(&src, tmpl[last:], &names)

	if strings.HasSuffix(tmpl, "*") {
		src.WriteString("$")
	} else {
		src.WriteString("/?$")
	}

	re, err := regexp.Compile(src.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPatternCompile, err)
	}
	return &Pattern{
		method:   method,
		re:       re,
		source:   pattern,
		names:    names,
		wildcard: tmpl == "/*",
	}, nil
}

// MustCompile is Compile for package-level route tables; it panics on a
// malformed pattern.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// FromRegex wraps a raw expression as a GET-only pattern. All of its capture
// groups surface as positional parameters.
func FromRegex(re *regexp.Regexp) *Pattern {
	return &Pattern{
		method: http.MethodGet,
		re:     re,
		source: re.String(),
		// A raw expression that even matches an impossible path matches
		// everything, which makes it a universal wildcard for 404 purposes.
		wildcard: re.MatchString("/\x00"),
	}
}

// String returns the source the pattern was compiled from.
func (p *Pattern) String() string { return p.source }

// Method returns the HTTP method the pattern is registered for.
func (p *Pattern) Method() string { return p.method }

// Wildcard reports whether the pattern matches every path. Universal
// wildcards never mark a request as route-matched.
func (p *Pattern) Wildcard() bool { return p.wildcard }

// Match tests the method and path against the pattern. HEAD requests match
// GET registrations. Omitted optional segments produce no named capture.
func (p *Pattern) Match(method, path string) (Params, bool) {
	if method != p.method && !(method == http.MethodHead && p.method == http.MethodGet) {
		return Params{}, false
	}
	sub := p.re.FindStringSubmatch(path)
	if sub == nil {
		return Params{}, false
	}

	var params Params
	for i, val := range sub[1:] {
		var name string
		if i < len(p.names) {
			name = p.names[i]
		}
		if name == "" {
			params.Positional = append(params.Positional, val)
			continue
		}
		if val == "" {
			continue
		}
		if params.Named == nil {
			params.Named = make(map[string]string)
		}
		params.Named[name] = val
	}
	return params, true
}

// writeLiteral appends a quoted literal template chunk, translating each "*"
// into a greedy positional capture.
func writeLiteral(b *strings.Builder, lit string, names *[]string) {
	for {
		i := strings.IndexByte(lit, '*')
		if i < 0 {
			b.WriteString(regexp.QuoteMeta(lit))
			return
		}
		b.WriteString(regexp.QuoteMeta(lit[:i]))
		b.WriteString("(.*)")
		*names = append(*names, "")
		lit = lit[i+1:]
	}
}

func submatch(s string, m []int, group int) string {
	if m[2*group] < 0 {
		return ""
	}
	return s[m[2*group]:m[2*group+1]]
}
