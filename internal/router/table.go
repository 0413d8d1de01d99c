// Package router maps request paths to page descriptors.
package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/gbans-web/internal/guard"
	"github.com/hongminglow/gbans-web/internal/pages"
)

var ErrInvalidPattern = errors.New("invalid route pattern")

// Descriptor binds a path pattern to a page. A nil Requirement makes the
// route public.
type Descriptor struct {
	Name        string
	Path        string
	Requirement *guard.Requirement
	Page        pages.Page
}

// Match is the result of resolving a path.
type Match struct {
	Descriptor Descriptor
	Params     map[string]string
	Found      bool
}

type segment struct {
	literal  string
	param    string
	wildcard bool
}

type route struct {
	desc     Descriptor
	segments []segment
	shape    string
}

// Table resolves paths against descriptors in declaration order.
type Table struct {
	routes   []route
	notFound Descriptor
}

// NewTable compiles descriptors. notFound is returned for unmatched paths.
func NewTable(notFound Descriptor, descriptors ...Descriptor) (*Table, error) {
	t := &Table{notFound: notFound, routes: make([]route, 0, len(descriptors))}
	for _, d := range descriptors {
		segments, err := compile(d.Path)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", d.Name, err)
		}
		t.routes = append(t.routes, route{desc: d, segments: segments, shape: shape(segments)})
	}
	return t, nil
}

func compile(pattern string) ([]segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, pattern)
	}
	parts := split(pattern)
	segments := make([]segment, 0, len(parts))
	for n, part := range parts {
		switch {
		case strings.HasPrefix(part, ":"):
			if len(part) == 1 {
				return nil, fmt.Errorf("%w: %q has an unnamed parameter", ErrInvalidPattern, pattern)
			}
			segments = append(segments, segment{param: part[1:]})
		case strings.HasPrefix(part, "*"):
			if len(part) == 1 || n != len(parts)-1 {
				return nil, fmt.Errorf("%w: %q wildcard must be named and last", ErrInvalidPattern, pattern)
			}
			segments = append(segments, segment{param: part[1:], wildcard: true})
		case part == "":
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPattern, pattern)
		default:
			segments = append(segments, segment{literal: part})
		}
	}
	return segments, nil
}

// split breaks a path into segments. The root path has none and a trailing
// slash is ignored.
func split(path string) []string {
	path = strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// shape is the pattern with parameter names erased; equal shapes match
// the same paths.
func shape(segments []segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		switch {
		case s.wildcard:
			b.WriteByte('*')
		case s.param != "":
			b.WriteByte(':')
		default:
			b.WriteString(s.literal)
		}
	}
	return b.String()
}

// Resolve returns the first descriptor whose pattern matches path.
func (t *Table) Resolve(path string) Match {
	if path == "" {
		path = "/"
	}
	parts := split(path)
	for _, r := range t.routes {
		if params, ok := match(r.segments, parts); ok {
			return Match{Descriptor: r.desc, Params: params, Found: true}
		}
	}
	return Match{Descriptor: t.notFound, Params: map[string]string{}}
}

func match(segments []segment, parts []string) (map[string]string, bool) {
	params := map[string]string{}
	for n, s := range segments {
		if s.wildcard {
			rest := parts[min(n, len(parts)):]
			if len(rest) == 0 {
				return nil, false
			}
			params[s.param] = strings.Join(rest, "/")
			return params, true
		}
		if n >= len(parts) {
			return nil, false
		}
		switch {
		case s.param != "":
			if parts[n] == "" {
				return nil, false
			}
			params[s.param] = parts[n]
		case s.literal != parts[n]:
			return nil, false
		}
	}
	if len(segments) != len(parts) {
		return nil, false
	}
	return params, true
}

// Duplicates lists patterns shadowed by an earlier route with the same shape.
func (t *Table) Duplicates() []string {
	seen := make(map[string]string, len(t.routes))
	var dups []string
	for _, r := range t.routes {
		if first, ok := seen[r.shape]; ok {
			dups = append(dups, fmt.Sprintf("%s (shadowed by %s)", r.desc.Path, first))
			continue
		}
		seen[r.shape] = r.desc.Path
	}
	return dups
}

// Descriptors returns the routes in declaration order.
func (t *Table) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r.desc)
	}
	return out
}
