package pathspec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"tangle/internal/errors"
)

// Spec is a compound include/exclude rule set evaluated against
// forward-slash relative paths.
//
// Include groups use AND-within-group, OR-across-groups semantics; flat
// include patterns are OR-combined. Exclude patterns are an open-world
// fallback: they are consulted only when no include rule is active,
// because an active include list already defines the closed set.
type Spec struct {
	flat    []pattern
	groups  [][]pattern
	exclude []pattern
	guard   map[string]bool
}

type pattern struct {
	raw     string
	g       glob.Glob
	literal bool
}

func compile(raw string) (pattern, error) {
	raw = strings.TrimSpace(strings.Trim(raw, "/"))
	p := pattern{raw: raw, literal: !strings.ContainsAny(raw, "*?[]{}")}
	if !p.literal {
		g, err := glob.Compile(raw, '/')
		if err != nil {
			return pattern{}, errors.Wrap(err, errors.CodeValidation, fmt.Sprintf("invalid pattern %q", raw))
		}
		p.g = g
	}
	return p, nil
}

func compileAll(raws []string) ([]pattern, error) {
	out := make([]pattern, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		p, err := compile(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func New(include []string, groups [][]string, exclude []string, guardDirs []string) (*Spec, error) {
	s := &Spec{guard: make(map[string]bool, len(guardDirs))}

	var err error
	if s.flat, err = compileAll(include); err != nil {
		return nil, err
	}
	for _, group := range groups {
		compiled, err := compileAll(group)
		if err != nil {
			return nil, err
		}
		if len(compiled) > 0 {
			s.groups = append(s.groups, compiled)
		}
	}
	if s.exclude, err = compileAll(exclude); err != nil {
		return nil, err
	}
	for _, d := range guardDirs {
		d = strings.TrimSpace(strings.Trim(d, "/"))
		if d != "" {
			s.guard[d] = true
		}
	}
	return s, nil
}

// matches evaluates one pattern against a relative path. Glob patterns use
// glob semantics with '/' as separator. Literal patterns fall back to
// segment containment at any depth: exact equality, proper prefix,
// interior segment, or suffix segment.
func (p pattern) matches(rel string) bool {
	if p.literal {
		if rel == p.raw {
			return true
		}
		if strings.HasPrefix(rel, p.raw+"/") {
			return true
		}
		if strings.Contains(rel, "/"+p.raw+"/") {
			return true
		}
		return strings.HasSuffix(rel, "/"+p.raw)
	}
	return p.g.Match(rel)
}

func (s *Spec) IncludesActive() bool {
	return len(s.flat) > 0 || len(s.groups) > 0
}

// Matches reports whether rel passes the compound rule set. With includes
// active, rel must satisfy a flat pattern or every pattern of some group;
// excludes are not consulted. With includes inactive, rel passes unless an
// exclude pattern matches.
func (s *Spec) Matches(rel string) bool {
	rel = strings.Trim(rel, "/")

	if s.IncludesActive() {
		for _, p := range s.flat {
			if p.matches(rel) {
				return true
			}
		}
		for _, group := range s.groups {
			all := true
			for _, p := range group {
				if !p.matches(rel) {
					all = false
					break
				}
			}
			if all {
				return true
			}
		}
		return false
	}

	return !s.Excluded(rel)
}

// Excluded reports whether an exclude pattern matches rel or its base name.
func (s *Spec) Excluded(rel string) bool {
	rel = strings.Trim(rel, "/")
	base := rel
	if idx := strings.LastIndex(rel, "/"); idx >= 0 {
		base = rel[idx+1:]
	}
	for _, p := range s.exclude {
		if p.matches(rel) {
			return true
		}
		if !p.literal && p.g.Match(base) {
			return true
		}
	}
	return false
}

// GuardedDir reports whether a directory name is on the guard list and no
// include pattern explicitly names it. Guarded directories are skipped
// during traversal.
func (s *Spec) GuardedDir(name string) bool {
	if !s.guard[name] {
		return false
	}
	return !s.mentions(name)
}

func (s *Spec) mentions(name string) bool {
	check := func(p pattern) bool {
		for _, seg := range strings.Split(p.raw, "/") {
			if seg == name {
				return true
			}
		}
		return false
	}
	for _, p := range s.flat {
		if check(p) {
			return true
		}
	}
	for _, group := range s.groups {
		for _, p := range group {
			if check(p) {
				return true
			}
		}
	}
	return false
}

// ScanRoots derives minimal scan roots from the include patterns: the
// longest literal prefix before the first glob segment. Literal patterns
// and patterns requesting arbitrary-depth matches anchor at the repository
// root, represented by the empty string. No includes means the repository
// root alone.
func (s *Spec) ScanRoots() []string {
	if !s.IncludesActive() {
		return []string{""}
	}

	all := make([]pattern, 0, len(s.flat))
	all = append(all, s.flat...)
	for _, group := range s.groups {
		all = append(all, group...)
	}

	seen := make(map[string]bool)
	for _, p := range all {
		root := deriveRoot(p)
		if seen[root] {
			continue
		}
		seen[root] = true
	}
	if seen[""] {
		return []string{""}
	}

	roots := make([]string, 0, len(seen))
	for r := range seen {
		roots = append(roots, r)
	}
	sort.Strings(roots)
	return roots
}

func deriveRoot(p pattern) string {
	// Literal patterns match at any depth, so only the repository root is
	// a safe anchor.
	if p.literal {
		return ""
	}
	segs := strings.Split(p.raw, "/")
	prefix := make([]string, 0, len(segs))
	for _, seg := range segs {
		if strings.ContainsAny(seg, "*?[]{}") {
			break
		}
		prefix = append(prefix, seg)
	}
	// A pattern like "**/x" has no literal prefix and anchors at the root.
	return strings.Join(prefix, "/")
}
