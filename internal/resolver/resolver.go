package resolver

import (
	"path"
	"strings"

	"tangle/internal/scanner"
)

// Kind tags node identity once, at resolution time. Downstream consumers
// (cycle traversal in particular) prune by tag instead of re-deriving
// internal/external from the key string.
type Kind int

const (
	KindInternal Kind = iota
	KindExternal
)

func (k Kind) String() string {
	if k == KindExternal {
		return "external"
	}
	return "internal"
}

// NodeKey is the canonical graph identity for a module: a normalized
// repository-relative path for internal modules, or the raw specifier for
// external ones.
type NodeKey struct {
	Kind Kind
	Name string
}

func Internal(relPath string) NodeKey {
	return NodeKey{Kind: KindInternal, Name: normalize(relPath)}
}

func External(name string) NodeKey {
	return NodeKey{Kind: KindExternal, Name: name}
}

type Resolution struct {
	Key NodeKey
	// Exists reports whether the key names a known file. External keys are
	// always reported as existing; this subsystem does not verify external
	// modules. With no known-file set supplied, internal candidates are
	// reported optimistically as existing.
	Exists bool
	// Typed reports whether the winning candidate is a typed-dialect
	// source file.
	Typed bool
}

// Extension-swap candidate orders. Source authored in a typed dialect is
// conventionally imported under its runtime-facing extension, so a ".js"
// specifier prefers the ".ts" sibling.
var swapCandidates = map[string][]string{
	".js":  {".ts", ".tsx", ".js", ".jsx"},
	".mjs": {".ts", ".tsx", ".mts", ".mjs"},
	".cjs": {".ts", ".tsx", ".cts", ".cjs"},
	".jsx": {".tsx", ".ts", ".jsx"},
}

// bareCandidates is the priority order for extensionless specifiers; the
// same order applies to each candidate's "index.*" fallback.
var bareCandidates = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

var typedExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".mts": true, ".cts": true,
}

// IsRelative reports whether the specifier addresses the repository
// namespace ("./", "../", or "/") rather than an external module.
func IsRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") ||
		strings.HasPrefix(specifier, "../") ||
		strings.HasPrefix(specifier, "/") ||
		specifier == "." || specifier == ".."
}

// Resolve maps a raw specifier found in fromRelPath to a canonical node
// key. Known may be nil for a best-effort early pass; callers needing
// existence guarantees must supply it.
func Resolve(specifier, fromRelPath string, known scanner.FileMap) Resolution {
	if !IsRelative(specifier) {
		return Resolution{Key: External(specifier), Exists: true}
	}

	var candidate string
	if strings.HasPrefix(specifier, "/") {
		candidate = normalize(specifier)
	} else {
		candidate = normalize(path.Join(path.Dir(fromRelPath), specifier))
	}

	if known == nil {
		return Resolution{Key: NodeKey{Kind: KindInternal, Name: candidate}, Exists: true, Typed: typedExtensions[path.Ext(candidate)]}
	}

	if resolved, ok := tryCandidates(candidate, known); ok {
		return resolved
	}

	return Resolution{Key: NodeKey{Kind: KindInternal, Name: candidate}, Exists: false}
}

func tryCandidates(candidate string, known scanner.FileMap) (Resolution, bool) {
	found := func(rel string) (Resolution, bool) {
		return Resolution{
			Key:    NodeKey{Kind: KindInternal, Name: rel},
			Exists: true,
			Typed:  typedExtensions[path.Ext(rel)],
		}, true
	}

	if known.Has(candidate) {
		return found(candidate)
	}

	ext := strings.ToLower(path.Ext(candidate))
	if swaps, ok := swapCandidates[ext]; ok {
		base := strings.TrimSuffix(candidate, path.Ext(candidate))
		for _, swap := range swaps {
			if known.Has(base + swap) {
				return found(base + swap)
			}
		}
		return Resolution{}, false
	}
	// A specifier already written with a typed extension either matched
	// verbatim above or is missing; no swap applies.
	if typedExtensions[ext] {
		return Resolution{}, false
	}

	// No script extension: typed/untyped source extensions in priority order,
	// then index variants treating the candidate as a directory.
	for _, e := range bareCandidates {
		if known.Has(candidate + e) {
			return found(candidate + e)
		}
	}
	for _, e := range bareCandidates {
		if known.Has(candidate + "/index" + e) {
			return found(candidate + "/index" + e)
		}
	}

	return Resolution{}, false
}

// normalize cleans a candidate into forward-slash form without a leading
// "./" or "/". Specifiers escaping the scan root keep their "../" prefix;
// they can never match a known file.
func normalize(p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// RelativeDepth counts the leading "../" segments of a raw specifier.
func RelativeDepth(specifier string) int {
	depth := 0
	for _, seg := range strings.Split(specifier, "/") {
		if seg == ".." {
			depth++
		}
	}
	return depth
}
