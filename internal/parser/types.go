package parser

import "time"

type File struct {
	RelPath  string
	Language string
	Imports  []Import
	// DynamicNames are identifiers that appear inside registration call
	// shapes (event handlers, provider lists, registration properties).
	// They carry no graph edges; unused-import detectors consume them.
	DynamicNames []string
	// Style flags used for the once-per-file mixed-import diagnostic.
	HasDeclarative bool
	HasRuntimeCall bool
	ParsedAt       time.Time
}

type ImportKind int

const (
	// KindImportDecl is a declarative `import ... from "x"` statement.
	KindImportDecl ImportKind = iota
	// KindReexport is `export ... from "x"`.
	KindReexport
	// KindRequire is a `require("x")` call.
	KindRequire
	// KindDynamicImport is a runtime `import("x")` call.
	KindDynamicImport
)

func (k ImportKind) String() string {
	switch k {
	case KindImportDecl:
		return "import"
	case KindReexport:
		return "reexport"
	case KindRequire:
		return "require"
	case KindDynamicImport:
		return "dynamic_import"
	}
	return "unknown"
}

// Declarative reports whether the import is a static declaration form as
// opposed to a runtime call form.
func (k ImportKind) Declarative() bool {
	return k == KindImportDecl || k == KindReexport
}

type Import struct {
	// Specifier is the raw module specifier with quotes stripped. Empty
	// for dynamically constructed specifiers, which cannot be resolved.
	Specifier string
	Kind      ImportKind
	// TypeOnly marks declarations whose bindings are all type-level.
	// Type-only imports never become dependency-graph edges.
	TypeOnly bool
	// Names are the local bindings introduced by the import.
	Names    []string
	Location Location
}

type Location struct {
	RelPath string
	Line    int
	Column  int
}
