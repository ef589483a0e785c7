package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// extractImportStatement handles `import ... from "x"` and its type-only
// variants. Side-effect imports (`import "x"`) have no clause and no names.
func extractImportStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	source := node.ChildByFieldName("source")
	if source == nil {
		return true
	}

	imp := Import{
		Specifier: ctx.QuotedText(source),
		Kind:      KindImportDecl,
		Location:  ctx.Location(node),
	}

	clause := findChildKind(node, "import_clause")
	if hasTypeKeyword(ctx, node) {
		imp.TypeOnly = true
	}
	if clause != nil {
		names, allTypeOnly := collectClauseNames(ctx, clause)
		imp.Names = names
		if allTypeOnly {
			imp.TypeOnly = true
		}
	}

	ctx.File.Imports = append(ctx.File.Imports, imp)
	ctx.File.HasDeclarative = true
	return true
}

// extractExportStatement records `export ... from "x"` re-exports. Exports
// without a source clause introduce no dependency and are skipped.
func extractExportStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	source := node.ChildByFieldName("source")
	if source == nil {
		return false
	}

	ctx.File.Imports = append(ctx.File.Imports, Import{
		Specifier: ctx.QuotedText(source),
		Kind:      KindReexport,
		TypeOnly:  hasTypeKeyword(ctx, node),
		Location:  ctx.Location(node),
	})
	ctx.File.HasDeclarative = true
	return true
}

// extractCallExpression handles `require("x")` and dynamic `import("x")`
// call forms, then defers to the registration shape rules. A non-literal
// argument marks a dynamically constructed specifier, recorded with an
// empty specifier so callers treat the edge as unknown rather than missing.
func extractCallExpression(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return false
	}

	var kind ImportKind
	switch {
	case fn.Kind() == "import":
		kind = KindDynamicImport
	case fn.Kind() == "identifier" && ctx.Text(fn) == "require":
		kind = KindRequire
	default:
		matchCallShape(ctx, node, fn)
		return false
	}

	imp := Import{
		Kind:     kind,
		Location: ctx.Location(node),
	}
	if arg := firstCallArgument(node); arg != nil && arg.Kind() == "string" {
		imp.Specifier = ctx.QuotedText(arg)
	}

	ctx.File.Imports = append(ctx.File.Imports, imp)
	ctx.File.HasRuntimeCall = true
	return false
}

func firstCallArgument(call *sitter.Node) *sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		if arg := args.NamedChild(i); arg != nil && arg.Kind() != "comment" {
			return arg
		}
	}
	return nil
}

// hasTypeKeyword detects the declaration-level `type` keyword of
// `import type ... from` / `export type ... from`.
func hasTypeKeyword(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "type" && ctx.Text(child) == "type" {
			return true
		}
	}
	return false
}

func findChildKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// collectClauseNames gathers the local bindings of an import clause and
// reports whether every binding is specifier-level type-only
// (`import { type X, type Y } from "m"`).
func collectClauseNames(ctx *ExtractionContext, clause *sitter.Node) ([]string, bool) {
	var names []string
	total := 0
	typeOnly := 0

	for i := uint(0); i < clause.NamedChildCount(); i++ {
		child := clause.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			// Default import.
			total++
			names = append(names, ctx.Text(child))
		case "namespace_import":
			total++
			for j := uint(0); j < child.NamedChildCount(); j++ {
				if id := child.NamedChild(j); id != nil && id.Kind() == "identifier" {
					names = append(names, ctx.Text(id))
				}
			}
		case "named_imports":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				spec := child.NamedChild(j)
				if spec == nil || spec.Kind() != "import_specifier" {
					continue
				}
				total++
				if hasTypeKeyword(ctx, spec) {
					typeOnly++
					continue
				}
				bound := spec.ChildByFieldName("alias")
				if bound == nil {
					bound = spec.ChildByFieldName("name")
				}
				if bound != nil {
					names = append(names, ctx.Text(bound))
				}
			}
		}
	}

	return names, total > 0 && total == typeOnly
}
