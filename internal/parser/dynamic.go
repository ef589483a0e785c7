package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Shape rules flag imported names that never appear as direct references
// but are passed into common dynamic-registration call shapes. Matched
// names land in File.DynamicNames so unused-import detectors can suppress
// false positives. The rules are a fixed table of named shape matchers
// rather than free-form string patterns, so the heuristic stays auditable.

type shapeKind int

const (
	// shapeCallIdentifierArg matches `callee(Name, ...)` where callee is a
	// known registration function.
	shapeCallIdentifierArg shapeKind = iota
	// shapeArrayIdentifiers matches `key: [Name, Name2]` list literals
	// under a known registration property.
	shapeArrayIdentifiers
	// shapePropertyIdentifier matches `key: Name` under a known
	// registration property.
	shapePropertyIdentifier
)

type shapeRule struct {
	name  string
	kind  shapeKind
	match map[string]bool
}

func newShapeRule(name string, kind shapeKind, words ...string) shapeRule {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return shapeRule{name: name, kind: kind, match: m}
}

var shapeRules = []shapeRule{
	newShapeRule("event-registration", shapeCallIdentifierArg,
		"addEventListener", "on", "once", "subscribe", "register", "use", "addListener"),
	newShapeRule("provider-list", shapeArrayIdentifiers,
		"providers", "plugins", "components", "declarations", "imports", "middlewares", "routes", "entryComponents"),
	newShapeRule("registration-property", shapePropertyIdentifier,
		"component", "handler", "loader", "provider", "resolve", "element"),
}

// matchCallShape evaluates the call-with-identifier-arg rules against a
// call expression whose callee was not require/import.
func matchCallShape(ctx *ExtractionContext, call, fn *sitter.Node) {
	callee := calleeBaseName(ctx, fn)
	if callee == "" {
		return
	}

	for _, rule := range shapeRules {
		if rule.kind != shapeCallIdentifierArg || !rule.match[callee] {
			continue
		}
		args := call.ChildByFieldName("arguments")
		if args == nil {
			continue
		}
		for i := uint(0); i < args.NamedChildCount(); i++ {
			arg := args.NamedChild(i)
			if arg != nil && arg.Kind() == "identifier" {
				ctx.addDynamicName(ctx.Text(arg))
			}
		}
	}
}

// extractRegistrationPair evaluates the array-literal and property-value
// rules against an object literal pair.
func extractRegistrationPair(ctx *ExtractionContext, node *sitter.Node) bool {
	key := node.ChildByFieldName("key")
	value := node.ChildByFieldName("value")
	if key == nil || value == nil {
		return false
	}
	keyName := strings.Trim(ctx.Text(key), "\"'`")

	for _, rule := range shapeRules {
		switch rule.kind {
		case shapeArrayIdentifiers:
			if !rule.match[keyName] || value.Kind() != "array" {
				continue
			}
			for i := uint(0); i < value.NamedChildCount(); i++ {
				el := value.NamedChild(i)
				if el != nil && el.Kind() == "identifier" {
					ctx.addDynamicName(ctx.Text(el))
				}
			}
		case shapePropertyIdentifier:
			if rule.match[keyName] && value.Kind() == "identifier" {
				ctx.addDynamicName(ctx.Text(value))
			}
		}
	}
	return false
}

// calleeBaseName returns the final segment of the callee: `emitter.on`
// yields "on", a bare `use` yields "use".
func calleeBaseName(ctx *ExtractionContext, fn *sitter.Node) string {
	switch fn.Kind() {
	case "identifier":
		return ctx.Text(fn)
	case "member_expression":
		if prop := fn.ChildByFieldName("property"); prop != nil {
			return ctx.Text(prop)
		}
	}
	return ""
}

func (c *ExtractionContext) addDynamicName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, existing := range c.File.DynamicNames {
		if existing == name {
			return
		}
	}
	c.File.DynamicNames = append(c.File.DynamicNames, name)
}
