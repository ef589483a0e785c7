package parser

import (
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"tangle/internal/errors"
	"tangle/internal/observability"
)

// Parser extracts the import structure of JavaScript and TypeScript
// sources. Extraction is purely syntactic; nothing is executed or
// type-checked.
type Parser struct {
	languages  map[string]*sitter.Language
	extensions map[string]string
}

func NewParser() *Parser {
	return &Parser{
		languages: map[string]*sitter.Language{
			"javascript": sitter.NewLanguage(tree_sitter_javascript.Language()),
			"typescript": sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			"tsx":        sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		},
		extensions: map[string]string{
			".js":  "javascript",
			".mjs": "javascript",
			".cjs": "javascript",
			".jsx": "javascript",
			".ts":  "typescript",
			".mts": "typescript",
			".cts": "typescript",
			".tsx": "tsx",
		},
	}
}

func (p *Parser) Language(path string) string {
	return p.extensions[strings.ToLower(filepath.Ext(path))]
}

func (p *Parser) IsSupportedPath(path string) bool {
	return p.Language(path) != ""
}

// IsTypedSource reports whether the file is authored in a typed dialect.
var typedExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".mts": true, ".cts": true,
}

func IsTypedSource(path string) bool {
	return typedExtensions[strings.ToLower(filepath.Ext(path))]
}

func (p *Parser) ParseFile(relPath string, content []byte) (*File, error) {
	lang := p.Language(relPath)
	if lang == "" {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported language"), errors.CtxPath, relPath)
	}

	started := time.Now()
	defer func() {
		observability.ParseDuration.WithLabelValues(lang).Observe(time.Since(started).Seconds())
	}()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.languages[lang])

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}
	defer tree.Close()

	file := &File{
		RelPath:  relPath,
		Language: lang,
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: content, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement": extractImportStatement,
		"export_statement": extractExportStatement,
		"call_expression":  extractCallExpression,
		"pair":             extractRegistrationPair,
	})
	engine.Walk(ctx, tree.RootNode())

	return file, nil
}
