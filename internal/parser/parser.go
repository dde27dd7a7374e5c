// Package parser provides tree-sitter based parsing of C source files.
//
// The parser package wraps the tree-sitter library and its C grammar. It only
// produces syntax trees; resolving types and declarations on top of those trees
// is the job of the ast package.
package parser

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser wraps tree-sitter for C parsing.
// A Parser is not safe for concurrent use.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	// Tree is the complete tree-sitter parse tree.
	Tree *sitter.Tree
	// Root is the root node of the AST (a translation_unit).
	Root *sitter.Node
	// Source is the original source code that was parsed.
	Source []byte
	// FilePath is the path to the source file (empty for in-memory parsing).
	FilePath string
}

// NewParser creates a parser configured for C.
func NewParser() (*Parser, error) {
	p, err := newCParser()
	if err != nil {
		return nil, err
	}
	return &Parser{parser: p}, nil
}

// Parse parses source code and returns the AST.
func (p *Parser) Parse(source []byte) (*ParseResult, error) {
	return p.ParseCtx(context.Background(), source)
}

// ParseCtx parses source code, giving up when ctx is cancelled.
func (p *Parser) ParseCtx(ctx context.Context, source []byte) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{
			Message: err.Error(),
		}
	}

	return &ParseResult{
		Tree:   tree,
		Root:   tree.RootNode(),
		Source: source,
	}, nil
}

// ParseFile parses a file from disk.
func (p *Parser) ParseFile(ctx context.Context, path string) (*ParseResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}

	result, err := p.ParseCtx(ctx, source)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.File = path
		}
		return nil, err
	}

	result.FilePath = path
	return result, nil
}

// Close releases parser resources.
// After calling Close, the parser should not be used.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Close releases the parse tree resources.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
		r.Root = nil
	}
}

// HasErrors returns true if the parse tree contains syntax errors.
func (r *ParseResult) HasErrors() bool {
	if r.Root == nil {
		return false
	}
	return r.Root.HasError()
}

// FirstError returns a ParseError describing the first ERROR or MISSING
// node in the tree, or nil when the tree is clean.
func (r *ParseResult) FirstError() *ParseError {
	if !r.HasErrors() {
		return nil
	}

	var found *sitter.Node
	r.WalkNodes(func(node *sitter.Node) bool {
		if found != nil {
			return false
		}
		if node.IsMissing() || node.Type() == "ERROR" {
			found = node
			return false
		}
		return true
	})

	pe := &ParseError{Message: "syntax error", File: r.FilePath}
	if found != nil {
		pe.Line = found.StartPoint().Row + 1
		pe.Column = found.StartPoint().Column + 1
		pe.Excerpt = r.line(found.StartPoint().Row)
		if found.IsMissing() {
			pe.Message = "missing " + found.Type()
		}
	}
	return pe
}

// line returns source line row (0-based), trimmed and capped at 60 bytes.
func (r *ParseResult) line(row uint32) string {
	lines := bytes.Split(r.Source, []byte("\n"))
	if int(row) >= len(lines) {
		return ""
	}
	text := strings.TrimSpace(string(lines[row]))
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	return text
}

// WalkNodes traverses the AST depth-first, calling the visitor function
// for each node. If the visitor returns false, traversal stops.
func (r *ParseResult) WalkNodes(visitor func(*sitter.Node) bool) {
	if r.Root == nil {
		return
	}
	walkNode(r.Root, visitor)
}

// walkNode is a helper for depth-first AST traversal.
func walkNode(node *sitter.Node, visitor func(*sitter.Node) bool) bool {
	if !visitor(node) {
		return false
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		if !walkNode(node.Child(int(i)), visitor) {
			return false
		}
	}
	return true
}

// FindNodes returns all nodes matching the given predicate.
func (r *ParseResult) FindNodes(predicate func(*sitter.Node) bool) []*sitter.Node {
	var nodes []*sitter.Node
	r.WalkNodes(func(node *sitter.Node) bool {
		if predicate(node) {
			nodes = append(nodes, node)
		}
		return true
	})
	return nodes
}

// FindNodesByType returns all nodes of the specified type.
func (r *ParseResult) FindNodesByType(nodeType string) []*sitter.Node {
	return r.FindNodes(func(node *sitter.Node) bool {
		return node.Type() == nodeType
	})
}

// IsCSource reports whether path has a C source or header extension.
func IsCSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".h":
		return true
	default:
		return false
	}
}
