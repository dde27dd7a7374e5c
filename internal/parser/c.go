package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// newCParser creates a tree-sitter parser configured for C.
func newCParser() (*sitter.Parser, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())
	return parser, nil
}

// CPreprocBlockTypes are conditional-compilation nodes whose children are
// themselves top-level items.
var CPreprocBlockTypes = map[string]bool{
	"preproc_if":      true,
	"preproc_ifdef":   true,
	"preproc_elif":    true,
	"preproc_elifdef": true,
	"preproc_else":    true,
}
