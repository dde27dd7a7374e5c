package extract

import (
	"github.com/flightsw/fswparse/internal/ast"
	"github.com/flightsw/fswparse/internal/ctype"
)

// CollectTypes walks the whole unit in pre-order and records one entry per
// named struct, union or typedef declaration, including those in nested
// scopes. Entries are built descriptors, not expanded ones. When two
// declarations share a name the one visited last wins.
func (e *Extractor) CollectTypes(tu ast.TranslationUnit) ctype.Table {
	table := make(ctype.Table)

	ast.Inspect(tu.Cursor(), func(c ast.Cursor) bool {
		switch c.Kind() {
		case ast.CursorStructDecl, ast.CursorUnionDecl, ast.CursorTypedefDecl:
		default:
			return true
		}

		name := c.Spelling()
		if name == "" || c.Type() == nil {
			return true
		}
		desc := Build(c.Type())
		table[name] = desc
		e.logger.Debug("declaring type", "name", name, "kind", desc.Kind(), "file", c.File())
		return true
	})

	return table
}
