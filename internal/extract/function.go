package extract

import (
	"path/filepath"
	"strings"

	"github.com/flightsw/fswparse/internal/ast"
	"github.com/flightsw/fswparse/internal/ctype"
)

// ExtractFunctions returns the functions declared directly in file whose name
// contains keyword (every function when keyword is empty), in declaration
// order. Functions from included headers are left out. Return and argument
// types are built and then expanded against table.
func (e *Extractor) ExtractFunctions(tu ast.TranslationUnit, file, keyword string, table ctype.Table) []ctype.Function {
	target := filepath.Clean(file)
	functions := []ctype.Function{}

	ast.Inspect(tu.Cursor(), func(c ast.Cursor) bool {
		if c.Kind() != ast.CursorFunctionDecl {
			return true
		}
		if keyword != "" && !strings.Contains(c.Spelling(), keyword) {
			return false
		}
		if filepath.Clean(c.File()) != target {
			return false
		}

		fn := ctype.Function{
			Name:       c.Spelling(),
			ReturnType: Expand(Build(c.ResultType()), table),
			Args:       []ctype.Arg{},
		}
		for _, arg := range c.Arguments() {
			fn.Args = append(fn.Args, ctype.Arg{Name: arg.Spelling(), Type: Expand(Build(arg.Type()), table)})
		}

		e.logger.Debug("extracted function", "name", fn.Name, "args", len(fn.Args), "line", c.Line())
		functions = append(functions, fn)
		return false
	})

	return functions
}
