package ast

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/flightsw/fswparse/internal/parser"
)

const maxIncludeDepth = 64

// translationUnit is the concrete TranslationUnit.
type translationUnit struct {
	path string
	root *cursor
}

func (u *translationUnit) Path() string   { return u.path }
func (u *translationUnit) Cursor() Cursor { return u.root }

// tagTable binds struct, union and enum tags to their declarations. Elaborated
// types resolve through it lazily, so a reference written before the
// definition still finds the definition.
type tagTable map[tagKey]*cursor

func (t tagTable) resolveTag(key tagKey) *cursor { return t[key] }

// declare binds c to its tag. Forward declarations never replace an existing
// binding, and block-scope definitions only fill a gap.
func (t tagTable) declare(c *cursor, local bool) {
	key := tagKey{kind: c.kind, name: c.spelling}
	cur, ok := t[key]
	switch {
	case !ok:
		t[key] = c
	case !c.defined:
	case !local || !cur.defined:
		t[key] = c
	}
}

// unitBuilder turns the syntax trees of a file and its includes into one
// cursor tree. Items are processed in source order so that typedef names and
// macros resolve to what was declared before their use.
type unitBuilder struct {
	ctx    context.Context
	index  *SitterIndex
	log    *slog.Logger
	parser *parser.Parser

	root *cursor

	macros     map[string]string
	funcMacros map[string]bool
	enumConsts map[string]int64
	typedefs   map[string]*cursor
	tags       tagTable

	included map[string]bool
	depth    int
}

func newUnitBuilder(ctx context.Context, index *SitterIndex, p *parser.Parser, path string) *unitBuilder {
	b := &unitBuilder{
		ctx:        ctx,
		index:      index,
		log:        index.logger,
		parser:     p,
		root:       &cursor{kind: CursorTranslationUnit, spelling: path, file: path},
		macros:     make(map[string]string, len(index.defines)),
		funcMacros: make(map[string]bool),
		enumConsts: make(map[string]int64),
		typedefs:   make(map[string]*cursor),
		tags:       make(tagTable),
		included:   make(map[string]bool),
	}
	for name, value := range index.defines {
		b.macros[name] = value
	}
	return b
}

// processFile parses one file and splices its declarations into the unit.
// Syntax errors fail the main file unless tolerated; in included files they
// are only logged.
func (b *unitBuilder) processFile(path string, main bool) error {
	key := includeKey(path)
	if b.included[key] {
		return nil
	}
	b.included[key] = true

	res, err := b.parser.ParseFile(b.ctx, path)
	if err != nil {
		return err
	}
	defer res.Close()

	if pe := res.FirstError(); pe != nil {
		if main && !b.index.tolerateErrors {
			return pe
		}
		b.log.Warn("syntax errors in source, continuing with recovered tree",
			"file", path, "line", pe.Line, "column", pe.Column, "error", pe.Message)
	}

	b.depth++
	defer func() { b.depth-- }()

	b.walkItems(namedChildren(res.Root), res.Source, path, func(n *sitter.Node) {
		b.topLevel(n, res.Source, path)
	})
	return nil
}

func includeKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// walkItems runs fn over nodes in order, applying preprocessor directives as
// they are met and descending only into the taken branch of conditionals.
func (b *unitBuilder) walkItems(nodes []*sitter.Node, src []byte, file string, fn func(*sitter.Node)) {
	for _, n := range nodes {
		if b.ctx.Err() != nil {
			return
		}
		switch t := n.Type(); {
		case parser.CPreprocBlockTypes[t]:
			b.walkItems(b.branch(n, src), src, file, fn)
		case t == "preproc_def":
			b.define(n, src)
		case t == "preproc_function_def":
			if name := n.ChildByFieldName("name"); name != nil {
				b.funcMacros[name.Content(src)] = true
			}
		case t == "preproc_call":
			b.directive(n, src)
		case t == "preproc_include":
			b.include(n, src, file)
		case t == "comment":
		default:
			fn(n)
		}
	}
}

func (b *unitBuilder) topLevel(n *sitter.Node, src []byte, file string) {
	switch n.Type() {
	case "declaration", "type_definition":
		b.declaration(n, src, file, b.root, false)
	case "function_definition":
		b.functionDefinition(n, src, file, b.root)
	case "struct_specifier", "union_specifier", "enum_specifier":
		// a definition with no declarator is a bare specifier, not a declaration
		b.specifier(n, nil, src, file, b.root, false, true)
	case "linkage_specification":
		if body := n.ChildByFieldName("body"); body != nil {
			b.walkItems(namedChildren(body), src, file, func(c *sitter.Node) {
				b.topLevel(c, src, file)
			})
		}
	}
}

// branch returns the items of the taken branch of a conditional block.
func (b *unitBuilder) branch(n *sitter.Node, src []byte) []*sitter.Node {
	var taken bool
	switch n.Type() {
	case "preproc_else":
		taken = true
	case "preproc_if", "preproc_elif":
		v, _ := b.evaluator(src, true, 0).eval(n.ChildByFieldName("condition"))
		taken = v != 0
	case "preproc_ifdef", "preproc_elifdef":
		if name := n.ChildByFieldName("name"); name != nil {
			taken = b.isDefined(name.Content(src))
		}
		if n.ChildCount() > 0 && strings.HasSuffix(n.Child(0).Type(), "ndef") {
			taken = !taken
		}
	}

	if !taken {
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			return b.branch(alt, src)
		}
		return nil
	}

	var body []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() {
			continue
		}
		switch n.FieldNameForChild(i) {
		case "condition", "name", "alternative":
			continue
		}
		body = append(body, c)
	}
	return body
}

func (b *unitBuilder) define(n *sitter.Node, src []byte) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	value := ""
	if v := n.ChildByFieldName("value"); v != nil {
		value = strings.TrimSpace(strings.ReplaceAll(v.Content(src), "\\\n", " "))
	}
	b.macros[name.Content(src)] = value
}

func (b *unitBuilder) directive(n *sitter.Node, src []byte) {
	d := n.ChildByFieldName("directive")
	if d == nil || strings.TrimSpace(d.Content(src)) != "#undef" {
		return
	}
	if arg := n.ChildByFieldName("argument"); arg != nil {
		name := strings.TrimSpace(arg.Content(src))
		delete(b.macros, name)
		delete(b.funcMacros, name)
	}
}

func (b *unitBuilder) isDefined(name string) bool {
	_, ok := b.macros[name]
	return ok || b.funcMacros[name]
}

// include resolves an #include and processes the header in place. Quoted
// names are searched next to the including file and then in the include
// directories; angle-bracket names only in the include directories, and only
// when system headers are enabled.
func (b *unitBuilder) include(n *sitter.Node, src []byte, from string) {
	pathNode := n.ChildByFieldName("path")
	if pathNode == nil {
		return
	}

	var name string
	var candidates []string
	switch pathNode.Type() {
	case "string_literal":
		name = strings.Trim(pathNode.Content(src), `"`)
		candidates = append(candidates, filepath.Join(filepath.Dir(from), name))
	case "system_lib_string":
		name = strings.Trim(pathNode.Content(src), "<>")
		if !b.index.systemIncludes {
			b.log.Debug("skipping system include", "file", from, "include", name)
			return
		}
	default:
		return
	}
	for _, dir := range b.index.includeDirs {
		candidates = append(candidates, filepath.Join(dir, name))
	}

	if b.depth >= maxIncludeDepth {
		b.log.Warn("include depth exceeded", "file", from, "include", name)
		return
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if err := b.processFile(candidate, false); err != nil {
			b.log.Warn("failed to process include", "file", from, "include", name, "error", err)
		}
		return
	}
	b.log.Warn("include not found", "file", from, "include", name)
}

// macroValue evaluates an object-like macro body as a constant expression.
func (b *unitBuilder) macroValue(name string, depth int, pp bool) (int64, bool) {
	if depth > maxMacroDepth {
		return 0, false
	}
	body, ok := b.macros[name]
	if !ok || body == "" {
		return 0, false
	}

	expr := []byte("enum { fswparse_macro = (" + body + ") };")
	res, err := b.parser.ParseCtx(b.ctx, expr)
	if err != nil {
		return 0, false
	}
	defer res.Close()

	enumerators := res.FindNodesByType("enumerator")
	if len(enumerators) == 0 {
		return 0, false
	}
	return b.evaluator(expr, pp, depth).eval(enumerators[0].ChildByFieldName("value"))
}

func (b *unitBuilder) evaluator(src []byte, pp bool, depth int) *evaluator {
	return &evaluator{
		src:   src,
		pp:    pp,
		depth: depth,
		lookup: func(name string, depth int) (int64, bool) {
			if !pp {
				if v, ok := b.enumConsts[name]; ok {
					return v, true
				}
			}
			return b.macroValue(name, depth, pp)
		},
		defined: b.isDefined,
	}
}

func (b *unitBuilder) constant(n *sitter.Node, src []byte) (int64, bool) {
	return b.evaluator(src, false, 0).eval(n)
}

// declaration handles declarations and typedefs at file or block scope.
func (b *unitBuilder) declaration(n *sitter.Node, src []byte, file string, owner *cursor, local bool) {
	declarators := fieldChildren(n, "declarator")
	base := b.specifier(n.ChildByFieldName("type"), qualifiers(n, src), src, file, owner, local, len(declarators) == 0)

	if n.Type() == "type_definition" {
		for _, d := range declarators {
			name, t := b.declarator(base, d, src, file)
			if name == "" {
				continue
			}
			c := &cursor{kind: CursorTypedefDecl, spelling: name, file: file, line: line(d), underlying: t}
			c.typ = &typ{kind: TypeTypedef, spelling: name, decl: c}
			owner.addChild(c)
			if !local || b.typedefs[name] == nil {
				b.typedefs[name] = c
			}
		}
		return
	}

	for _, d := range declarators {
		name, t := b.declarator(base, d, src, file)
		if name == "" {
			continue
		}
		owner.addChild(valueDecl(name, t, file, line(d)))
	}
}

func (b *unitBuilder) functionDefinition(n *sitter.Node, src []byte, file string, owner *cursor) {
	d := n.ChildByFieldName("declarator")
	if d == nil {
		return
	}
	base := b.specifier(n.ChildByFieldName("type"), qualifiers(n, src), src, file, owner, false, false)
	name, t := b.declarator(base, d, src, file)
	if name == "" {
		return
	}
	fn := valueDecl(name, t, file, line(d))
	owner.addChild(fn)

	if body := n.ChildByFieldName("body"); body != nil {
		b.block(body, src, file, fn)
	}
}

// block collects declarations made inside a function body.
func (b *unitBuilder) block(n *sitter.Node, src []byte, file string, fn *cursor) {
	b.walkItems(namedChildren(n), src, file, func(c *sitter.Node) {
		switch c.Type() {
		case "declaration", "type_definition":
			b.declaration(c, src, file, fn, true)
		case "struct_specifier", "union_specifier", "enum_specifier":
			// only a statement of its own is a definition; nested in an
			// expression it is a type name
			if n.Type() == "compound_statement" {
				b.specifier(c, nil, src, file, fn, true, true)
			}
		case "function_definition":
		default:
			b.block(c, src, file, fn)
		}
	})
}

func valueDecl(name string, t *typ, file string, ln int) *cursor {
	if !isFunction(t) {
		return &cursor{kind: CursorVarDecl, spelling: name, typ: t, file: file, line: ln}
	}
	c := &cursor{kind: CursorFunctionDecl, spelling: name, typ: t, file: file, line: ln}
	c.children = append(c.children, functionOf(t).params...)
	return c
}

// functionOf follows typedefs down to a function type without computing
// canonical forms, which must wait until every tag is known.
func functionOf(t *typ) *typ {
	for t != nil && t.kind == TypeTypedef {
		if t.decl == nil {
			return nil
		}
		t = t.decl.underlying
	}
	if t == nil || (t.kind != TypeFunctionProto && t.kind != TypeFunctionNoProto) {
		return nil
	}
	return t
}

func isFunction(t *typ) bool { return functionOf(t) != nil }

// specifier builds the base type of a declaration. Tag definitions met along
// the way become declarations under owner; a tag named without a body
// becomes a forward declaration only when standalone.
func (b *unitBuilder) specifier(n *sitter.Node, quals []string, src []byte, file string, owner *cursor, local, standalone bool) *typ {
	if n == nil {
		return builtin("int", quals)
	}

	switch n.Type() {
	case "primitive_type", "type_identifier":
		name := n.Content(src)
		if td := b.typedefs[name]; td != nil {
			return &typ{kind: TypeTypedef, spelling: name, decl: td}
		}
		return builtin(name, quals)
	case "sized_type_specifier":
		return builtin(normalizeInteger(n.Content(src)), quals)
	case "struct_specifier":
		return b.tagged(n, CursorStructDecl, src, file, owner, local, standalone)
	case "union_specifier":
		return b.tagged(n, CursorUnionDecl, src, file, owner, local, standalone)
	case "enum_specifier":
		return b.tagged(n, CursorEnumDecl, src, file, owner, local, standalone)
	}
	return builtin(strings.Join(strings.Fields(n.Content(src)), " "), quals)
}

func builtin(spelling string, quals []string) *typ {
	if len(quals) > 0 {
		spelling = strings.Join(quals, " ") + " " + spelling
	}
	return &typ{kind: TypeUnexposed, spelling: spelling}
}

func (b *unitBuilder) tagged(n *sitter.Node, kind CursorKind, src []byte, file string, owner *cursor, local, standalone bool) *typ {
	name := ""
	if nn := n.ChildByFieldName("name"); nn != nil {
		name = nn.Content(src)
	}
	key := tagKey{kind: kind, name: name}
	declKind := TypeRecord
	if kind == CursorEnumDecl {
		declKind = TypeEnum
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		if name == "" {
			return builtin(tagSpelling(kind, ""), nil)
		}
		if standalone {
			c := &cursor{kind: kind, spelling: name, file: file, line: line(n)}
			c.typ = &typ{kind: declKind, decl: c, tag: key, resolver: b.tags}
			owner.addChild(c)
			b.tags.declare(c, local)
		}
		return &typ{kind: TypeElaborated, tag: key, resolver: b.tags}
	}

	c := &cursor{kind: kind, spelling: name, file: file, line: line(n), defined: true}
	c.typ = &typ{kind: declKind, decl: c}
	owner.addChild(c)
	if name != "" {
		b.tags.declare(c, local)
	}

	if kind == CursorEnumDecl {
		b.enumerators(body, src, file, c)
	} else {
		b.walkItems(namedChildren(body), src, file, func(f *sitter.Node) {
			if f.Type() == "field_declaration" {
				b.field(f, src, file, c, local)
			}
		})
	}
	return &typ{kind: TypeElaborated, tag: key, decl: c}
}

func (b *unitBuilder) enumerators(body *sitter.Node, src []byte, file string, enum *cursor) {
	next := int64(0)
	b.walkItems(namedChildren(body), src, file, func(e *sitter.Node) {
		if e.Type() != "enumerator" {
			return
		}
		nameNode := e.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		name := nameNode.Content(src)

		v := next
		if value := e.ChildByFieldName("value"); value != nil {
			if x, ok := b.constant(value, src); ok {
				v = x
			} else {
				b.log.Debug("enumerator value not constant", "file", file, "enumerator", name)
			}
		}
		b.enumConsts[name] = v
		enum.addChild(&cursor{
			kind:      CursorEnumConstantDecl,
			spelling:  name,
			typ:       enum.typ,
			file:      file,
			line:      line(e),
			enumValue: v,
		})
		next = v + 1
	})
}

func (b *unitBuilder) field(n *sitter.Node, src []byte, file string, rec *cursor, local bool) {
	base := b.specifier(n.ChildByFieldName("type"), qualifiers(n, src), src, file, rec, local, false)

	bitField, width := false, -1
	if clause := childOfType(n, "bitfield_clause"); clause != nil {
		bitField = true
		if clause.NamedChildCount() > 0 {
			if v, ok := b.constant(clause.NamedChild(0), src); ok {
				width = int(v)
			}
		}
	}

	declarators := fieldChildren(n, "declarator")
	if len(declarators) == 0 {
		// unnamed bit-fields and anonymous struct or union members
		if bitField || base.kind == TypeElaborated && base.decl != nil && base.decl.spelling == "" {
			rec.addChild(&cursor{kind: CursorFieldDecl, typ: base, file: file, line: line(n), bitField: bitField, bitWidth: width})
		}
		return
	}

	for _, d := range declarators {
		name, t := b.declarator(base, d, src, file)
		rec.addChild(&cursor{
			kind:     CursorFieldDecl,
			spelling: name,
			typ:      t,
			file:     file,
			line:     line(d),
			bitField: bitField,
			bitWidth: width,
		})
	}
}

// declarator applies the declarator chain to base, outermost first, and
// returns the declared name.
func (b *unitBuilder) declarator(base *typ, n *sitter.Node, src []byte, file string) (string, *typ) {
	for n != nil {
		switch n.Type() {
		case "identifier", "field_identifier", "type_identifier", "primitive_type":
			return n.Content(src), base
		case "pointer_declarator", "abstract_pointer_declarator":
			base = &typ{kind: TypePointer, pointee: base}
			n = n.ChildByFieldName("declarator")
		case "array_declarator", "abstract_array_declarator":
			base = b.array(base, n.ChildByFieldName("size"), src)
			n = n.ChildByFieldName("declarator")
		case "function_declarator", "abstract_function_declarator":
			base = b.function(base, n.ChildByFieldName("parameters"), src, file)
			n = n.ChildByFieldName("declarator")
		case "init_declarator":
			n = n.ChildByFieldName("declarator")
		case "parenthesized_declarator", "abstract_parenthesized_declarator", "attributed_declarator":
			n = innerDeclarator(n)
		default:
			return "", base
		}
	}
	return "", base
}

func (b *unitBuilder) array(elem *typ, size *sitter.Node, src []byte) *typ {
	if size == nil || !size.IsNamed() {
		return &typ{kind: TypeIncompleteArray, elem: elem, size: -1}
	}
	v, ok := b.constant(size, src)
	if !ok {
		v = -1
	}
	return &typ{kind: TypeConstantArray, elem: elem, size: v}
}

// function builds a function type. An empty parameter list is unprototyped;
// a lone unnamed void parameter means no parameters.
func (b *unitBuilder) function(result *typ, params *sitter.Node, src []byte, file string) *typ {
	fn := &typ{kind: TypeFunctionProto, result: result}
	if params == nil {
		fn.kind = TypeFunctionNoProto
		return fn
	}

	items := 0
	for _, p := range namedChildren(params) {
		switch p.Type() {
		case "variadic_parameter":
			fn.variadic = true
			items++
		case "parameter_declaration", "optional_parameter_declaration":
			items++
			base := b.specifier(p.ChildByFieldName("type"), qualifiers(p, src), src, file, nil, true, false)
			name, t := "", base
			if d := p.ChildByFieldName("declarator"); d != nil {
				name, t = b.declarator(base, d, src, file)
			}
			fn.args = append(fn.args, t)
			fn.params = append(fn.params, &cursor{kind: CursorParmDecl, spelling: name, typ: t, file: file, line: line(p)})
		}
	}

	if items == 0 {
		fn.kind = TypeFunctionNoProto
		return fn
	}
	if len(fn.args) == 1 && !fn.variadic && fn.params[0].spelling == "" &&
		fn.args[0].kind == TypeUnexposed && fn.args[0].spelling == "void" {
		fn.args, fn.params = nil, nil
	}
	return fn
}

// normalizeInteger rewrites a multi-keyword integer type the way compilers
// print it: "unsigned" becomes "unsigned int", "long int" becomes "long",
// "signed short int" becomes "short".
func normalizeInteger(text string) string {
	var unsigned, signed bool
	longs, shorts := 0, 0
	base := ""
	for _, word := range strings.Fields(text) {
		switch word {
		case "unsigned":
			unsigned = true
		case "signed":
			signed = true
		case "long":
			longs++
		case "short":
			shorts++
		default:
			base = word
		}
	}

	switch base {
	case "char":
		switch {
		case unsigned:
			return "unsigned char"
		case signed:
			return "signed char"
		}
		return "char"
	case "double", "float":
		if longs > 0 {
			return "long " + base
		}
		return base
	case "", "int":
	default:
		return strings.Join(strings.Fields(text), " ")
	}

	s := "int"
	switch {
	case shorts > 0:
		s = "short"
	case longs >= 2:
		s = "long long"
	case longs == 1:
		s = "long"
	}
	if unsigned {
		s = "unsigned " + s
	}
	return s
}

func qualifiers(n *sitter.Node, src []byte) []string {
	var quals []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "type_qualifier" {
			quals = append(quals, c.Content(src))
		}
	}
	return quals
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func fieldChildren(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == field {
			out = append(out, n.Child(i))
		}
	}
	return out
}

func childOfType(n *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == nodeType {
			return c
		}
	}
	return nil
}

func innerDeclarator(n *sitter.Node) *sitter.Node {
	if d := n.ChildByFieldName("declarator"); d != nil {
		return d
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "attribute_declaration", "attribute_specifier", "ms_call_modifier", "comment":
			continue
		}
		return c
	}
	return nil
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}
