package ast

import (
	"strconv"
	"strings"
)

// cursor is the concrete Cursor. The whole tree is materialized while the
// translation unit is built, so cursors hold no reference to parser state.
type cursor struct {
	kind     CursorKind
	spelling string
	children []*cursor
	typ      *typ
	file     string
	line     int

	// defined is false for forward declarations of a tag
	defined bool

	bitField  bool
	bitWidth  int
	enumValue int64

	// typedef declarations
	underlying *typ
}

func (c *cursor) Kind() CursorKind { return c.kind }
func (c *cursor) Spelling() string { return c.spelling }
func (c *cursor) File() string     { return c.file }
func (c *cursor) Line() int        { return c.line }
func (c *cursor) IsBitField() bool { return c.bitField }
func (c *cursor) EnumValue() int64 { return c.enumValue }

func (c *cursor) BitFieldWidth() int {
	if !c.bitField {
		return -1
	}
	return c.bitWidth
}

func (c *cursor) Children() []Cursor {
	out := make([]Cursor, len(c.children))
	for i, child := range c.children {
		out[i] = child
	}
	return out
}

func (c *cursor) Type() Type {
	if c.typ == nil {
		return nil
	}
	return c.typ
}

func (c *cursor) Arguments() []Cursor {
	if c.kind != CursorFunctionDecl || c.typ == nil {
		return nil
	}
	fn := c.typ.canonical()
	out := make([]Cursor, len(fn.params))
	for i, p := range fn.params {
		out[i] = p
	}
	return out
}

func (c *cursor) ResultType() Type {
	if c.kind != CursorFunctionDecl || c.typ == nil {
		return nil
	}
	if r := c.typ.canonical().result; r != nil {
		return r
	}
	return nil
}

func (c *cursor) addChild(child *cursor) {
	if c != nil {
		c.children = append(c.children, child)
	}
}

// tagKey identifies a struct, union or enum tag.
type tagKey struct {
	kind CursorKind
	name string
}

// tagResolver finds the declaration currently bound to a tag.
type tagResolver interface {
	resolveTag(key tagKey) *cursor
}

// typ is the concrete Type.
type typ struct {
	kind TypeKind

	// builtin spelling including qualifiers, or typedef name
	spelling string

	// record, enum and typedef declarations
	decl *cursor

	// elaborated references bind to a tag either directly, when written
	// with a body, or lazily through the resolver
	tag      tagKey
	resolver tagResolver

	pointee *typ
	elem    *typ
	size    int64

	result   *typ
	args     []*typ
	params   []*cursor
	variadic bool

	canon *typ
}

func (t *typ) Kind() TypeKind { return t.kind }

func (t *typ) Spelling() string { return spell(t, "") }

func (t *typ) Declaration() Cursor {
	if d := t.declaration(); d != nil {
		return d
	}
	return nil
}

func (t *typ) declaration() *cursor {
	switch t.kind {
	case TypeRecord, TypeEnum:
		// a forward declaration stands for the definition once there is one
		if t.decl != nil && !t.decl.defined && t.resolver != nil {
			if d := t.resolver.resolveTag(t.tag); d != nil {
				return d
			}
		}
		return t.decl
	case TypeTypedef:
		return t.decl
	case TypeElaborated:
		if t.decl != nil {
			return t.decl
		}
		if t.resolver != nil {
			return t.resolver.resolveTag(t.tag)
		}
	}
	return nil
}

func (t *typ) Canonical() Type { return t.canonical() }

func (t *typ) canonical() *typ {
	if t.canon != nil {
		return t.canon
	}
	var c *typ
	switch t.kind {
	case TypeTypedef:
		if t.decl != nil && t.decl.underlying != nil {
			c = t.decl.underlying.canonical()
		} else {
			c = t
		}
	case TypeElaborated:
		d := t.declaration()
		if d == nil || d.typ == nil {
			// unresolved tags stay elaborated; the reference is all there is
			return t
		}
		c = d.typ
	case TypePointer:
		c = &typ{kind: TypePointer, pointee: t.pointee.canonical()}
	case TypeConstantArray, TypeIncompleteArray:
		c = &typ{kind: t.kind, elem: t.elem.canonical(), size: t.size}
	case TypeFunctionProto, TypeFunctionNoProto:
		c = &typ{kind: t.kind, result: t.result.canonical(), params: t.params, variadic: t.variadic}
		for _, a := range t.args {
			c.args = append(c.args, a.canonical())
		}
	default:
		c = t
	}
	t.canon = c
	return c
}

func (t *typ) Pointee() Type {
	if t.kind != TypePointer || t.pointee == nil {
		return nil
	}
	return t.pointee
}

func (t *typ) ElementType() Type {
	if t.elem == nil {
		return nil
	}
	return t.elem
}

func (t *typ) ArraySize() int64 {
	if t.kind != TypeConstantArray {
		return -1
	}
	return t.size
}

func (t *typ) Result() Type {
	if t.result == nil {
		return nil
	}
	return t.result
}

func (t *typ) ArgTypes() []Type {
	out := make([]Type, len(t.args))
	for i, a := range t.args {
		out[i] = a
	}
	return out
}

func (t *typ) IsVariadic() bool { return t.variadic }

// spell renders a type the way a C compiler prints it: the declarator part
// wraps inner around the base, so an array of function pointers becomes
// "int (*[4])(int)".
func spell(t *typ, inner string) string {
	switch t.kind {
	case TypePointer:
		s := "*" + inner
		if needsParens(t.pointee) {
			s = "(" + s + ")"
		}
		return spell(t.pointee, s)
	case TypeConstantArray, TypeIncompleteArray:
		dim := "[]"
		if t.kind == TypeConstantArray {
			if t.size < 0 {
				dim = "[?]"
			} else {
				dim = "[" + strconv.FormatInt(t.size, 10) + "]"
			}
		}
		return spell(t.elem, inner+dim)
	case TypeFunctionProto, TypeFunctionNoProto:
		parts := make([]string, 0, len(t.args)+1)
		for _, a := range t.args {
			parts = append(parts, a.Spelling())
		}
		if t.variadic {
			parts = append(parts, "...")
		}
		if t.kind == TypeFunctionProto && len(parts) == 0 {
			parts = append(parts, "void")
		}
		return spell(t.result, inner+"("+strings.Join(parts, ", ")+")")
	}
	return joinDeclarator(baseSpelling(t), inner)
}

func needsParens(t *typ) bool {
	switch t.kind {
	case TypeConstantArray, TypeIncompleteArray, TypeFunctionProto, TypeFunctionNoProto:
		return true
	}
	return false
}

func joinDeclarator(base, inner string) string {
	if inner == "" {
		return base
	}
	return base + " " + inner
}

func baseSpelling(t *typ) string {
	switch t.kind {
	case TypeRecord, TypeEnum:
		d := t.declaration()
		return tagSpelling(d.kind, d.spelling)
	case TypeElaborated:
		if d := t.declaration(); d != nil {
			return tagSpelling(d.kind, d.spelling)
		}
		return tagSpelling(t.tag.kind, t.tag.name)
	}
	return t.spelling
}

func tagSpelling(kind CursorKind, name string) string {
	keyword := "struct"
	switch kind {
	case CursorUnionDecl:
		keyword = "union"
	case CursorEnumDecl:
		keyword = "enum"
	}
	if name == "" {
		return keyword + " (anonymous)"
	}
	return keyword + " " + name
}
