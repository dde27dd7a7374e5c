package extract

import (
	"fmt"

	"github.com/flightsw/fswparse/internal/ast"
	"github.com/flightsw/fswparse/internal/ctype"
)

// Build converts one AST type into a descriptor. Substructure is built
// recursively, but names are never resolved against a table: a typedef
// becomes a typedef descriptor over its canonical type, and a record that is
// already being built further up (struct Node { struct Node *next; }) is
// emitted as a primitive carrying its spelling. Kinds without structure of
// their own degrade to primitives with their canonical spelling.
func Build(t ast.Type) ctype.Type {
	b := &builder{active: make(map[ast.Cursor]bool)}
	return b.build(t)
}

type builder struct {
	// records currently being built
	active map[ast.Cursor]bool
}

func (b *builder) build(t ast.Type) ctype.Type {
	if t == nil {
		return &ctype.Primitive{}
	}

	switch t.Kind() {
	case ast.TypeRecord:
		return b.record(t)

	case ast.TypeConstantArray:
		return &ctype.Array{Element: b.build(t.ElementType()), Size: t.ArraySize()}

	case ast.TypePointer:
		return &ctype.Pointer{Pointee: b.build(t.Pointee())}

	case ast.TypeEnum:
		return enumOf(t)

	case ast.TypeTypedef:
		name := t.Spelling()
		if d := t.Declaration(); d != nil {
			name = d.Spelling()
		}
		return &ctype.Typedef{Name: name, Underlying: b.build(t.Canonical())}

	case ast.TypeFunctionProto:
		fn := &ctype.FunctionType{Return: b.build(t.Result())}
		for i, arg := range t.ArgTypes() {
			fn.Args = append(fn.Args, ctype.Arg{Name: fmt.Sprintf("arg%d", i), Type: b.build(arg)})
		}
		return fn

	case ast.TypeElaborated:
		d := t.Declaration()
		if d == nil || d.Type() == nil {
			return &ctype.Primitive{Spelling: t.Spelling()}
		}
		return b.build(d.Type())
	}

	return &ctype.Primitive{Spelling: t.Canonical().Spelling()}
}

func (b *builder) record(t ast.Type) ctype.Type {
	decl := t.Declaration()
	if decl == nil {
		return &ctype.Primitive{Spelling: t.Spelling()}
	}
	if b.active[decl] {
		return &ctype.Primitive{Spelling: t.Spelling()}
	}
	b.active[decl] = true
	defer delete(b.active, decl)

	rec := &ctype.Record{
		Union:  decl.Kind() == ast.CursorUnionDecl,
		Name:   decl.Spelling(),
		Fields: []ctype.Field{},
	}
	for _, c := range decl.Children() {
		if c.Kind() != ast.CursorFieldDecl {
			continue
		}
		f := ctype.Field{Name: c.Spelling(), Type: b.build(c.Type())}
		if c.IsBitField() && c.BitFieldWidth() >= 0 {
			f.BitFieldWidth = ctype.BitWidth(c.BitFieldWidth())
		}
		rec.Fields = append(rec.Fields, f)
	}
	return rec
}

func enumOf(t ast.Type) ctype.Type {
	enum := &ctype.Enum{Constants: []ctype.EnumConstant{}}
	decl := t.Declaration()
	if decl == nil {
		return enum
	}
	enum.Name = decl.Spelling()
	for _, c := range decl.Children() {
		if c.Kind() == ast.CursorEnumConstantDecl {
			enum.Constants = append(enum.Constants, ctype.EnumConstant{Name: c.Spelling(), Value: c.EnumValue()})
		}
	}
	return enum
}
