// Package ast exposes a C translation unit as a tree of cursors and types.
//
// The interfaces in this file are what extraction consumes: cursors with a
// kind, a spelling, ordered children and an originating file, and types that
// can be asked for their pointee, element type and size, canonical form,
// declaration, and function result and argument types. SitterIndex is the
// tree-sitter backed implementation.
package ast

import "context"

// CursorKind is the structural category of a cursor.
type CursorKind int

const (
	CursorTranslationUnit CursorKind = iota
	CursorStructDecl
	CursorUnionDecl
	CursorEnumDecl
	CursorEnumConstantDecl
	CursorTypedefDecl
	CursorFunctionDecl
	CursorFieldDecl
	CursorParmDecl
	CursorVarDecl
)

var cursorKindNames = map[CursorKind]string{
	CursorTranslationUnit:  "TRANSLATION_UNIT",
	CursorStructDecl:       "STRUCT_DECL",
	CursorUnionDecl:        "UNION_DECL",
	CursorEnumDecl:         "ENUM_DECL",
	CursorEnumConstantDecl: "ENUM_CONSTANT_DECL",
	CursorTypedefDecl:      "TYPEDEF_DECL",
	CursorFunctionDecl:     "FUNCTION_DECL",
	CursorFieldDecl:        "FIELD_DECL",
	CursorParmDecl:         "PARM_DECL",
	CursorVarDecl:          "VAR_DECL",
}

func (k CursorKind) String() string {
	if s, ok := cursorKindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// TypeKind is the structural category of a type.
type TypeKind int

const (
	TypeInvalid TypeKind = iota
	// TypeUnexposed covers builtin scalars and anything without structure
	// of its own. Its spelling is the whole description.
	TypeUnexposed
	TypeRecord
	TypeEnum
	TypePointer
	TypeConstantArray
	TypeIncompleteArray
	TypeTypedef
	// TypeElaborated is a tag-qualified reference such as `struct Foo`.
	TypeElaborated
	TypeFunctionProto
	TypeFunctionNoProto
)

var typeKindNames = map[TypeKind]string{
	TypeInvalid:         "INVALID",
	TypeUnexposed:       "UNEXPOSED",
	TypeRecord:          "RECORD",
	TypeEnum:            "ENUM",
	TypePointer:         "POINTER",
	TypeConstantArray:   "CONSTANTARRAY",
	TypeIncompleteArray: "INCOMPLETEARRAY",
	TypeTypedef:         "TYPEDEF",
	TypeElaborated:      "ELABORATED",
	TypeFunctionProto:   "FUNCTIONPROTO",
	TypeFunctionNoProto: "FUNCTIONNOPROTO",
}

func (k TypeKind) String() string {
	if s, ok := typeKindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Cursor is a node of the declaration tree. Cursors are comparable: two
// cursors for the same declaration are ==.
type Cursor interface {
	Kind() CursorKind
	// Spelling is the declared name; empty for anonymous declarations.
	Spelling() string
	// Children are in source order.
	Children() []Cursor
	// Type is the declared type, nil for the translation unit.
	Type() Type
	// File is the path of the file the declaration appears in.
	File() string
	// Line is the 1-based line of the declaration.
	Line() int

	// IsBitField reports whether a field cursor is a bit-field.
	IsBitField() bool
	// BitFieldWidth is the declared width, or -1 when the cursor is not a
	// bit-field or the width could not be evaluated.
	BitFieldWidth() int
	// EnumValue is the value of an enum constant cursor.
	EnumValue() int64

	// Arguments are the parameter cursors of a function declaration,
	// excluding a trailing variadic ellipsis.
	Arguments() []Cursor
	// ResultType is the return type of a function declaration.
	ResultType() Type
}

// Type is a C type.
type Type interface {
	Kind() TypeKind
	Spelling() string

	// Declaration is the record, enum or typedef declaration behind the
	// type, or nil.
	Declaration() Cursor
	// Canonical strips typedefs and elaborations at every level.
	Canonical() Type

	// Pointee is the pointed-to type of a pointer.
	Pointee() Type
	// ElementType is the element type of an array.
	ElementType() Type
	// ArraySize is the length of a constant array, or -1 when unknown.
	ArraySize() int64

	// Result is the return type of a function type.
	Result() Type
	// ArgTypes are the parameter types of a function prototype.
	ArgTypes() []Type
	// IsVariadic reports whether a prototype ends in an ellipsis.
	IsVariadic() bool
}

// TranslationUnit is a parsed source file together with everything it includes.
type TranslationUnit interface {
	// Path is the path the unit was parsed from, as given to Parse.
	Path() string
	// Cursor is the root cursor of kind CursorTranslationUnit.
	Cursor() Cursor
}

// Index produces translation units from source files.
type Index interface {
	// Parse builds the translation unit for path. It fails with an error
	// matching ErrSourceUnavailable when the file cannot be read or parsed.
	Parse(ctx context.Context, path string) (TranslationUnit, error)
}

// Inspect walks the cursor tree rooted at c in pre-order. Children of a
// cursor are visited only when visit returns true for it.
func Inspect(c Cursor, visit func(Cursor) bool) {
	if c == nil || !visit(c) {
		return
	}
	for _, child := range c.Children() {
		Inspect(child, visit)
	}
}
