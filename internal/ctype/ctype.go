// Package ctype defines the normalized, serializable description of C types
// produced by extraction: a tagged variant of type descriptors, the function
// descriptors that are the unit of output, and the declared-types table used
// to resolve named references.
package ctype

// Kind discriminates the Type variants. Its string value is the "kind"
// field of the serialized form.
type Kind string

const (
	// KindPrimitive is a scalar or otherwise unstructured type, described by its spelling.
	KindPrimitive Kind = "primitive"
	// KindStruct is a struct record.
	KindStruct Kind = "struct"
	// KindUnion is a union record.
	KindUnion Kind = "union"
	// KindArray is a fixed-size array.
	KindArray Kind = "array"
	// KindPointer is a single level of indirection.
	KindPointer Kind = "pointer"
	// KindEnum is an enumeration with its constants.
	KindEnum Kind = "enum"
	// KindTypedef is a named alias for an underlying type.
	KindTypedef Kind = "typedef"
	// KindFunction is a function prototype.
	KindFunction Kind = "function"
)

// UnknownSize is the Array.Size sentinel used when the element count could
// not be determined.
const UnknownSize int64 = -1

// Type is a C type descriptor. The concrete types are *Primitive, *Record,
// *Array, *Pointer, *Enum, *Typedef and *FunctionType.
type Type interface {
	// Kind returns the variant tag.
	Kind() Kind
	// Clone returns a deep copy that shares no mutable state with the receiver.
	Clone() Type

	isType()
}

// Primitive carries only the native spelling of a type, e.g. "unsigned int".
// It is also the fallback for type kinds with no structured representation
// and for bare references left unexpanded by the cycle guard.
type Primitive struct {
	Spelling string
}

// Record is a struct or union.
type Record struct {
	Union bool
	// Name is the tag name; empty for anonymous records.
	Name string
	// Fields are in declaration order.
	Fields []Field
}

// Field is a struct or union member.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Type Type   `json:"type" yaml:"type"`
	// BitFieldWidth is non-nil only for bit-field members.
	BitFieldWidth *int `json:"bitfield_width,omitempty" yaml:"bitfield_width,omitempty"`
}

// Array is a fixed-size array. Size is UnknownSize when the length could
// not be evaluated.
type Array struct {
	Element Type
	Size    int64
}

// Pointer is one level of indirection.
type Pointer struct {
	Pointee Type
}

// Enum lists enumeration constants in declaration order.
type Enum struct {
	Name      string
	Constants []EnumConstant
}

// EnumConstant is a single enumerator and its integer value.
type EnumConstant struct {
	Name  string `json:"name" yaml:"name"`
	Value int64  `json:"value" yaml:"value"`
}

// Typedef is an alias name and the type it stands for.
type Typedef struct {
	Name       string
	Underlying Type
}

// FunctionType is a function prototype. Argument names are positional
// (arg0, arg1, ...) because prototypes do not carry parameter names.
type FunctionType struct {
	Return Type
	Args   []Arg
}

// Arg is a named function argument.
type Arg struct {
	Name string `json:"name" yaml:"name"`
	Type Type   `json:"type" yaml:"type"`
}

// Function is a function declaration with fully expanded types.
// It is the unit of extraction output.
type Function struct {
	Name       string `json:"name" yaml:"name"`
	ReturnType Type   `json:"return_type" yaml:"return_type"`
	Args       []Arg  `json:"args" yaml:"args"`
}

// Kind implements Type.
func (*Primitive) Kind() Kind { return KindPrimitive }

// Kind implements Type.
func (r *Record) Kind() Kind {
	if r.Union {
		return KindUnion
	}
	return KindStruct
}

// Kind implements Type.
func (*Array) Kind() Kind { return KindArray }

// Kind implements Type.
func (*Pointer) Kind() Kind { return KindPointer }

// Kind implements Type.
func (*Enum) Kind() Kind { return KindEnum }

// Kind implements Type.
func (*Typedef) Kind() Kind { return KindTypedef }

// Kind implements Type.
func (*FunctionType) Kind() Kind { return KindFunction }

func (*Primitive) isType()    {}
func (*Record) isType()       {}
func (*Array) isType()        {}
func (*Pointer) isType()      {}
func (*Enum) isType()         {}
func (*Typedef) isType()      {}
func (*FunctionType) isType() {}

// Clone implements Type.
func (p *Primitive) Clone() Type {
	c := *p
	return &c
}

// Clone implements Type.
func (r *Record) Clone() Type {
	c := &Record{Union: r.Union, Name: r.Name}
	if r.Fields != nil {
		c.Fields = make([]Field, len(r.Fields))
		for i, f := range r.Fields {
			c.Fields[i] = f.clone()
		}
	}
	return c
}

// Clone implements Type.
func (a *Array) Clone() Type {
	return &Array{Element: cloneType(a.Element), Size: a.Size}
}

// Clone implements Type.
func (p *Pointer) Clone() Type {
	return &Pointer{Pointee: cloneType(p.Pointee)}
}

// Clone implements Type.
func (e *Enum) Clone() Type {
	c := &Enum{Name: e.Name}
	if e.Constants != nil {
		c.Constants = append([]EnumConstant(nil), e.Constants...)
	}
	return c
}

// Clone implements Type.
func (t *Typedef) Clone() Type {
	return &Typedef{Name: t.Name, Underlying: cloneType(t.Underlying)}
}

// Clone implements Type.
func (f *FunctionType) Clone() Type {
	return &FunctionType{Return: cloneType(f.Return), Args: cloneArgs(f.Args)}
}

// Clone returns a deep copy of the function descriptor.
func (f Function) Clone() Function {
	return Function{Name: f.Name, ReturnType: cloneType(f.ReturnType), Args: cloneArgs(f.Args)}
}

// IsBitField reports whether the field is a bit-field member.
func (f Field) IsBitField() bool {
	return f.BitFieldWidth != nil
}

func (f Field) clone() Field {
	c := Field{Name: f.Name, Type: cloneType(f.Type)}
	if f.BitFieldWidth != nil {
		w := *f.BitFieldWidth
		c.BitFieldWidth = &w
	}
	return c
}

func cloneType(t Type) Type {
	if t == nil {
		return nil
	}
	return t.Clone()
}

func cloneArgs(args []Arg) []Arg {
	if args == nil {
		return nil
	}
	out := make([]Arg, len(args))
	for i, a := range args {
		out[i] = Arg{Name: a.Name, Type: cloneType(a.Type)}
	}
	return out
}

// BitWidth returns a pointer to w, for populating Field.BitFieldWidth.
func BitWidth(w int) *int {
	return &w
}
