package ctype

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Serialized layouts, one per variant. Each carries the "kind" discriminator
// first so documents read naturally.

type primitiveWire struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	Spelling string `json:"spelling" yaml:"spelling"`
}

type recordWire struct {
	Kind   Kind    `json:"kind" yaml:"kind"`
	Name   string  `json:"name" yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`
}

type arrayWire struct {
	Kind        Kind  `json:"kind" yaml:"kind"`
	ElementType Type  `json:"element_type" yaml:"element_type"`
	Size        int64 `json:"size" yaml:"size"`
}

type pointerWire struct {
	Kind        Kind `json:"kind" yaml:"kind"`
	PointeeType Type `json:"pointee_type" yaml:"pointee_type"`
}

type enumWire struct {
	Kind      Kind           `json:"kind" yaml:"kind"`
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
	Constants []EnumConstant `json:"constants" yaml:"constants"`
}

type typedefWire struct {
	Kind           Kind   `json:"kind" yaml:"kind"`
	Name           string `json:"name" yaml:"name"`
	UnderlyingType Type   `json:"underlying_type" yaml:"underlying_type"`
}

type functionTypeWire struct {
	Kind       Kind  `json:"kind" yaml:"kind"`
	ReturnType Type  `json:"return_type" yaml:"return_type"`
	Args       []Arg `json:"args" yaml:"args"`
}

type functionWire struct {
	Name       string `json:"name" yaml:"name"`
	ReturnType Type   `json:"return_type" yaml:"return_type"`
	Args       []Arg  `json:"args" yaml:"args"`
}

func (p *Primitive) wire() interface{} {
	return primitiveWire{Kind: KindPrimitive, Spelling: p.Spelling}
}

func (r *Record) wire() interface{} {
	fields := r.Fields
	if fields == nil {
		fields = []Field{}
	}
	return recordWire{Kind: r.Kind(), Name: r.Name, Fields: fields}
}

func (a *Array) wire() interface{} {
	return arrayWire{Kind: KindArray, ElementType: a.Element, Size: a.Size}
}

func (p *Pointer) wire() interface{} {
	return pointerWire{Kind: KindPointer, PointeeType: p.Pointee}
}

func (e *Enum) wire() interface{} {
	constants := e.Constants
	if constants == nil {
		constants = []EnumConstant{}
	}
	return enumWire{Kind: KindEnum, Name: e.Name, Constants: constants}
}

func (t *Typedef) wire() interface{} {
	return typedefWire{Kind: KindTypedef, Name: t.Name, UnderlyingType: t.Underlying}
}

func (f *FunctionType) wire() interface{} {
	return functionTypeWire{Kind: KindFunction, ReturnType: f.Return, Args: nonNilArgs(f.Args)}
}

func (f Function) wire() functionWire {
	return functionWire{Name: f.Name, ReturnType: f.ReturnType, Args: nonNilArgs(f.Args)}
}

func nonNilArgs(args []Arg) []Arg {
	if args == nil {
		return []Arg{}
	}
	return args
}

// MarshalJSON implements json.Marshaler.
func (p *Primitive) MarshalJSON() ([]byte, error) { return json.Marshal(p.wire()) }

// MarshalJSON implements json.Marshaler.
func (r *Record) MarshalJSON() ([]byte, error) { return json.Marshal(r.wire()) }

// MarshalJSON implements json.Marshaler.
func (a *Array) MarshalJSON() ([]byte, error) { return json.Marshal(a.wire()) }

// MarshalJSON implements json.Marshaler.
func (p *Pointer) MarshalJSON() ([]byte, error) { return json.Marshal(p.wire()) }

// MarshalJSON implements json.Marshaler.
func (e *Enum) MarshalJSON() ([]byte, error) { return json.Marshal(e.wire()) }

// MarshalJSON implements json.Marshaler.
func (t *Typedef) MarshalJSON() ([]byte, error) { return json.Marshal(t.wire()) }

// MarshalJSON implements json.Marshaler.
func (f *FunctionType) MarshalJSON() ([]byte, error) { return json.Marshal(f.wire()) }

// MarshalJSON implements json.Marshaler.
func (f Function) MarshalJSON() ([]byte, error) { return json.Marshal(f.wire()) }

// MarshalYAML implements yaml.Marshaler.
func (p *Primitive) MarshalYAML() (interface{}, error) { return p.wire(), nil }

// MarshalYAML implements yaml.Marshaler.
func (r *Record) MarshalYAML() (interface{}, error) { return r.wire(), nil }

// MarshalYAML implements yaml.Marshaler.
func (a *Array) MarshalYAML() (interface{}, error) { return a.wire(), nil }

// MarshalYAML implements yaml.Marshaler.
func (p *Pointer) MarshalYAML() (interface{}, error) { return p.wire(), nil }

// MarshalYAML implements yaml.Marshaler.
func (e *Enum) MarshalYAML() (interface{}, error) { return e.wire(), nil }

// MarshalYAML implements yaml.Marshaler.
func (t *Typedef) MarshalYAML() (interface{}, error) { return t.wire(), nil }

// MarshalYAML implements yaml.Marshaler.
func (f *FunctionType) MarshalYAML() (interface{}, error) { return f.wire(), nil }

// MarshalYAML implements yaml.Marshaler.
func (f Function) MarshalYAML() (interface{}, error) { return f.wire(), nil }

// Decode parses a serialized type descriptor. Besides the tagged objects
// written by MarshalJSON it accepts a bare JSON string as a primitive
// spelling and null as a nil Type.
func Decode(data []byte) (Type, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	if data[0] == '"' {
		var spelling string
		if err := json.Unmarshal(data, &spelling); err != nil {
			return nil, fmt.Errorf("decoding primitive: %w", err)
		}
		return &Primitive{Spelling: spelling}, nil
	}

	var head struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decoding type descriptor: %w", err)
	}

	switch head.Kind {
	case KindPrimitive:
		var w primitiveWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding primitive: %w", err)
		}
		return &Primitive{Spelling: w.Spelling}, nil

	case KindStruct, KindUnion:
		var w struct {
			Name   string  `json:"name"`
			Fields []Field `json:"fields"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", head.Kind, err)
		}
		return &Record{Union: head.Kind == KindUnion, Name: w.Name, Fields: w.Fields}, nil

	case KindArray:
		var w struct {
			ElementType json.RawMessage `json:"element_type"`
			Size        int64           `json:"size"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding array: %w", err)
		}
		elem, err := Decode(w.ElementType)
		if err != nil {
			return nil, err
		}
		return &Array{Element: elem, Size: w.Size}, nil

	case KindPointer:
		var w struct {
			PointeeType json.RawMessage `json:"pointee_type"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding pointer: %w", err)
		}
		pointee, err := Decode(w.PointeeType)
		if err != nil {
			return nil, err
		}
		return &Pointer{Pointee: pointee}, nil

	case KindEnum:
		var w struct {
			Name      string         `json:"name"`
			Constants []EnumConstant `json:"constants"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding enum: %w", err)
		}
		return &Enum{Name: w.Name, Constants: w.Constants}, nil

	case KindTypedef:
		var w struct {
			Name           string          `json:"name"`
			UnderlyingType json.RawMessage `json:"underlying_type"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding typedef: %w", err)
		}
		underlying, err := Decode(w.UnderlyingType)
		if err != nil {
			return nil, err
		}
		return &Typedef{Name: w.Name, Underlying: underlying}, nil

	case KindFunction:
		var w struct {
			ReturnType json.RawMessage `json:"return_type"`
			Args       []Arg           `json:"args"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding function: %w", err)
		}
		ret, err := Decode(w.ReturnType)
		if err != nil {
			return nil, err
		}
		return &FunctionType{Return: ret, Args: w.Args}, nil

	default:
		return nil, fmt.Errorf("unknown type descriptor kind %q", head.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field) UnmarshalJSON(data []byte) error {
	var w struct {
		Name          string          `json:"name"`
		Type          json.RawMessage `json:"type"`
		BitFieldWidth *int            `json:"bitfield_width"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	typ, err := Decode(w.Type)
	if err != nil {
		return fmt.Errorf("field %s: %w", w.Name, err)
	}
	*f = Field{Name: w.Name, Type: typ, BitFieldWidth: w.BitFieldWidth}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Arg) UnmarshalJSON(data []byte) error {
	var w struct {
		Name string          `json:"name"`
		Type json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	typ, err := Decode(w.Type)
	if err != nil {
		return fmt.Errorf("argument %s: %w", w.Name, err)
	}
	*a = Arg{Name: w.Name, Type: typ}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Function) UnmarshalJSON(data []byte) error {
	var w struct {
		Name       string          `json:"name"`
		ReturnType json.RawMessage `json:"return_type"`
		Args       []Arg           `json:"args"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ret, err := Decode(w.ReturnType)
	if err != nil {
		return fmt.Errorf("function %s: %w", w.Name, err)
	}
	*f = Function{Name: w.Name, ReturnType: ret, Args: w.Args}
	return nil
}
