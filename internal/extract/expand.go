package extract

import (
	"github.com/flightsw/fswparse/internal/ctype"
)

// Expand returns a copy of t in which every typedef found in the table has
// its underlying type replaced by the expanded table entry, and every
// primitive naming a struct or union in the table is replaced by that
// record's expanded definition.
//
// Names being expanded form the active path. A typedef or record met again
// while on the path is left as it is, so expansion always terminates and a
// type never appears expanded inside itself. Neither t nor the table is
// modified, and each call starts with an empty path.
func Expand(t ctype.Type, table ctype.Table) ctype.Type {
	x := &expander{table: table, active: make(map[string]bool)}
	return x.expand(t)
}

type expander struct {
	table ctype.Table
	// typedef names and "struct X" / "union X" keys on the active path
	active map[string]bool
}

func (x *expander) expand(t ctype.Type) ctype.Type {
	switch v := t.(type) {
	case nil:
		return nil

	case *ctype.Typedef:
		entry, ok := x.table.Lookup(v.Name)
		if !ok || x.active[v.Name] {
			return v.Clone()
		}
		// the entry for a typedef is the typedef itself; substitute what it aliases
		if td, isTypedef := entry.(*ctype.Typedef); isTypedef && td.Name == v.Name {
			entry = td.Underlying
		}
		if rec, isRecord := entry.(*ctype.Record); isRecord && x.active[recordKey(rec)] {
			return v.Clone()
		}
		x.active[v.Name] = true
		underlying := x.expand(entry)
		delete(x.active, v.Name)
		return &ctype.Typedef{Name: v.Name, Underlying: underlying}

	case *ctype.Record:
		key := recordKey(v)
		if key != "" {
			if x.active[key] {
				return v.Clone()
			}
			x.active[key] = true
			defer delete(x.active, key)
		}
		out := &ctype.Record{Union: v.Union, Name: v.Name, Fields: make([]ctype.Field, len(v.Fields))}
		for i, f := range v.Fields {
			out.Fields[i] = ctype.Field{Name: f.Name, Type: x.expand(f.Type)}
			if f.BitFieldWidth != nil {
				out.Fields[i].BitFieldWidth = ctype.BitWidth(*f.BitFieldWidth)
			}
		}
		return out

	case *ctype.Primitive:
		rec, ok := x.table.LookupRecord(v.Spelling)
		if !ok || x.active[recordKey(rec)] {
			return v.Clone()
		}
		return x.expand(rec)

	case *ctype.Pointer:
		return &ctype.Pointer{Pointee: x.expand(v.Pointee)}

	case *ctype.Array:
		return &ctype.Array{Element: x.expand(v.Element), Size: v.Size}

	case *ctype.FunctionType:
		out := &ctype.FunctionType{Return: x.expand(v.Return)}
		if v.Args != nil {
			out.Args = make([]ctype.Arg, 0, len(v.Args))
		}
		for _, a := range v.Args {
			out.Args = append(out.Args, ctype.Arg{Name: a.Name, Type: x.expand(a.Type)})
		}
		return out
	}

	// enums are leaves
	return t.Clone()
}

func recordKey(r *ctype.Record) string {
	if r.Name == "" {
		return ""
	}
	if r.Union {
		return "union " + r.Name
	}
	return "struct " + r.Name
}
