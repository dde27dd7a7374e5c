package ctype

import (
	"sort"
	"strings"
)

// Table maps declared type names to their descriptors. It is built fresh for
// each extraction run and must not be written while any expansion reads it.
type Table map[string]Type

// Lookup returns the descriptor declared under name.
func (t Table) Lookup(name string) (Type, bool) {
	if t == nil {
		return nil, false
	}
	typ, ok := t[name]
	return typ, ok && typ != nil
}

// Merge copies every entry of other into t. Entries of other replace
// entries of t with the same name.
func (t Table) Merge(other Table) {
	for name, typ := range other {
		t[name] = typ
	}
}

// Names returns the declared names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for name, typ := range t {
		out[name] = cloneType(typ)
	}
	return out
}

// LookupRecord resolves a record reference. ref may be a tag-qualified
// spelling ("struct Foo", "union Foo") or a bare name ("Foo"). The entry
// must be a struct or union (of the requested tag, when one is given); a
// typedef entry is accepted when it aliases such a record directly.
func (t Table) LookupRecord(ref string) (*Record, bool) {
	tag, name := SplitTag(ref)
	if name == "" || strings.ContainsAny(name, " *[(") {
		return nil, false
	}
	typ, ok := t.Lookup(name)
	if !ok {
		return nil, false
	}
	if td, isTypedef := typ.(*Typedef); isTypedef && td.Name == name {
		typ = td.Underlying
	}
	rec, ok := typ.(*Record)
	if !ok || rec.Name != name {
		return nil, false
	}
	if tag != "" && Kind(tag) != rec.Kind() {
		return nil, false
	}
	return rec, true
}

// SplitTag splits "struct Foo" into ("struct", "Foo"). Spellings without a
// struct/union tag return an empty tag and the trimmed spelling.
func SplitTag(spelling string) (tag, name string) {
	s := strings.TrimSpace(spelling)
	for _, prefix := range []string{"struct ", "union "} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimSpace(prefix), strings.TrimSpace(s[len(prefix):])
		}
	}
	return "", s
}
