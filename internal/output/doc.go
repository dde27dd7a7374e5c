// Package output renders extraction results for people and tools.
//
// # Formats
//
// Two output formats are supported:
//
//   - JSON (default): the dictionary document, indented with a configurable
//     number of spaces (4 unless configured otherwise)
//   - YAML: the same structure, indented with 2 spaces
//
// Both formats rely on the marshalers of the ctype package, so every type
// descriptor is written as an object carrying its "kind" discriminator:
//
//	{"kind": "pointer", "pointee_type": {"kind": "primitive", "spelling": "char"}}
//
// # Persistence
//
// SaveToFile writes a rendered document to disk. The file is written to a
// temporary sibling first and renamed into place, so a reader never observes
// a half-written dictionary.
package output
