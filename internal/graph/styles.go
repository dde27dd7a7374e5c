package graph

import "github.com/flightsw/fswparse/internal/ctype"

// KindShapes maps type kinds to Mermaid node shapes.
var KindShapes = map[ctype.Kind]string{
	// Records - hexagons
	ctype.KindStruct: "{{}}",
	ctype.KindUnion:  "{{}}",

	// Aliases - stadium
	ctype.KindTypedef: "([])",

	// Enums - subroutine
	ctype.KindEnum: "[[]]",
}

// EdgeStyles maps edge kinds to Mermaid link syntax.
var EdgeStyles = map[string]string{
	// By-value containment - solid arrow
	ViaField: "-->",

	// Indirection - dotted arrow
	ViaPointer: "-.->",

	// Typedef - thick arrow
	ViaAlias: "==>",
}

// shapeFor returns the shape for a kind, defaulting to a rectangle.
func shapeFor(kind ctype.Kind) string {
	if shape, ok := KindShapes[kind]; ok {
		return shape
	}
	return "[]"
}

// edgeStyle returns the link for an edge kind, defaulting to a solid arrow.
func edgeStyle(via string) string {
	if style, ok := EdgeStyles[via]; ok {
		return style
	}
	return "-->"
}
