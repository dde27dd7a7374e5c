package graph

import (
	"fmt"
	"regexp"
	"strings"
)

// MermaidOptions configures Mermaid diagram generation.
type MermaidOptions struct {
	Direction string // Layout direction: "TD" (top-down) or "LR" (left-right)
	Title     string // Optional diagram title
	Labels    bool   // Label edges with their kind
}

// DefaultMermaidOptions returns sensible defaults for Mermaid diagram generation.
func DefaultMermaidOptions() *MermaidOptions {
	return &MermaidOptions{
		Direction: "LR",
	}
}

// GenerateMermaid renders g as a Mermaid flowchart. Nodes and edges are
// emitted in sorted order so the output is stable.
func GenerateMermaid(g *Graph, opts *MermaidOptions) string {
	if opts == nil {
		opts = DefaultMermaidOptions()
	}
	direction := opts.Direction
	if direction != "TD" && direction != "LR" {
		direction = "LR"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	if opts.Title != "" {
		sb.WriteString(fmt.Sprintf("    subgraph title[\"%s\"]\n", escapeMermaidString(opts.Title)))
		sb.WriteString("    end\n")
	}

	nodes := g.sortedNodes()
	for _, name := range nodes {
		sb.WriteString(fmt.Sprintf("    %s\n", mermaidNode(name, g)))
	}

	for _, from := range nodes {
		for _, e := range g.Edges[from] {
			link := edgeStyle(e.Via)
			if opts.Labels {
				link = fmt.Sprintf("%s|%s|", link, e.Via)
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(from), link, sanitizeMermaidID(e.To)))
		}
	}

	return sb.String()
}

// mermaidNode creates a node declaration labeled with the name and kind.
func mermaidNode(name string, g *Graph) string {
	kind := g.Kinds[name]
	label := escapeMermaidString(fmt.Sprintf("%s %s", kind, name))
	shape := shapeFor(kind)
	open, close := shape[:len(shape)/2], shape[len(shape)/2:]
	return fmt.Sprintf("%s%s\"%s\"%s", sanitizeMermaidID(name), open, label, close)
}

// Mermaid IDs can contain alphanumeric chars and underscores.
var mermaidIDRegex = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func sanitizeMermaidID(id string) string {
	sanitized := mermaidIDRegex.ReplaceAllString(id, "_")

	// Ensure it starts with a letter or underscore (not a digit)
	if len(sanitized) > 0 && sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "_" + sanitized
	}

	if sanitized == "" {
		sanitized = "_empty"
	}

	// "end" is reserved in flowcharts
	if strings.EqualFold(sanitized, "end") {
		sanitized = "_" + sanitized
	}

	return sanitized
}

// escapeMermaidString escapes special characters in Mermaid string content.
func escapeMermaidString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "<", "#lt;")
	s = strings.ReplaceAll(s, ">", "#gt;")
	return s
}
