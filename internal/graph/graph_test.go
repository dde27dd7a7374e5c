package graph

import (
	"reflect"
	"strings"
	"testing"

	"github.com/flightsw/fswparse/internal/ctype"
)

// testTable mirrors a small telemetry header:
//
//	typedef unsigned short apid_t;
//	struct Node { int value; struct Node *next; };
//	typedef struct Node Node_t;
//	struct Packet { apid_t apid; Node_t *queue; struct { int a; struct Node head; } inner; };
//	typedef struct Packet Packet;
func testTable() ctype.Table {
	apid := &ctype.Typedef{Name: "apid_t", Underlying: &ctype.Primitive{Spelling: "unsigned short"}}
	node := &ctype.Record{Name: "Node", Fields: []ctype.Field{
		{Name: "value", Type: &ctype.Primitive{Spelling: "int"}},
		{Name: "next", Type: &ctype.Pointer{Pointee: &ctype.Primitive{Spelling: "struct Node"}}},
	}}
	nodeT := &ctype.Typedef{Name: "Node_t", Underlying: node}
	packet := &ctype.Record{Name: "Packet", Fields: []ctype.Field{
		{Name: "apid", Type: apid},
		{Name: "queue", Type: &ctype.Pointer{Pointee: nodeT}},
		{Name: "inner", Type: &ctype.Record{Fields: []ctype.Field{
			{Name: "a", Type: &ctype.Primitive{Spelling: "int"}},
			{Name: "head", Type: node},
		}}},
	}}
	return ctype.Table{
		"apid_t": apid,
		"Node":   node,
		"Node_t": nodeT,
		"Packet": &ctype.Typedef{Name: "Packet", Underlying: packet},
	}
}

func TestFromTable(t *testing.T) {
	g := FromTable(testTable())

	if g.NodeCount() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.NodeCount())
	}
	if g.Kinds["Node"] != ctype.KindStruct || g.Kinds["Node_t"] != ctype.KindTypedef {
		t.Errorf("unexpected kinds: %v", g.Kinds)
	}

	tests := []struct {
		from string
		want []Edge
	}{
		{"apid_t", []Edge{}},
		{"Node", []Edge{{To: "Node", Via: ViaPointer}}},
		{"Node_t", []Edge{{To: "Node", Via: ViaAlias}}},
		{"Packet", []Edge{
			{To: "apid_t", Via: ViaField},
			{To: "Node_t", Via: ViaPointer},
			{To: "Node", Via: ViaField},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			if got := g.Edges[tt.from]; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("edges of %s = %v, want %v", tt.from, got, tt.want)
			}
		})
	}

	if g.EdgeCount() != 5 {
		t.Errorf("expected 5 edges, got %d", g.EdgeCount())
	}

	want := []string{"Node", "Node_t", "Packet"}
	if got := g.Dependents("Node"); !reflect.DeepEqual(got, want) {
		t.Errorf("Dependents(Node) = %v, want %v", got, want)
	}
}

func TestFromTable_Empty(t *testing.T) {
	g := FromTable(ctype.Table{})
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes and %d edges", g.NodeCount(), g.EdgeCount())
	}
}

func TestReachable(t *testing.T) {
	g := FromTable(testTable())

	want := []string{"Node_t", "Node"}
	if got := g.Reachable("Node_t"); !reflect.DeepEqual(got, want) {
		t.Errorf("Reachable(Node_t) = %v, want %v", got, want)
	}

	got := g.Reachable("Packet")
	if len(got) != 4 || got[0] != "Packet" {
		t.Errorf("Reachable(Packet) = %v", got)
	}

	if g.Reachable("Missing") != nil {
		t.Error("unknown root should yield nil")
	}
}

func TestSubgraph(t *testing.T) {
	g := FromTable(testTable())
	sub := g.Subgraph(g.Reachable("Node_t"))

	if sub.NodeCount() != 2 {
		t.Errorf("expected 2 nodes, got %d", sub.NodeCount())
	}
	if sub.EdgeCount() != 2 {
		t.Errorf("expected Node_t->Node and Node->Node, got %d edges", sub.EdgeCount())
	}
	if _, ok := sub.Kinds["Packet"]; ok {
		t.Error("Packet should not be in the subgraph")
	}
}

func TestGenerateMermaid(t *testing.T) {
	out := GenerateMermaid(FromTable(testTable()), nil)

	for _, want := range []string{
		"flowchart LR\n",
		`    Node{{"struct Node"}}`,
		`    Node_t(["typedef Node_t"])`,
		"    Node -.-> Node\n",
		"    Node_t ==> Node\n",
		"    Packet --> apid_t\n",
		"    Packet -.-> Node_t\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	// sorted, so apid_t's declaration comes after the capitalized names
	if strings.Index(out, "Node{{") > strings.Index(out, "apid_t([") {
		t.Errorf("nodes should be sorted:\n%s", out)
	}
}

func TestGenerateMermaid_Options(t *testing.T) {
	out := GenerateMermaid(FromTable(testTable()), &MermaidOptions{
		Direction: "TD",
		Title:     `cmd "v2"`,
		Labels:    true,
	})

	if !strings.HasPrefix(out, "flowchart TD\n") {
		t.Errorf("expected TD direction:\n%s", out)
	}
	if !strings.Contains(out, `subgraph title["cmd #quot;v2#quot;"]`) {
		t.Errorf("expected escaped title:\n%s", out)
	}
	if !strings.Contains(out, "Node_t ==>|alias| Node") {
		t.Errorf("expected labeled edge:\n%s", out)
	}

	out = GenerateMermaid(FromTable(testTable()), &MermaidOptions{Direction: "sideways"})
	if !strings.HasPrefix(out, "flowchart LR\n") {
		t.Errorf("invalid direction should fall back to LR:\n%s", out)
	}
}

func TestSanitizeMermaidID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Node_t", "Node_t"},
		{"1wire", "_1wire"},
		{"a b", "a_b"},
		{"end", "_end"},
		{"", "_empty"},
	}
	for _, tt := range tests {
		if got := sanitizeMermaidID(tt.input); got != tt.expected {
			t.Errorf("sanitizeMermaidID(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
