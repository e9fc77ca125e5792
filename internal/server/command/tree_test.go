package command

import (
	"context"
	"errors"
	"testing"

	"github.com/OCharnyshevich/obsidian/internal/server/packet"
)

func noop(context.Context, *Invocation) error { return nil }

func TestBuildTree(t *testing.T) {
	c := NewCatalog(nil)
	_ = c.Register(&Command{Name: "help", Run: noop})
	_ = c.Register(&Command{Name: "tp", Params: []Param{{"x", Integer}, {"y", Integer}, {"z", Integer}}, Run: noop})
	_ = c.Register(&Command{Name: "msg", Params: []Param{{"to", String}, {"silent", Bool}, {"text", String}}, Run: noop})

	dc, err := BuildTree(c)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	nodes := dc.Nodes
	if dc.RootIndex != 0 || nodes[0].Type != packet.NodeRoot {
		t.Fatalf("root = %+v at %d", nodes[dc.RootIndex], dc.RootIndex)
	}
	if len(nodes[0].Children) != 3 {
		t.Fatalf("root has %d children, want 3", len(nodes[0].Children))
	}

	// Walk each command from its literal down the argument chain.
	want := map[string][]string{
		"help": nil,
		"tp":   {packet.ParserInteger, packet.ParserInteger, packet.ParserInteger},
		"msg":  {packet.ParserString, packet.ParserBool, packet.ParserString},
	}
	for _, li := range nodes[0].Children {
		lit := nodes[li]
		if lit.Type != packet.NodeLiteral {
			t.Fatalf("root child %d is %v", li, lit.Type)
		}
		parsers, ok := want[lit.Name]
		if !ok {
			t.Fatalf("unexpected literal %q", lit.Name)
		}

		cur := lit
		for i, parser := range parsers {
			if cur.Executable {
				t.Errorf("/%s: node before argument %d is executable", lit.Name, i)
			}
			if len(cur.Children) != 1 {
				t.Fatalf("/%s: node has %d children", lit.Name, len(cur.Children))
			}
			cur = nodes[cur.Children[0]]
			if cur.Type != packet.NodeArgument || cur.Parser != parser {
				t.Errorf("/%s arg %d = %+v, want %s", lit.Name, i, cur, parser)
			}
		}
		if !cur.Executable || len(cur.Children) != 0 {
			t.Errorf("/%s: last node %+v must be an executable leaf", lit.Name, cur)
		}
	}

	// Only the trailing string is greedy.
	msgTo := nodes[nodes[0].Children[2]+1]
	msgText := nodes[len(nodes)-1]
	if msgTo.StringMode != packet.StringSingleWord || msgText.StringMode != packet.StringGreedyPhrase {
		t.Errorf("string modes = %d, %d", msgTo.StringMode, msgText.StringMode)
	}

	// The tree must encode.
	if _, _, err := packet.Encode(dc); err != nil {
		t.Fatalf("Encode: %v", err)
	}
}

func TestBuildTreeUnsupportedParameter(t *testing.T) {
	for _, pt := range []ParamType{Double, Player} {
		c := NewCatalog(nil)
		_ = c.Register(&Command{Name: "help", Run: noop})
		_ = c.Register(&Command{Name: "bad", Params: []Param{{"arg", pt}}, Run: noop})

		dc, err := BuildTree(c)
		if !errors.Is(err, ErrUnsupportedParameter) {
			t.Errorf("%s: expected ErrUnsupportedParameter, got %v", pt, err)
		}
		if dc != nil {
			t.Errorf("%s: partial tree returned", pt)
		}
	}
}

func TestBuildTreeBuiltins(t *testing.T) {
	c := NewCatalog(nil)
	if err := RegisterBuiltins(c); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	if _, err := BuildTree(c); err != nil {
		t.Fatalf("builtins must have wire parsers: %v", err)
	}
}
