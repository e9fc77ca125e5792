package command

import (
	"errors"
	"fmt"

	"github.com/OCharnyshevich/obsidian/internal/server/packet"
)

var ErrUnsupportedParameter = errors.New("unsupported command parameter type")

// BuildTree renders the catalog as a DeclareCommands node list: the root,
// one literal per command and a chain of argument nodes under it. The last
// node of each command is executable. It fails when a parameter type has
// no wire parser.
func BuildTree(c *Catalog) (*packet.DeclareCommands, error) {
	nodes := []packet.CommandNode{{Type: packet.NodeRoot}}

	for _, cmd := range c.Commands() {
		literal := int32(len(nodes))
		nodes[0].Children = append(nodes[0].Children, literal)
		nodes = append(nodes, packet.CommandNode{Type: packet.NodeLiteral, Name: cmd.Name})

		parent := literal
		for i, p := range cmd.Params {
			node, err := argumentNode(p, i == len(cmd.Params)-1)
			if err != nil {
				return nil, fmt.Errorf("/%s: %w", cmd.Name, err)
			}
			idx := int32(len(nodes))
			nodes[parent].Children = append(nodes[parent].Children, idx)
			nodes = append(nodes, node)
			parent = idx
		}
		nodes[parent].Executable = true
	}

	return &packet.DeclareCommands{Nodes: nodes, RootIndex: 0}, nil
}

func argumentNode(p Param, last bool) (packet.CommandNode, error) {
	node := packet.CommandNode{Type: packet.NodeArgument, Name: p.Name}
	switch p.Type {
	case String:
		node.Parser = packet.ParserString
		node.StringMode = packet.StringSingleWord
		if last {
			node.StringMode = packet.StringGreedyPhrase
		}
	case Integer:
		node.Parser = packet.ParserInteger
	case Bool:
		node.Parser = packet.ParserBool
	default:
		return packet.CommandNode{}, fmt.Errorf("%w: <%s> is %s", ErrUnsupportedParameter, p.Name, p.Type)
	}
	return node, nil
}
