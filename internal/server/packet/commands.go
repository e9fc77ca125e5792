package packet

import (
	"errors"
	"fmt"
	"io"

	mcnet "github.com/OCharnyshevich/obsidian/internal/server/net"
)

// NodeType is the low two bits of a command node's flags.
type NodeType uint8

const (
	NodeRoot     NodeType = 0
	NodeLiteral  NodeType = 1
	NodeArgument NodeType = 2
)

const (
	nodeTypeMask    = 0x03
	flagExecutable  = 0x04
	flagRedirect    = 0x08
	flagSuggestions = 0x10
)

// Argument parsers with a wire representation.
const (
	ParserString  = "brigadier:string"
	ParserInteger = "brigadier:integer"
	ParserBool    = "brigadier:bool"
)

// StringMode is the property of a brigadier:string argument.
type StringMode int32

const (
	StringSingleWord     StringMode = 0
	StringQuotablePhrase StringMode = 1
	StringGreedyPhrase   StringMode = 2
)

// Integer argument property flags.
const (
	IntegerHasMin uint8 = 0x01
	IntegerHasMax uint8 = 0x02
)

var ErrUnknownParser = errors.New("unknown argument parser")

// CommandNode is one entry of the DeclareCommands node list. Children and
// Redirect are indexes into that list.
type CommandNode struct {
	Type        NodeType
	Executable  bool
	Children    []int32
	HasRedirect bool
	Redirect    int32

	// Name is set for literal and argument nodes.
	Name string

	// Argument nodes only.
	Parser      string
	StringMode  StringMode
	IntFlags    uint8
	IntMin      int32
	IntMax      int32
	Suggestions string
}

// DeclareCommands sends the command tree used for client-side completion (clientbound 0x11).
type DeclareCommands struct {
	Nodes     []CommandNode
	RootIndex int32
}

func (DeclareCommands) PacketID() int32 { return 0x11 }

func (d *DeclareCommands) EncodePacket(w io.Writer) error {
	if _, err := mcnet.WriteVarInt(w, int32(len(d.Nodes))); err != nil {
		return err
	}
	for i := range d.Nodes {
		if err := d.Nodes[i].encode(w); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
	}
	_, err := mcnet.WriteVarInt(w, d.RootIndex)
	return err
}

func (d *DeclareCommands) DecodePacket(r io.Reader) error {
	count, _, err := mcnet.ReadVarInt(r)
	if err != nil {
		return fmt.Errorf("read node count: %w", err)
	}
	if count < 0 || count > mcnet.MaxPacketSize {
		return fmt.Errorf("node count out of range: %d", count)
	}

	d.Nodes = nil
	for i := range int(count) {
		var n CommandNode
		if err := n.decode(r); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		d.Nodes = append(d.Nodes, n)
	}

	if d.RootIndex, _, err = mcnet.ReadVarInt(r); err != nil {
		return fmt.Errorf("read root index: %w", err)
	}
	return nil
}

func (n *CommandNode) flags() uint8 {
	f := uint8(n.Type) & nodeTypeMask
	if n.Executable {
		f |= flagExecutable
	}
	if n.HasRedirect {
		f |= flagRedirect
	}
	if n.Type == NodeArgument && n.Suggestions != "" {
		f |= flagSuggestions
	}
	return f
}

func (n *CommandNode) encode(w io.Writer) error {
	if err := mcnet.WriteField(w, "u8", n.flags()); err != nil {
		return err
	}
	if _, err := mcnet.WriteVarInt(w, int32(len(n.Children))); err != nil {
		return err
	}
	for _, child := range n.Children {
		if _, err := mcnet.WriteVarInt(w, child); err != nil {
			return err
		}
	}
	if n.HasRedirect {
		if _, err := mcnet.WriteVarInt(w, n.Redirect); err != nil {
			return err
		}
	}
	if n.Type == NodeRoot {
		return nil
	}
	if _, err := mcnet.WriteString(w, n.Name); err != nil {
		return err
	}
	if n.Type == NodeLiteral {
		return nil
	}

	if _, err := mcnet.WriteString(w, n.Parser); err != nil {
		return err
	}
	switch n.Parser {
	case ParserString:
		if _, err := mcnet.WriteVarInt(w, int32(n.StringMode)); err != nil {
			return err
		}
	case ParserInteger:
		if err := mcnet.WriteField(w, "u8", n.IntFlags); err != nil {
			return err
		}
		if n.IntFlags&IntegerHasMin != 0 {
			if err := mcnet.WriteField(w, "i32", n.IntMin); err != nil {
				return err
			}
		}
		if n.IntFlags&IntegerHasMax != 0 {
			if err := mcnet.WriteField(w, "i32", n.IntMax); err != nil {
				return err
			}
		}
	case ParserBool:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParser, n.Parser)
	}

	if n.Suggestions != "" {
		if _, err := mcnet.WriteString(w, n.Suggestions); err != nil {
			return err
		}
	}
	return nil
}

func (n *CommandNode) decode(r io.Reader) error {
	flags, err := mcnet.ReadU8(r)
	if err != nil {
		return fmt.Errorf("read flags: %w", err)
	}
	n.Type = NodeType(flags & nodeTypeMask)
	n.Executable = flags&flagExecutable != 0
	n.HasRedirect = flags&flagRedirect != 0

	count, _, err := mcnet.ReadVarInt(r)
	if err != nil {
		return fmt.Errorf("read children count: %w", err)
	}
	if count < 0 || count > mcnet.MaxPacketSize {
		return fmt.Errorf("children count out of range: %d", count)
	}
	for range int(count) {
		child, _, err := mcnet.ReadVarInt(r)
		if err != nil {
			return fmt.Errorf("read child index: %w", err)
		}
		n.Children = append(n.Children, child)
	}

	if n.HasRedirect {
		if n.Redirect, _, err = mcnet.ReadVarInt(r); err != nil {
			return fmt.Errorf("read redirect: %w", err)
		}
	}

	switch n.Type {
	case NodeRoot:
		return nil
	case NodeLiteral, NodeArgument:
	default:
		return fmt.Errorf("invalid node type %d", n.Type)
	}

	if n.Name, err = mcnet.ReadString(r); err != nil {
		return fmt.Errorf("read name: %w", err)
	}
	if n.Type == NodeLiteral {
		return nil
	}

	if n.Parser, err = mcnet.ReadString(r); err != nil {
		return fmt.Errorf("read parser: %w", err)
	}
	switch n.Parser {
	case ParserString:
		mode, _, err := mcnet.ReadVarInt(r)
		if err != nil {
			return fmt.Errorf("read string mode: %w", err)
		}
		n.StringMode = StringMode(mode)
	case ParserInteger:
		if n.IntFlags, err = mcnet.ReadU8(r); err != nil {
			return fmt.Errorf("read integer flags: %w", err)
		}
		if n.IntFlags&IntegerHasMin != 0 {
			if n.IntMin, err = mcnet.ReadI32(r); err != nil {
				return fmt.Errorf("read integer min: %w", err)
			}
		}
		if n.IntFlags&IntegerHasMax != 0 {
			if n.IntMax, err = mcnet.ReadI32(r); err != nil {
				return fmt.Errorf("read integer max: %w", err)
			}
		}
	case ParserBool:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParser, n.Parser)
	}

	if flags&flagSuggestions != 0 {
		if n.Suggestions, err = mcnet.ReadString(r); err != nil {
			return fmt.Errorf("read suggestions: %w", err)
		}
	}
	return nil
}
