// Package command holds the chat command catalog and its argument parser.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/OCharnyshevich/obsidian/internal/server/chat"
	"github.com/OCharnyshevich/obsidian/internal/server/player"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrBadArguments     = errors.New("bad arguments")
	ErrDuplicateCommand = errors.New("command already registered")
)

// ParamType is the declared type of a command parameter.
type ParamType int

const (
	String ParamType = iota
	Integer
	Bool
	Double
	Player
)

func (t ParamType) String() string {
	switch t {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Bool:
		return "bool"
	case Double:
		return "double"
	case Player:
		return "player"
	default:
		return fmt.Sprintf("param(%d)", int(t))
	}
}

type Param struct {
	Name string
	Type ParamType
}

// Sender is whoever typed the command.
type Sender interface {
	Name() string
	SendMessage(msg chat.Message) error
	Teleport(x, y, z float64) error
}

// Invocation carries the parsed arguments of one command run.
type Invocation struct {
	Sender  Sender
	Catalog *Catalog
	Players *player.Manager
	Args    []any
}

func (inv *Invocation) String(i int) string          { return inv.Args[i].(string) }
func (inv *Invocation) Int(i int) int32              { return inv.Args[i].(int32) }
func (inv *Invocation) Bool(i int) bool              { return inv.Args[i].(bool) }
func (inv *Invocation) Float(i int) float64          { return inv.Args[i].(float64) }
func (inv *Invocation) Player(i int) *player.Player  { return inv.Args[i].(*player.Player) }
func (inv *Invocation) Reply(msg chat.Message) error { return inv.Sender.SendMessage(msg) }

type Command struct {
	Name        string
	Description string
	Params      []Param
	Run         func(ctx context.Context, inv *Invocation) error
}

// Usage renders "/name <a> <b>".
func (c *Command) Usage() string {
	var b strings.Builder
	b.WriteString("/" + c.Name)
	for _, p := range c.Params {
		b.WriteString(" <" + p.Name + ">")
	}
	return b.String()
}

// Catalog is the ordered set of registered commands. It is read-only once
// the server starts accepting connections.
type Catalog struct {
	mu       sync.RWMutex
	commands []*Command
	byName   map[string]*Command
	players  *player.Manager
}

// NewCatalog creates an empty catalog. players resolves Player arguments.
func NewCatalog(players *player.Manager) *Catalog {
	return &Catalog{
		byName:  make(map[string]*Command),
		players: players,
	}
}

func (c *Catalog) Register(cmd *Command) error {
	name := strings.ToLower(cmd.Name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	c.byName[name] = cmd
	c.commands = append(c.commands, cmd)
	return nil
}

// Commands returns the registered commands in registration order.
func (c *Catalog) Commands() []*Command {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Command, len(c.commands))
	copy(out, c.commands)
	return out
}

func (c *Catalog) Get(name string) (*Command, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cmd, ok := c.byName[strings.ToLower(name)]
	return cmd, ok
}

// Execute parses line ("/name args...", leading slash optional) and runs
// the matching command.
func (c *Catalog) Execute(ctx context.Context, sender Sender, line string) error {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty command", ErrUnknownCommand)
	}

	cmd, ok := c.Get(fields[0])
	if !ok {
		return fmt.Errorf("%w: /%s", ErrUnknownCommand, strings.ToLower(fields[0]))
	}

	args, err := c.parseArgs(cmd, fields[1:])
	if err != nil {
		return err
	}

	return cmd.Run(ctx, &Invocation{
		Sender:  sender,
		Catalog: c,
		Players: c.players,
		Args:    args,
	})
}

// parseArgs converts raw words to typed values. A trailing String
// parameter swallows the rest of the line.
func (c *Catalog) parseArgs(cmd *Command, words []string) ([]any, error) {
	n := len(cmd.Params)
	greedy := n > 0 && cmd.Params[n-1].Type == String
	if len(words) < n || (!greedy && len(words) > n) {
		return nil, fmt.Errorf("%w: usage %s", ErrBadArguments, cmd.Usage())
	}

	args := make([]any, n)
	for i, p := range cmd.Params {
		word := words[i]
		if greedy && i == n-1 {
			word = strings.Join(words[i:], " ")
		}

		v, err := c.parseArg(p, word)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadArguments, cmd.Usage(), err)
		}
		args[i] = v
	}
	return args, nil
}

func (c *Catalog) parseArg(p Param, word string) (any, error) {
	switch p.Type {
	case String:
		return word, nil
	case Integer:
		v, err := strconv.ParseInt(word, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("<%s> must be an integer, got %q", p.Name, word)
		}
		return int32(v), nil
	case Bool:
		v, err := strconv.ParseBool(word)
		if err != nil {
			return nil, fmt.Errorf("<%s> must be true or false, got %q", p.Name, word)
		}
		return v, nil
	case Double:
		v, err := strconv.ParseFloat(word, 64)
		if err != nil {
			return nil, fmt.Errorf("<%s> must be a number, got %q", p.Name, word)
		}
		return v, nil
	case Player:
		if c.players == nil {
			return nil, fmt.Errorf("<%s>: no player registry", p.Name)
		}
		pl, ok := c.players.Lookup(word)
		if !ok {
			return nil, fmt.Errorf("player %q is not online", word)
		}
		return pl, nil
	default:
		return nil, fmt.Errorf("<%s> has unknown type %s", p.Name, p.Type)
	}
}
