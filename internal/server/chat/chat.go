// Package chat builds JSON text components for chat, disconnect and status packets.
package chat

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Colors used by server messages.
const (
	ColorGold   = "gold"
	ColorYellow = "yellow"
	ColorRed    = "red"
	ColorGray   = "gray"
	ColorGreen  = "green"
)

// Message is a text component. Zero fields are omitted on the wire.
type Message struct {
	Text   string    `json:"text"`
	Color  string    `json:"color,omitempty"`
	Bold   bool      `json:"bold,omitempty"`
	Italic bool      `json:"italic,omitempty"`
	Extra  []Message `json:"extra,omitempty"`
}

func Simple(text string) Message { return Message{Text: text} }

func Colored(text, color string) Message { return Message{Text: text, Color: color} }

// Append adds child components rendered after m.
func (m Message) Append(extra ...Message) Message {
	m.Extra = append(append([]Message(nil), m.Extra...), extra...)
	return m
}

// JSON encodes the component without HTML escaping, so "<name>" stays readable.
func (m Message) JSON() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(m)
	return strings.TrimSuffix(buf.String(), "\n")
}

// PlainText flattens the component and its children.
func (m Message) PlainText() string {
	s := m.Text
	for _, e := range m.Extra {
		s += e.PlainText()
	}
	return s
}

// Parse decodes a JSON component. A bare JSON string is accepted as text.
func Parse(data string) (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		var s string
		if json.Unmarshal([]byte(data), &s) == nil {
			return Simple(s), nil
		}
		return Message{}, err
	}
	return m, nil
}
