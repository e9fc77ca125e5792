package net

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"unicode/utf16"
)

// LegacyPingByte is the first byte sent by pre-Netty clients pinging the server list.
const LegacyPingByte = 0xFE

// IsLegacyPing peeks at the first buffered byte without consuming it.
func IsLegacyPing(r *bufio.Reader) (bool, error) {
	b, err := r.Peek(1)
	if err != nil {
		return false, err
	}
	return b[0] == LegacyPingByte, nil
}

// LegacyStatus holds the fields of the pre-Netty server list reply.
type LegacyStatus struct {
	Protocol   int32
	Version    string
	MOTD       string
	Online     int
	MaxPlayers int
}

// WriteLegacyKick writes the 0xFF kick packet that legacy clients read as a status reply.
func WriteLegacyKick(w io.Writer, st LegacyStatus) error {
	msg := "§1\x00" + strconv.Itoa(int(st.Protocol)) + "\x00" + st.Version + "\x00" +
		st.MOTD + "\x00" + strconv.Itoa(st.Online) + "\x00" + strconv.Itoa(st.MaxPlayers)
	units := utf16.Encode([]rune(msg))
	if len(units) > 0xFFFF {
		return fmt.Errorf("legacy status too long: %d units", len(units))
	}

	var buf bytes.Buffer
	buf.WriteByte(0xFF)
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(units)))
	_ = binary.Write(&buf, binary.BigEndian, units)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write legacy kick: %w", err)
	}
	return nil
}
