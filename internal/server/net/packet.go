package net

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// MaxPacketSize is the largest frame body accepted, the maximum value of a 3-byte VarInt.
const MaxPacketSize = 1<<21 - 1

var (
	ErrFrameTooLarge  = errors.New("packet too large")
	ErrFrameTooSmall  = errors.New("packet length too small")
	ErrBadCompression = errors.New("compressed packet size mismatch")
)

// Packet is anything that can be framed by its packet ID.
type Packet interface {
	PacketID() int32
}

// Codec frames packets on a byte stream. A connection picks one codec and
// switches only when compression is enabled during login.
type Codec interface {
	ReadPacket(r io.Reader) (packetID int32, data []byte, err error)
	WritePacket(w io.Writer, packetID int32, data []byte) error
	Compressed() bool
}

// NewCodec returns the plain codec for a negative threshold and a
// compressing codec otherwise.
func NewCodec(threshold int) Codec {
	if threshold < 0 {
		return PlainCodec{}
	}
	return &CompressedCodec{Threshold: threshold}
}

// PlainCodec reads and writes [length][packet id][data] frames.
type PlainCodec struct{}

func (PlainCodec) ReadPacket(r io.Reader) (int32, []byte, error) { return ReadRawPacket(r) }

func (PlainCodec) WritePacket(w io.Writer, packetID int32, data []byte) error {
	return WriteRawPacket(w, packetID, data)
}

func (PlainCodec) Compressed() bool { return false }

// readFrame reads one length-prefixed frame body.
func readFrame(r io.Reader) ([]byte, error) {
	length, n, err := ReadVarInt(r)
	if err != nil {
		if n > 0 && errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read packet length: %w", err)
	}
	if length < 1 {
		return nil, fmt.Errorf("%w: %d", ErrFrameTooSmall, length)
	}
	if length > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read packet payload: %w", err)
	}
	return body, nil
}

// splitID separates the leading packet ID from the packet data.
func splitID(body []byte) (int32, []byte, error) {
	br := bytes.NewReader(body)
	packetID, n, err := ReadVarInt(br)
	if err != nil {
		return 0, nil, fmt.Errorf("read packet ID: %w", err)
	}
	return packetID, body[n:], nil
}

// ReadRawPacket reads one uncompressed frame. It blocks until the whole
// frame has arrived or the reader fails.
func ReadRawPacket(r io.Reader) (packetID int32, data []byte, err error) {
	body, err := readFrame(r)
	if err != nil {
		return 0, nil, err
	}
	return splitID(body)
}

func WriteRawPacket(w io.Writer, packetID int32, data []byte) error {
	totalLen := VarIntSize(packetID) + len(data)
	if totalLen > MaxPacketSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, totalLen)
	}

	var buf bytes.Buffer
	buf.Grow(VarIntSize(int32(totalLen)) + totalLen)

	_, _ = WriteVarInt(&buf, int32(totalLen))
	_, _ = WriteVarInt(&buf, packetID)
	buf.Write(data)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("flush packet: %w", err)
	}
	return nil
}

// CompressedCodec reads and writes [length][data length][body] frames.
// Bodies shorter than Threshold are sent as-is with a data length of 0.
type CompressedCodec struct {
	Threshold int

	writers sync.Pool
}

func (c *CompressedCodec) Compressed() bool { return true }

func (c *CompressedCodec) ReadPacket(r io.Reader) (int32, []byte, error) {
	frame, err := readFrame(r)
	if err != nil {
		return 0, nil, err
	}

	fr := bytes.NewReader(frame)
	dataLength, n, err := ReadVarInt(fr)
	if err != nil {
		return 0, nil, fmt.Errorf("read data length: %w", err)
	}
	if dataLength == 0 {
		return splitID(frame[n:])
	}
	if dataLength < 0 || dataLength > MaxPacketSize {
		return 0, nil, fmt.Errorf("%w: uncompressed %d bytes", ErrFrameTooLarge, dataLength)
	}

	zr, err := zlib.NewReader(fr)
	if err != nil {
		return 0, nil, fmt.Errorf("open compressed packet: %w", err)
	}
	defer zr.Close()

	body := make([]byte, dataLength)
	if _, err := io.ReadFull(zr, body); err != nil {
		return 0, nil, fmt.Errorf("inflate packet: %w", err)
	}
	var extra [1]byte
	if m, _ := zr.Read(extra[:]); m != 0 {
		return 0, nil, fmt.Errorf("%w: more than %d bytes", ErrBadCompression, dataLength)
	}

	return splitID(body)
}

func (c *CompressedCodec) WritePacket(w io.Writer, packetID int32, data []byte) error {
	var body bytes.Buffer
	body.Grow(VarIntSize(packetID) + len(data))
	_, _ = WriteVarInt(&body, packetID)
	body.Write(data)

	if body.Len() > MaxPacketSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, body.Len())
	}

	var frame bytes.Buffer
	if body.Len() < c.Threshold {
		_, _ = WriteVarInt(&frame, int32(body.Len()+1))
		frame.WriteByte(0)
		frame.Write(body.Bytes())
	} else {
		var compressed bytes.Buffer
		if err := c.deflate(&compressed, body.Bytes()); err != nil {
			return fmt.Errorf("compress packet 0x%02X: %w", packetID, err)
		}
		dataLength := int32(body.Len())
		_, _ = WriteVarInt(&frame, int32(VarIntSize(dataLength)+compressed.Len()))
		_, _ = WriteVarInt(&frame, dataLength)
		frame.Write(compressed.Bytes())
	}

	if _, err := w.Write(frame.Bytes()); err != nil {
		return fmt.Errorf("flush packet: %w", err)
	}
	return nil
}

func (c *CompressedCodec) deflate(dst *bytes.Buffer, src []byte) error {
	zw, ok := c.writers.Get().(*zlib.Writer)
	if ok {
		zw.Reset(dst)
	} else {
		var err error
		zw, err = zlib.NewWriterLevel(dst, zlib.DefaultCompression)
		if err != nil {
			return err
		}
	}
	defer c.writers.Put(zw)

	if _, err := zw.Write(src); err != nil {
		return err
	}
	return zw.Close()
}

// Encode marshals p and returns its ID and data.
func Encode(p Packet) (int32, []byte, error) {
	data, err := Marshal(p)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal packet 0x%02X: %w", p.PacketID(), err)
	}
	return p.PacketID(), data, nil
}

// WritePacket marshals p and writes it as an uncompressed frame.
func WritePacket(w io.Writer, p Packet) error {
	id, data, err := Encode(p)
	if err != nil {
		return err
	}
	return WriteRawPacket(w, id, data)
}

// ReadPacket reads one uncompressed frame into p, which must have the same ID.
func ReadPacket(r io.Reader, p Packet) error {
	packetID, data, err := ReadRawPacket(r)
	if err != nil {
		return err
	}
	if packetID != p.PacketID() {
		return fmt.Errorf("expected packet 0x%02X, got 0x%02X", p.PacketID(), packetID)
	}
	return Unmarshal(data, p)
}
