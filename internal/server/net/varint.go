package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

const (
	// MaxStringLength is the largest string the protocol allows, in UTF-16 units.
	MaxStringLength = 32767

	maxVarIntBytes  = 5
	maxVarLongBytes = 10
)

var (
	ErrVarIntTooLong  = errors.New("VarInt too long")
	ErrVarLongTooLong = errors.New("VarLong too long")
)

// readByte reads one byte, using io.ByteReader when the reader supports it.
func readByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadVarInt reads a VarInt and returns the value and the number of bytes consumed.
func ReadVarInt(r io.Reader) (int32, int, error) {
	var result uint32
	for n := 0; n < maxVarIntBytes; n++ {
		b, err := readByte(r)
		if err != nil {
			if n > 0 && err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, n, err
		}
		result |= uint32(b&0x7F) << (7 * n)
		if b&0x80 == 0 {
			return int32(result), n + 1, nil
		}
	}
	return 0, maxVarIntBytes, ErrVarIntTooLong
}

func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [maxVarIntBytes]byte
	n := PutVarInt(buf[:], value)
	return w.Write(buf[:n])
}

// PutVarInt encodes value into buf and returns the number of bytes written.
// buf must hold at least 5 bytes.
func PutVarInt(buf []byte, value int32) int {
	val := uint32(value)
	n := 0
	for {
		b := byte(val & 0x7F)
		val >>= 7
		if val != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if val == 0 {
			return n
		}
	}
}

// VarIntSize returns the encoded length of value.
func VarIntSize(value int32) int {
	val := uint32(value)
	size := 1
	for val >= 0x80 {
		val >>= 7
		size++
	}
	return size
}

func ReadVarLong(r io.Reader) (int64, int, error) {
	var result uint64
	for n := 0; n < maxVarLongBytes; n++ {
		b, err := readByte(r)
		if err != nil {
			if n > 0 && err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, n, err
		}
		result |= uint64(b&0x7F) << (7 * n)
		if b&0x80 == 0 {
			return int64(result), n + 1, nil
		}
	}
	return 0, maxVarLongBytes, ErrVarLongTooLong
}

func WriteVarLong(w io.Writer, value int64) (int, error) {
	var buf [maxVarLongBytes]byte
	val := uint64(value)
	n := 0
	for {
		b := byte(val & 0x7F)
		val >>= 7
		if val != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if val == 0 {
			break
		}
	}
	return w.Write(buf[:n])
}

// EncodePosition packs block coordinates as x:26 | y:12 | z:26 bits.
func EncodePosition(x, y, z int) int64 {
	return (int64(x)&0x3FFFFFF)<<38 | (int64(y)&0xFFF)<<26 | int64(z)&0x3FFFFFF
}

func DecodePosition(val int64) (x, y, z int) {
	x = int(val >> 38)
	y = int((val >> 26) & 0xFFF)
	z = int(val & 0x3FFFFFF)

	if y >= 1<<11 {
		y -= 1 << 12
	}
	if z >= 1<<25 {
		z -= 1 << 26
	}
	return
}

func ReadString(r io.Reader) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	if length < 0 || length > MaxStringLength*4 {
		return "", fmt.Errorf("string length out of range: %d", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read string data: %w", err)
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("string is not valid UTF-8")
	}
	return string(buf), nil
}

func WriteString(w io.Writer, s string) (int, error) {
	if len(s) > MaxStringLength*4 {
		return 0, fmt.Errorf("string too long: %d bytes", len(s))
	}
	n1, err := WriteVarInt(w, int32(len(s)))
	if err != nil {
		return n1, err
	}
	n2, err := io.WriteString(w, s)
	return n1 + n2, err
}

func ReadByteArray(r io.Reader) ([]byte, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("read byte array length: %w", err)
	}
	if length < 0 || length > MaxPacketSize {
		return nil, fmt.Errorf("byte array length out of range: %d", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read byte array data: %w", err)
	}
	return buf, nil
}

func WriteByteArray(w io.Writer, data []byte) (int, error) {
	n1, err := WriteVarInt(w, int32(len(data)))
	if err != nil {
		return n1, err
	}
	n2, err := w.Write(data)
	return n1 + n2, err
}

func ReadUUID(r io.Reader) ([16]byte, error) {
	var id [16]byte
	_, err := io.ReadFull(r, id[:])
	return id, err
}

func WriteUUID(w io.Writer, id [16]byte) (int, error) {
	return w.Write(id[:])
}

func ReadI8(r io.Reader) (int8, error) {
	b, err := ReadU8(r)
	return int8(b), err
}

func ReadU8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func ReadI16(r io.Reader) (int16, error) {
	v, err := ReadU16(r)
	return int16(v), err
}

func ReadU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func ReadI32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func ReadI64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func ReadF32(r io.Reader) (float32, error) {
	v, err := ReadI32(r)
	return math.Float32frombits(uint32(v)), err
}

func ReadF64(r io.Reader) (float64, error) {
	v, err := ReadI64(r)
	return math.Float64frombits(uint64(v)), err
}

func ReadBool(r io.Reader) (bool, error) {
	b, err := ReadU8(r)
	return b != 0, err
}
