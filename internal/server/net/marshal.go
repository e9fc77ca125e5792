package net

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
)

const tagName = "mc"

// Encoder is implemented by packets whose layout cannot be described with
// mc struct tags.
type Encoder interface {
	EncodePacket(w io.Writer) error
}

// Decoder is the reading side of Encoder.
type Decoder interface {
	DecodePacket(r io.Reader) error
}

// Marshal encodes a Packet struct into bytes using mc struct tags.
func Marshal(p Packet) ([]byte, error) {
	var buf bytes.Buffer
	if enc, ok := p.(Encoder); ok {
		if err := enc.EncodePacket(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	v := reflect.ValueOf(p)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("marshal: expected struct, got %s", v.Kind())
	}

	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}

		if err := WriteField(&buf, tag, v.Field(i).Interface()); err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", field.Name, err)
		}
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes bytes into a Packet struct using mc struct tags.
// A payload shorter than the fields require fails with io.ErrUnexpectedEOF or io.EOF.
func Unmarshal(data []byte, p Packet) error {
	r := bytes.NewReader(data)
	if dec, ok := p.(Decoder); ok {
		return dec.DecodePacket(r)
	}

	v := reflect.ValueOf(p)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("unmarshal: expected non-nil pointer, got %T", p)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal: expected pointer to struct, got pointer to %s", v.Kind())
	}

	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}

		val, err := ReadField(r, tag)
		if err != nil {
			return fmt.Errorf("unmarshal field %s: %w", field.Name, err)
		}

		fv := v.Field(i)
		rv := reflect.ValueOf(val)
		if !rv.Type().ConvertibleTo(fv.Type()) {
			return fmt.Errorf("unmarshal field %s: cannot assign %s to %s", field.Name, rv.Type(), fv.Type())
		}
		fv.Set(rv.Convert(fv.Type()))
	}

	return nil
}

// WriteField writes val using the wire type named by tag. Named types are
// accepted as long as their underlying kind matches the tag.
func WriteField(w io.Writer, tag string, val any) error {
	rv := reflect.ValueOf(val)
	switch tag {
	case "varint":
		_, err := WriteVarInt(w, int32(rv.Int()))
		return err
	case "varlong":
		_, err := WriteVarLong(w, rv.Int())
		return err
	case "i8":
		return writeU8(w, uint8(rv.Int()))
	case "u8":
		return writeU8(w, uint8(rv.Uint()))
	case "i16":
		return binary.Write(w, binary.BigEndian, int16(rv.Int()))
	case "u16":
		return binary.Write(w, binary.BigEndian, uint16(rv.Uint()))
	case "i32":
		return binary.Write(w, binary.BigEndian, int32(rv.Int()))
	case "i64", "position":
		return binary.Write(w, binary.BigEndian, rv.Int())
	case "f32":
		return binary.Write(w, binary.BigEndian, math.Float32bits(float32(rv.Float())))
	case "f64":
		return binary.Write(w, binary.BigEndian, math.Float64bits(rv.Float()))
	case "bool":
		if rv.Bool() {
			return writeU8(w, 1)
		}
		return writeU8(w, 0)
	case "string":
		_, err := WriteString(w, rv.String())
		return err
	case "uuid":
		id := rv.Convert(reflect.TypeOf([16]byte{})).Interface().([16]byte)
		_, err := WriteUUID(w, id)
		return err
	case "bytearray":
		_, err := WriteByteArray(w, rv.Bytes())
		return err
	case "rest":
		_, err := w.Write(rv.Bytes())
		return err
	default:
		return fmt.Errorf("unknown field tag: %q", tag)
	}
}

func ReadField(r io.Reader, tag string) (any, error) {
	switch tag {
	case "varint":
		v, _, err := ReadVarInt(r)
		return v, err
	case "varlong":
		v, _, err := ReadVarLong(r)
		return v, err
	case "i8":
		return ReadI8(r)
	case "u8":
		return ReadU8(r)
	case "i16":
		return ReadI16(r)
	case "u16":
		return ReadU16(r)
	case "i32":
		return ReadI32(r)
	case "i64", "position":
		return ReadI64(r)
	case "f32":
		return ReadF32(r)
	case "f64":
		return ReadF64(r)
	case "bool":
		return ReadBool(r)
	case "string":
		return ReadString(r)
	case "uuid":
		return ReadUUID(r)
	case "bytearray":
		return ReadByteArray(r)
	case "rest":
		return io.ReadAll(r)
	default:
		return nil, fmt.Errorf("unknown field tag: %q", tag)
	}
}

func writeU8(w io.Writer, b uint8) error {
	_, err := w.Write([]byte{b})
	return err
}
