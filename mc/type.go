package mc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/OwenCochell/mctools/core"
)

// A Field is both FieldEncoder and FieldDecoder
type Field interface {
	FieldEncoder
	FieldDecoder
}

// A FieldEncoder can be encode as minecraft protocol used.
type FieldEncoder interface {
	Encode() []byte
}

// A FieldDecoder can Decode from minecraft protocol
type FieldDecoder interface {
	Decode(r DecodeReader) error
}

//DecodeReader is both io.Reader and io.ByteReader
type DecodeReader interface {
	io.ByteReader
	io.Reader
}

// DefaultMaxNulScan bounds how far a NUL terminated string is searched for its terminator.
const DefaultMaxNulScan = 1 << 16

type (
	// Byte is signed 8-bit integer, two's complement
	Byte int8
	// UnsignedShort is unsigned 16-bit integer, big endian
	UnsignedShort uint16
	// LittleUnsignedShort is unsigned 16-bit integer, little endian
	LittleUnsignedShort uint16
	// Int is signed 32-bit integer, big endian
	Int int32
	// LittleInt is signed 32-bit integer, little endian
	LittleInt int32
	// Long is signed 64-bit integer, big endian
	Long int64
	// String is sequence of Unicode scalar values
	String string
	// NulString is a byte string terminated by a single 0x00
	NulString string
	// VarInt is variable-length data encoding a two's complement signed 32-bit integer
	VarInt int32
)

// truncated turns running out of input into a malformed packet, other read errors
// (timeouts, closed connections) are returned as they are.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return core.Malformed("truncated data", err)
	}
	return err
}

// ReadNBytes read N bytes from bytes.Reader
func ReadNBytes(r DecodeReader, n int) ([]byte, error) {
	bb := make([]byte, n)
	if _, err := io.ReadFull(r, bb); err != nil {
		return nil, truncated(err)
	}
	return bb, nil
}

// ReadNulString reads up to and including the next 0x00 and returns everything before it.
// It fails when no terminator shows up within max bytes.
func ReadNulString(r DecodeReader, max int) ([]byte, error) {
	var buf bytes.Buffer
	for i := 0; i < max; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return nil, truncated(err)
		}
		if b == 0x00 {
			return buf.Bytes(), nil
		}
		buf.WriteByte(b)
	}
	return nil, core.Malformed(fmt.Sprintf("no string terminator within %d bytes", max), nil)
}

// Latin1 decodes bytes one rune per byte, the charset query strings are sent in.
func Latin1(bb []byte) string {
	runes := make([]rune, len(bb))
	for i, b := range bb {
		runes[i] = rune(b)
	}
	return string(runes)
}

// Encode a String
func (s String) Encode() []byte {
	byteString := []byte(s)
	var bb []byte
	bb = append(bb, VarInt(len(byteString)).Encode()...) // len
	bb = append(bb, byteString...)                       // data
	return bb
}

// Decode a String
func (s *String) Decode(r DecodeReader) error {
	var l VarInt // String length
	if err := l.Decode(r); err != nil {
		return err
	}
	if l < 0 {
		return core.Malformed("negative string length", nil)
	}

	bb, err := ReadNBytes(r, int(l))
	if err != nil {
		return err
	}

	*s = String(bb)
	return nil
}

// Encode a NulString
func (s NulString) Encode() []byte {
	return append([]byte(s), 0x00)
}

// Decode a NulString
func (s *NulString) Decode(r DecodeReader) error {
	bb, err := ReadNulString(r, DefaultMaxNulScan)
	if err != nil {
		return err
	}
	*s = NulString(bb)
	return nil
}

// Encode a Byte
func (b Byte) Encode() []byte {
	return []byte{byte(b)}
}

// Decode a Byte
func (b *Byte) Decode(r DecodeReader) error {
	v, err := r.ReadByte()
	if err != nil {
		return truncated(err)
	}
	*b = Byte(v)
	return nil
}

// Encode a Unsigned Short
func (us UnsignedShort) Encode() []byte {
	n := uint16(us)
	return []byte{
		byte(n >> 8),
		byte(n),
	}
}

// Decode a UnsignedShort
func (us *UnsignedShort) Decode(r DecodeReader) error {
	bb, err := ReadNBytes(r, 2)
	if err != nil {
		return err
	}

	*us = UnsignedShort(uint16(bb[0])<<8 | uint16(bb[1]))
	return nil
}

// Encode a LittleUnsignedShort
func (us LittleUnsignedShort) Encode() []byte {
	n := uint16(us)
	return []byte{
		byte(n),
		byte(n >> 8),
	}
}

// Decode a LittleUnsignedShort
func (us *LittleUnsignedShort) Decode(r DecodeReader) error {
	bb, err := ReadNBytes(r, 2)
	if err != nil {
		return err
	}

	*us = LittleUnsignedShort(uint16(bb[1])<<8 | uint16(bb[0]))
	return nil
}

// Encode an Int
func (i Int) Encode() []byte {
	n := uint32(i)
	return []byte{
		byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
	}
}

// Decode an Int
func (i *Int) Decode(r DecodeReader) error {
	bb, err := ReadNBytes(r, 4)
	if err != nil {
		return err
	}
	*i = Int(uint32(bb[0])<<24 | uint32(bb[1])<<16 | uint32(bb[2])<<8 | uint32(bb[3]))
	return nil
}

// Encode a LittleInt
func (i LittleInt) Encode() []byte {
	n := uint32(i)
	return []byte{
		byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24),
	}
}

// Decode a LittleInt
func (i *LittleInt) Decode(r DecodeReader) error {
	bb, err := ReadNBytes(r, 4)
	if err != nil {
		return err
	}
	*i = LittleInt(uint32(bb[3])<<24 | uint32(bb[2])<<16 | uint32(bb[1])<<8 | uint32(bb[0]))
	return nil
}

// Encode a Long
func (l Long) Encode() []byte {
	n := uint64(l)
	return []byte{
		byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32),
		byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
	}
}

// Decode a Long
func (l *Long) Decode(r DecodeReader) error {
	bb, err := ReadNBytes(r, 8)
	if err != nil {
		return err
	}
	var n uint64
	for _, b := range bb {
		n = n<<8 | uint64(b)
	}
	*l = Long(n)
	return nil
}

// Encode a VarInt
func (v VarInt) Encode() []byte {
	num := uint32(v)
	var bb []byte
	for {
		b := num & 0x7F
		num >>= 7
		if num != 0 {
			b |= 0x80
		}
		bb = append(bb, byte(b))
		if num == 0 {
			break
		}
	}
	return bb
}

// Decode a VarInt
func (v *VarInt) Decode(r DecodeReader) error {
	var n uint32
	for i := 0; ; i++ {
		if i >= 5 {
			return core.Malformed("VarInt is too big", nil)
		}
		sec, err := r.ReadByte()
		if err != nil {
			return truncated(err)
		}

		n |= uint32(sec&0x7F) << uint32(7*i)

		if sec&0x80 == 0 {
			break
		}
	}

	*v = VarInt(n)
	return nil
}
