package test

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// DecodeHexString is a helper function for tests that decodes hex strings. It doesn't return
// an error value, which makes it usable inline.
func DecodeHexString(hexData string) []byte {
	// Strip off any leading/trailing whitespace in hex string
	hexData = strings.TrimSpace(hexData)
	decoded, err := hex.DecodeString(hexData)
	if err != nil {
		panic(fmt.Sprintf("error decoding hex: %s", err))
	}
	return decoded
}

// U16 encodes a little-endian uint16
func U16(v uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}

// U32 encodes a little-endian uint32
func U32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

// U64 encodes a little-endian uint64
func U64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

// F32 encodes a little-endian float32
func F32(v float32) []byte {
	return U32(math.Float32bits(v))
}

// ZString encodes a NUL-terminated string
func ZString(s string) []byte {
	return append([]byte(s), 0)
}

// FixedString encodes a string into a zero-padded slot of the given width,
// panicking if it doesn't fit. Test data is always well-formed.
func FixedString(s string, width int) []byte {
	if len(s) > width {
		panic(fmt.Sprintf("string %q exceeds slot width %d", s, width))
	}
	buf := make([]byte, width)
	copy(buf, s)
	return buf
}

// Concat joins byte chunks into a single stream
func Concat(chunks ...[]byte) []byte {
	var out []byte
	for _, chunk := range chunks {
		out = append(out, chunk...)
	}
	return out
}

// EncodeField frames a field: tag, little-endian size, payload
func EncodeField(tag string, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+8)
	out = append(out, []byte(tag)...)
	out = append(out, U32(uint32(len(payload)))...)
	return append(out, payload...)
}

// EncodeRecord frames a record: tag, little-endian body size, body
func EncodeRecord(tag string, fields ...[]byte) []byte {
	body := Concat(fields...)
	out := make([]byte, 0, len(body)+8)
	out = append(out, []byte(tag)...)
	out = append(out, U32(uint32(len(body)))...)
	return append(out, body...)
}

// EncodeGroup frames a group: GRUP marker, total size including the 20-byte
// header, raw label, type code, stamp, children
func EncodeGroup(label []byte, typeCode uint32, stamp uint32, children ...[]byte) []byte {
	body := Concat(children...)
	out := make([]byte, 0, len(body)+20)
	out = append(out, []byte("GRUP")...)
	out = append(out, U32(uint32(len(body)+20))...)
	out = append(out, label...)
	out = append(out, U32(typeCode)...)
	out = append(out, U32(stamp)...)
	return append(out, body...)
}
