// Copyright 2025 OpenModKit Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// Field is the leaf element of both plugin formats: a 4-byte tag followed
// by a size-prefixed raw payload. Interpretation of the payload is up to
// the caller via the typed accessors
type Field struct {
	tag  Tag
	data []byte
}

func NewField(tag Tag, data []byte) *Field {
	return &Field{
		tag:  tag,
		data: data,
	}
}

// ReadField reads a single field from the stream and returns it along with
// the number of bytes consumed
func ReadField(r io.Reader) (*Field, int64, error) {
	var tag Tag
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, 0, err
	}
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, 0, fmt.Errorf("field %s: reading size: %w", tag, err)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, 0, fmt.Errorf("field %s: reading payload: %w", tag, err)
	}
	return NewField(tag, data), int64(size) + 8, nil
}

func (f *Field) Tag() Tag {
	return f.tag
}

// Data returns the raw payload. The returned slice is the field's backing
// storage and must not be modified except through Set
func (f *Field) Data() []byte {
	return f.data
}

// Set replaces the payload. This is the only mutation a field supports
func (f *Field) Set(data []byte) {
	f.data = data
}

// EncodedLen returns the on-wire size of the field including its 8-byte
// header
func (f *Field) EncodedLen() int64 {
	return int64(len(f.data)) + 8
}

// WriteTo re-encodes the field. The size prefix is always derived from the
// current payload length
func (f *Field) WriteTo(w io.Writer) (int64, error) {
	var hdr [8]byte
	copy(hdr[0:4], f.tag[:])
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(f.data)))
	n, err := w.Write(hdr[:])
	if err := checkWrite(n, len(hdr), err); err != nil {
		return int64(n), err
	}
	n2, err := w.Write(f.data)
	if err := checkWrite(n2, len(f.data), err); err != nil {
		return int64(n) + int64(n2), err
	}
	return int64(n) + int64(n2), nil
}

func (f *Field) Uint8() (uint8, error) {
	if len(f.data) != 1 {
		return 0, PayloadSizeError{Tag: f.tag, Expected: 1, Actual: len(f.data)}
	}
	return f.data[0], nil
}

func (f *Field) Uint16() (uint16, error) {
	if len(f.data) != 2 {
		return 0, PayloadSizeError{Tag: f.tag, Expected: 2, Actual: len(f.data)}
	}
	return binary.LittleEndian.Uint16(f.data), nil
}

func (f *Field) Uint32() (uint32, error) {
	if len(f.data) != 4 {
		return 0, PayloadSizeError{Tag: f.tag, Expected: 4, Actual: len(f.data)}
	}
	return binary.LittleEndian.Uint32(f.data), nil
}

func (f *Field) Uint64() (uint64, error) {
	if len(f.data) != 8 {
		return 0, PayloadSizeError{Tag: f.tag, Expected: 8, Actual: len(f.data)}
	}
	return binary.LittleEndian.Uint64(f.data), nil
}

func (f *Field) Int32() (int32, error) {
	v, err := f.Uint32()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func (f *Field) Float32() (float32, error) {
	v, err := f.Uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Text decodes the payload as a string. The payload is treated as a slot:
// everything up to the first NUL byte (or the whole payload if there is
// none) is the string, and any bytes after the first NUL are discarded
// without being validated. Archives in the wild routinely carry garbage
// after the terminator. Invalid UTF-8 in the effective prefix is a decode
// error
func (f *Field) Text() (string, error) {
	s, err := FixedText(f.data)
	if err != nil {
		return "", TextEncodingError{Tag: f.tag}
	}
	return s, nil
}

// SetText replaces the payload with a NUL-terminated string
func (f *Field) SetText(s string) {
	data := make([]byte, len(s)+1)
	copy(data, s)
	f.data = data
}

// SetFixedText replaces the payload with the string padded to exactly
// width bytes with NULs. Strings longer than the slot are an error, never
// silently truncated
func (f *Field) SetFixedText(s string, width int) error {
	if len(s) > width {
		return TextWidthError{Tag: f.tag, Length: len(s), Width: width}
	}
	data := make([]byte, width)
	copy(data, s)
	f.data = data
	return nil
}

func (f *Field) SetUint32(v uint32) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, v)
	f.data = data
}

func (f *Field) SetUint64(v uint64) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, v)
	f.data = data
}

func (f *Field) SetInt32(v int32) {
	f.SetUint32(uint32(v))
}

func (f *Field) SetFloat32(v float32) {
	f.SetUint32(math.Float32bits(v))
}

// FixedText decodes a fixed-width string slot outside of a field context.
// Plugin header blocks embed such slots inside larger fixed layouts
func FixedText(data []byte) (string, error) {
	effective := data
	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		effective = data[:idx]
	}
	if !utf8.Valid(effective) {
		return "", fmt.Errorf("invalid UTF-8 in string slot")
	}
	return string(effective), nil
}

// PutFixedText writes a string into a fixed-width slot, zero-padding the
// remainder
func PutFixedText(dst []byte, s string) error {
	if len(s) > len(dst) {
		return TextWidthError{Length: len(s), Width: len(dst)}
	}
	copy(dst, s)
	for i := len(s); i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}
