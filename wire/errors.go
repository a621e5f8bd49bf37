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
	"fmt"
)

// ShortWriteError is returned when an underlying writer accepts fewer bytes
// than requested. A partial write would corrupt the offset of every
// following sibling, so it is never ignored
type ShortWriteError struct {
	Requested int
	Written   int
}

func (e ShortWriteError) Error() string {
	return fmt.Sprintf(
		"short write: requested %d bytes, wrote %d",
		e.Requested,
		e.Written,
	)
}

// PayloadSizeError is returned by a typed field accessor when the payload
// is not exactly the expected width
type PayloadSizeError struct {
	Tag      Tag
	Expected int
	Actual   int
}

func (e PayloadSizeError) Error() string {
	return fmt.Sprintf(
		"field %s: payload is %d bytes, expected %d",
		e.Tag,
		e.Actual,
		e.Expected,
	)
}

// TextEncodingError is returned when a string payload is not valid UTF-8
type TextEncodingError struct {
	Tag Tag
}

func (e TextEncodingError) Error() string {
	return fmt.Sprintf("field %s: payload is not valid UTF-8", e.Tag)
}

// TextWidthError is returned when writing a string that does not fit its
// fixed-width slot
type TextWidthError struct {
	Tag    Tag
	Length int
	Width  int
}

func (e TextWidthError) Error() string {
	return fmt.Sprintf(
		"field %s: string of %d bytes exceeds %d-byte slot",
		e.Tag,
		e.Length,
		e.Width,
	)
}

// BudgetError is returned when a child element's declared size exceeds the
// remaining size budget of its enclosing container, or when a container's
// declared size does not match its content exactly
type BudgetError struct {
	Container Tag
	Declared  int64
	Remaining int64
}

func (e BudgetError) Error() string {
	return fmt.Sprintf(
		"%s: child size %d exceeds remaining budget %d",
		e.Container,
		e.Declared,
		e.Remaining,
	)
}

// KindTypeError is returned when a group header carries a type code outside
// the closed set of group kinds
type KindTypeError struct {
	Code uint32
}

func (e KindTypeError) Error() string {
	return fmt.Sprintf("invalid group kind type code %d", e.Code)
}

// MissingFieldError is returned when a required field is absent from a
// record
type MissingFieldError struct {
	Record Tag
	Field  Tag
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("record %s: missing required field %s", e.Record, e.Field)
}

// UnexpectedFieldError is returned when a field appears where the schema
// does not permit it
type UnexpectedFieldError struct {
	Record Tag
	Field  Tag
}

func (e UnexpectedFieldError) Error() string {
	return fmt.Sprintf("record %s: unexpected field %s", e.Record, e.Field)
}

// checkWrite converts a short write into a ShortWriteError. Writers are
// allowed to report a short write without an error of their own
func checkWrite(n int, requested int, err error) error {
	if err != nil {
		return err
	}
	if n != requested {
		return ShortWriteError{Requested: requested, Written: n}
	}
	return nil
}
