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
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Status is the lifecycle state of a lazily-read record
type Status int

const (
	// StatusInitialized means the record header was parsed and the raw
	// body retained without splitting it into fields
	StatusInitialized Status = iota
	// StatusFinalized means the body was fully decoded into fields
	StatusFinalized
	// StatusFailed means field decoding was attempted and failed; the
	// decode error is sticky
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInitialized:
		return "Initialized"
	case StatusFinalized:
		return "Finalized"
	case StatusFailed:
		return "Failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Record is a named, ordered collection of fields. Field tags may repeat
// and encounter order is semantically significant, so fields are kept as a
// slice, never a map. A record may logically own child groups attached by
// the enclosing group's decode loop; those are siblings on the wire, not
// part of the record's own encoded bytes.
//
// Records are read lazily: ReadRecordLazy retains the raw body, and any
// accessor that needs fields routes through an implicit finalize. A failed
// finalize is sticky and every subsequent accessor returns the same decode
// error
type Record struct {
	tag       Tag
	raw       []byte
	fields    []*Field
	groups    []*Group
	status    Status
	decodeErr error
}

// NewRecord creates an empty finalized record, for building plugins from
// scratch
func NewRecord(tag Tag) *Record {
	return &Record{
		tag:    tag,
		status: StatusFinalized,
	}
}

// ReadRecordLazy reads the record header and retains the body bytes
// without splitting them into fields. It returns the record and the number
// of bytes consumed
func ReadRecordLazy(r io.Reader) (*Record, int64, error) {
	var tag Tag
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, 0, err
	}
	rec, n, err := readRecordAfterTag(tag, r, math.MaxInt64)
	return rec, n + 4, err
}

// ReadRecord is the full-eager read path: ReadRecordLazy plus Finalize
func ReadRecord(r io.Reader) (*Record, int64, error) {
	rec, n, err := ReadRecordLazy(r)
	if err != nil {
		return nil, n, err
	}
	if err := rec.Finalize(); err != nil {
		return nil, n, err
	}
	return rec, n, nil
}

// readRecordAfterTag reads a record whose tag was already consumed by the
// caller. limit is the number of bytes the record may still occupy on the
// wire (size prefix and body, tag excluded); a declared size exceeding it
// is a budget error caught before any body byte is read
func readRecordAfterTag(tag Tag, r io.Reader, limit int64) (*Record, int64, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, 0, fmt.Errorf("record %s: reading size: %w", tag, err)
	}
	if int64(size)+4 > limit {
		return nil, 4, BudgetError{
			Container: tag,
			Declared:  int64(size),
			Remaining: limit - 4,
		}
	}
	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, 4, fmt.Errorf("record %s: reading body: %w", tag, err)
	}
	rec := &Record{
		tag:    tag,
		raw:    raw,
		status: StatusInitialized,
	}
	return rec, int64(size) + 4, nil
}

func (rec *Record) Tag() Tag {
	return rec.tag
}

func (rec *Record) Status() Status {
	return rec.status
}

// Finalize splits the retained raw body into fields, strictly in encounter
// order and stopping exactly at the declared body length. Residual bytes
// too short to hold a field header, or a field whose declared size runs
// past the body, are decode errors. Finalize is idempotent; on failure the
// record transitions to StatusFailed and the error is sticky
func (rec *Record) Finalize() error {
	switch rec.status {
	case StatusFinalized:
		return nil
	case StatusFailed:
		return rec.decodeErr
	}
	fields, err := splitFields(rec.tag, rec.raw)
	if err != nil {
		rec.status = StatusFailed
		rec.decodeErr = err
		return err
	}
	rec.fields = fields
	rec.raw = nil
	rec.status = StatusFinalized
	return nil
}

func splitFields(recTag Tag, body []byte) ([]*Field, error) {
	var fields []*Field
	for off := 0; off < len(body); {
		remaining := len(body) - off
		if remaining < 8 {
			return nil, fmt.Errorf(
				"record %s: %d residual bytes at end of body",
				recTag,
				remaining,
			)
		}
		var tag Tag
		copy(tag[:], body[off:off+4])
		size := int(binary.LittleEndian.Uint32(body[off+4 : off+8]))
		if size > remaining-8 {
			return nil, BudgetError{
				Container: recTag,
				Declared:  int64(size),
				Remaining: int64(remaining - 8),
			}
		}
		data := make([]byte, size)
		copy(data, body[off+8:off+8+size])
		fields = append(fields, NewField(tag, data))
		off += 8 + size
	}
	return fields, nil
}

func (rec *Record) ensureFinalized() error {
	return rec.Finalize()
}

// Fields returns the decoded field sequence, finalizing first if needed
func (rec *Record) Fields() ([]*Field, error) {
	if err := rec.ensureFinalized(); err != nil {
		return nil, err
	}
	return rec.fields, nil
}

// Field returns the first field with the given tag, or nil if the record
// has none
func (rec *Record) Field(tag Tag) (*Field, error) {
	if err := rec.ensureFinalized(); err != nil {
		return nil, err
	}
	for _, f := range rec.fields {
		if f.Tag() == tag {
			return f, nil
		}
	}
	return nil, nil
}

// AddField appends a field to the record
func (rec *Record) AddField(f *Field) error {
	if err := rec.ensureFinalized(); err != nil {
		return err
	}
	rec.fields = append(rec.fields, f)
	return nil
}

// SetField replaces the payload of the first field with the given tag, or
// appends a new field if the record has none
func (rec *Record) SetField(tag Tag, data []byte) error {
	f, err := rec.Field(tag)
	if err != nil {
		return err
	}
	if f != nil {
		f.Set(data)
		return nil
	}
	return rec.AddField(NewField(tag, data))
}

// Groups returns the child groups attached to this record. Attachment is
// decided by the enclosing group's decode loop; child groups are not part
// of the record's own encoded bytes
func (rec *Record) Groups() []*Group {
	return rec.groups
}

func (rec *Record) AddGroup(g *Group) {
	rec.groups = append(rec.groups, g)
}

// ID extracts the record's identifier: a NAME field (flat format) or EDID
// field (nested format), decoded as a string. Records without either have
// no identifier and return ("", nil)
func (rec *Record) ID() (string, error) {
	for _, tag := range []Tag{TagNAME, TagEDID} {
		f, err := rec.Field(tag)
		if err != nil {
			return "", err
		}
		if f != nil {
			return f.Text()
		}
	}
	return "", nil
}

// EncodedLen returns the on-wire size of the record including its 8-byte
// header, excluding any attached child groups
func (rec *Record) EncodedLen() (int64, error) {
	if err := rec.ensureFinalized(); err != nil {
		return 0, err
	}
	total := int64(8)
	for _, f := range rec.fields {
		total += f.EncodedLen()
	}
	return total, nil
}

// WriteTo re-encodes the record: tag, derived size prefix, then each field
// in original order. The size is always recomputed from the current
// fields, never taken from the size read off the wire. Attached child
// groups are not written; the enclosing group emits them as siblings
func (rec *Record) WriteTo(w io.Writer) (int64, error) {
	if err := rec.ensureFinalized(); err != nil {
		return 0, err
	}
	var bodyLen int64
	for _, f := range rec.fields {
		bodyLen += f.EncodedLen()
	}
	if bodyLen > math.MaxUint32 {
		return 0, fmt.Errorf(
			"record %s: body of %d bytes exceeds size prefix range",
			rec.tag,
			bodyLen,
		)
	}
	var hdr [8]byte
	copy(hdr[0:4], rec.tag[:])
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(bodyLen))
	n, err := w.Write(hdr[:])
	if err := checkWrite(n, len(hdr), err); err != nil {
		return int64(n), err
	}
	written := int64(n)
	for _, f := range rec.fields {
		fn, err := f.WriteTo(w)
		written += fn
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
