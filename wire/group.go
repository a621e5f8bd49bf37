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
)

// GroupHeaderLen is the fixed group header size: marker tag, total size,
// kind encoding, stamp. The total size field counts this header
const GroupHeaderLen = 20

// Group is the recursive container of the nested plugin format. Children
// are records and sub-groups; every child's encoded size is charged
// against the group's declared total, and the running budget reaching
// exactly zero is the only valid way for the decode loop to terminate.
//
// A sub-group decoded after a sibling record attaches to that record
// rather than to the group. Sub-groups seen before any record in the
// current group belong to the group itself
type Group struct {
	kind    GroupKind
	stamp   uint32
	groups  []*Group
	records []*Record
}

func NewGroup(kind GroupKind) *Group {
	return &Group{kind: kind}
}

// ReadGroup reads one group from the stream, returning the group and the
// number of bytes consumed. A clean end of stream (no bytes at all)
// returns io.EOF; a partial marker tag is a decode error
func ReadGroup(r io.Reader) (*Group, int64, error) {
	var tag Tag
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		return nil, 0, fmt.Errorf("reading group marker: %w", err)
	}
	if tag != TagGRUP {
		return nil, 4, fmt.Errorf("expected group marker %s, found %s", TagGRUP, tag)
	}
	g, n, err := readGroupAfterTag(r, math.MaxInt64)
	return g, n, err
}

// ReadGroupBody reads a group whose marker tag was already consumed by the
// caller
func ReadGroupBody(r io.Reader) (*Group, int64, error) {
	return readGroupAfterTag(r, math.MaxInt64)
}

// readGroupAfterTag decodes a group after its marker tag. limit is the
// maximum number of bytes the group may occupy on the wire including the
// 4 marker bytes already consumed; the returned consumed count includes
// them as well. The declared total size is validated against limit before
// a single child byte is read, so a corrupt size field can never cause a
// read past the enclosing container
func readGroupAfterTag(r io.Reader, limit int64) (*Group, int64, error) {
	var hdr [GroupHeaderLen - 4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, 4, fmt.Errorf("reading group header: %w", err)
	}
	total := int64(binary.LittleEndian.Uint32(hdr[0:4]))
	if total > limit {
		return nil, GroupHeaderLen, BudgetError{
			Container: TagGRUP,
			Declared:  total,
			Remaining: limit,
		}
	}
	if total < GroupHeaderLen {
		return nil, GroupHeaderLen, fmt.Errorf(
			"group size %d is smaller than the %d-byte header",
			total,
			GroupHeaderLen,
		)
	}
	var label [4]byte
	copy(label[:], hdr[4:8])
	kind, err := newGroupKind(label, binary.LittleEndian.Uint32(hdr[8:12]))
	if err != nil {
		return nil, GroupHeaderLen, err
	}
	g := &Group{
		kind:  kind,
		stamp: binary.LittleEndian.Uint32(hdr[12:16]),
	}
	// Current open record: a sub-group decoded while one is set attaches
	// to it instead of the group
	var last *Record
	budget := total - GroupHeaderLen
	for budget > 0 {
		if budget < 4 {
			return nil, total - budget, fmt.Errorf(
				"group %s: %d trailing bytes cannot hold a child tag",
				g.kind,
				budget,
			)
		}
		var tag Tag
		if _, err := io.ReadFull(r, tag[:]); err != nil {
			return nil, total - budget, fmt.Errorf(
				"group %s: reading child tag: %w",
				g.kind,
				err,
			)
		}
		if tag == TagGRUP {
			sub, consumed, err := readGroupAfterTag(r, budget)
			budget -= consumed
			if err != nil {
				return nil, total - budget, err
			}
			if last != nil {
				last.AddGroup(sub)
			} else {
				g.groups = append(g.groups, sub)
			}
		} else {
			rec, consumed, err := readRecordAfterTag(tag, r, budget-4)
			budget -= consumed + 4
			if err != nil {
				return nil, total - budget, err
			}
			if err := rec.Finalize(); err != nil {
				return nil, total - budget, err
			}
			g.records = append(g.records, rec)
			last = rec
		}
	}
	return g, total, nil
}

func (g *Group) Kind() GroupKind {
	return g.kind
}

// Stamp is the opaque timestamp carried in the group header
func (g *Group) Stamp() uint32 {
	return g.stamp
}

func (g *Group) SetStamp(stamp uint32) {
	g.stamp = stamp
}

// Groups returns the sub-groups owned by the group itself, excluding any
// attached to sibling records
func (g *Group) Groups() []*Group {
	return g.groups
}

func (g *Group) Records() []*Record {
	return g.records
}

func (g *Group) AddGroup(sub *Group) {
	g.groups = append(g.groups, sub)
}

func (g *Group) AddRecord(rec *Record) {
	g.records = append(g.records, rec)
}

// RecordCount returns the number of records in the group and all nested
// groups, including groups attached to records
func (g *Group) RecordCount() int {
	count := len(g.records)
	for _, rec := range g.records {
		for _, sub := range rec.Groups() {
			count += sub.RecordCount()
		}
	}
	for _, sub := range g.groups {
		count += sub.RecordCount()
	}
	return count
}

// EncodedLen returns the on-wire size of the group including its header
func (g *Group) EncodedLen() (int64, error) {
	total := int64(GroupHeaderLen)
	for _, sub := range g.groups {
		n, err := sub.EncodedLen()
		if err != nil {
			return 0, err
		}
		total += n
	}
	for _, rec := range g.records {
		n, err := rec.EncodedLen()
		if err != nil {
			return 0, err
		}
		total += n
		for _, sub := range rec.Groups() {
			sn, err := sub.EncodedLen()
			if err != nil {
				return 0, err
			}
			total += sn
		}
	}
	return total, nil
}

// WriteTo re-encodes the group. Children are serialized into a scratch
// buffer first because the header's total size depends on their encoded
// length; the size is always derived, never reused from decode. Group-owned
// sub-groups are emitted first, then each record followed by its attached
// child groups, matching the attachment rule applied during decode
func (g *Group) WriteTo(w io.Writer) (int64, error) {
	var scratch bytes.Buffer
	for _, sub := range g.groups {
		if _, err := sub.WriteTo(&scratch); err != nil {
			return 0, err
		}
	}
	for _, rec := range g.records {
		if _, err := rec.WriteTo(&scratch); err != nil {
			return 0, err
		}
		for _, sub := range rec.Groups() {
			if _, err := sub.WriteTo(&scratch); err != nil {
				return 0, err
			}
		}
	}
	total := int64(scratch.Len()) + GroupHeaderLen
	if total > math.MaxUint32 {
		return 0, fmt.Errorf(
			"group %s: encoded size %d exceeds size prefix range",
			g.kind,
			total,
		)
	}
	var hdr [GroupHeaderLen]byte
	copy(hdr[0:4], TagGRUP[:])
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(total))
	label := g.kind.Label()
	copy(hdr[8:12], label[:])
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(g.kind.Type()))
	binary.LittleEndian.PutUint32(hdr[16:20], g.stamp)
	n, err := w.Write(hdr[:])
	if err := checkWrite(n, len(hdr), err); err != nil {
		return int64(n), err
	}
	n2, err := w.Write(scratch.Bytes())
	if err := checkWrite(n2, scratch.Len(), err); err != nil {
		return int64(n) + int64(n2), err
	}
	return int64(n) + int64(n2), nil
}
