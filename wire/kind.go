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
)

// GroupType is the 4-byte type code in a group header discriminating how
// the 4-byte label is interpreted
type GroupType uint32

const (
	GroupTop GroupType = iota
	GroupWorldChildren
	GroupInteriorCellBlock
	GroupInteriorCellSubBlock
	GroupExteriorCellBlock
	GroupExteriorCellSubBlock
	GroupCellChildren
	GroupTopicChildren
	GroupCellPersistentChildren
	GroupCellTemporaryChildren
	GroupCellVisibleDistantChildren
)

func (t GroupType) String() string {
	switch t {
	case GroupTop:
		return "Top"
	case GroupWorldChildren:
		return "WorldChildren"
	case GroupInteriorCellBlock:
		return "InteriorCellBlock"
	case GroupInteriorCellSubBlock:
		return "InteriorCellSubBlock"
	case GroupExteriorCellBlock:
		return "ExteriorCellBlock"
	case GroupExteriorCellSubBlock:
		return "ExteriorCellSubBlock"
	case GroupCellChildren:
		return "CellChildren"
	case GroupTopicChildren:
		return "TopicChildren"
	case GroupCellPersistentChildren:
		return "CellPersistentChildren"
	case GroupCellTemporaryChildren:
		return "CellTemporaryChildren"
	case GroupCellVisibleDistantChildren:
		return "CellVisibleDistantChildren"
	}
	return fmt.Sprintf("GroupType(%d)", uint32(t))
}

// GroupKind is the closed discriminated key of a group: a type code plus a
// 4-byte label whose interpretation depends on the type. The wire encoding
// is the raw label followed by the little-endian type code, and the label
// is stored exactly as read so encoding is bit-exact for every kind
type GroupKind struct {
	typ   GroupType
	label [4]byte
}

// TopKind keys a top-level group holding records of one type
func TopKind(recordType Tag) GroupKind {
	return GroupKind{typ: GroupTop, label: recordType}
}

func WorldChildrenKind(id uint32) GroupKind {
	return idKind(GroupWorldChildren, id)
}

func InteriorCellBlockKind(id uint32) GroupKind {
	return idKind(GroupInteriorCellBlock, id)
}

func InteriorCellSubBlockKind(id uint32) GroupKind {
	return idKind(GroupInteriorCellSubBlock, id)
}

// ExteriorCellBlockKind keys a spatial block by grid coordinates. The
// label packs y then x as little-endian int16 halves
func ExteriorCellBlockKind(y, x int16) GroupKind {
	return coordKind(GroupExteriorCellBlock, y, x)
}

func ExteriorCellSubBlockKind(y, x int16) GroupKind {
	return coordKind(GroupExteriorCellSubBlock, y, x)
}

func CellChildrenKind(id uint32) GroupKind {
	return idKind(GroupCellChildren, id)
}

func TopicChildrenKind(id uint32) GroupKind {
	return idKind(GroupTopicChildren, id)
}

func CellPersistentChildrenKind(id uint32) GroupKind {
	return idKind(GroupCellPersistentChildren, id)
}

func CellTemporaryChildrenKind(id uint32) GroupKind {
	return idKind(GroupCellTemporaryChildren, id)
}

func CellVisibleDistantChildrenKind(id uint32) GroupKind {
	return idKind(GroupCellVisibleDistantChildren, id)
}

func idKind(typ GroupType, id uint32) GroupKind {
	k := GroupKind{typ: typ}
	binary.LittleEndian.PutUint32(k.label[:], id)
	return k
}

func coordKind(typ GroupType, y, x int16) GroupKind {
	k := GroupKind{typ: typ}
	binary.LittleEndian.PutUint16(k.label[0:2], uint16(y))
	binary.LittleEndian.PutUint16(k.label[2:4], uint16(x))
	return k
}

// newGroupKind builds a kind from its wire representation. Type codes
// outside the closed set are a decode error
func newGroupKind(label [4]byte, typeCode uint32) (GroupKind, error) {
	if typeCode > uint32(GroupCellVisibleDistantChildren) {
		return GroupKind{}, KindTypeError{Code: typeCode}
	}
	return GroupKind{typ: GroupType(typeCode), label: label}, nil
}

func (k GroupKind) Type() GroupType {
	return k.typ
}

// Label returns the raw 4-byte label exactly as it appears on the wire
func (k GroupKind) Label() [4]byte {
	return k.label
}

// RecordType interprets the label as a record-type tag. Only meaningful
// for GroupTop
func (k GroupKind) RecordType() Tag {
	return Tag(k.label)
}

// ID interprets the label as a little-endian 32-bit identifier
func (k GroupKind) ID() uint32 {
	return binary.LittleEndian.Uint32(k.label[:])
}

// Coords interprets the label as spatial grid coordinates, y then x
func (k GroupKind) Coords() (int16, int16) {
	y := int16(binary.LittleEndian.Uint16(k.label[0:2]))
	x := int16(binary.LittleEndian.Uint16(k.label[2:4]))
	return y, x
}

func (k GroupKind) String() string {
	switch k.typ {
	case GroupTop:
		return fmt.Sprintf("Top(%s)", k.RecordType())
	case GroupExteriorCellBlock, GroupExteriorCellSubBlock:
		y, x := k.Coords()
		return fmt.Sprintf("%s(%d, %d)", k.typ, y, x)
	default:
		return fmt.Sprintf("%s(%d)", k.typ, k.ID())
	}
}
