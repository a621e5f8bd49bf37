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

package wire_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/openmodkit/goesp/internal/test"
	"github.com/openmodkit/goesp/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cellRecordBytes(edid string) []byte {
	return test.EncodeRecord(
		"CELL",
		test.EncodeField("EDID", test.ZString(edid)),
	)
}

func TestReadGroupFlat(t *testing.T) {
	stream := test.EncodeGroup(
		[]byte("BOOK"), 0, 0x1234,
		test.EncodeRecord("BOOK", test.EncodeField("EDID", test.ZString("Book1"))),
		test.EncodeRecord("BOOK", test.EncodeField("EDID", test.ZString("Book2"))),
	)
	g, n, err := wire.ReadGroup(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, int64(len(stream)), n)
	assert.Equal(t, wire.GroupTop, g.Kind().Type())
	assert.Equal(t, wire.MakeTag("BOOK"), g.Kind().RecordType())
	assert.Equal(t, uint32(0x1234), g.Stamp())
	assert.Len(t, g.Records(), 2)
	assert.Empty(t, g.Groups())
}

func TestReadGroupCleanEOF(t *testing.T) {
	_, _, err := wire.ReadGroup(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)
}

func TestReadGroupPartialMarker(t *testing.T) {
	_, _, err := wire.ReadGroup(bytes.NewReader([]byte("GR")))
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestReadGroupAttachesSubGroupToPrecedingRecord(t *testing.T) {
	// A cell record followed by its children group: the sub-group must
	// attach to the record, not the enclosing group
	children := test.EncodeGroup(
		test.U32(100), 6, 0,
		test.EncodeRecord("REFR", test.EncodeField("EDID", test.ZString("DoorRef"))),
	)
	stream := test.EncodeGroup(
		[]byte("CELL"), 0, 0,
		cellRecordBytes("MyCell"),
		children,
	)
	g, _, err := wire.ReadGroup(bytes.NewReader(stream))
	require.NoError(t, err)
	require.Len(t, g.Records(), 1)
	assert.Empty(t, g.Groups())
	cell := g.Records()[0]
	require.Len(t, cell.Groups(), 1)
	sub := cell.Groups()[0]
	assert.Equal(t, wire.GroupCellChildren, sub.Kind().Type())
	assert.Equal(t, uint32(100), sub.Kind().ID())
	require.Len(t, sub.Records(), 1)
}

func TestReadGroupLeadingSubGroupBelongsToGroup(t *testing.T) {
	// A sub-group before any sibling record is owned by the group itself
	inner := test.EncodeGroup(test.U32(1), 2, 0)
	stream := test.EncodeGroup(
		[]byte("CELL"), 0, 0,
		inner,
		cellRecordBytes("LaterCell"),
	)
	g, _, err := wire.ReadGroup(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Len(t, g.Groups(), 1)
	assert.Len(t, g.Records(), 1)
}

func TestReadGroupNestedRoundTrip(t *testing.T) {
	children := test.EncodeGroup(
		test.U32(100), 6, 7,
		test.EncodeRecord("REFR", test.EncodeField("EDID", test.ZString("Ref1"))),
		test.EncodeGroup(test.U32(100), 9, 0),
	)
	stream := test.EncodeGroup(
		[]byte("CELL"), 0, 42,
		test.EncodeGroup(test.U32(5), 2, 0),
		cellRecordBytes("OuterCell"),
		children,
	)
	g, _, err := wire.ReadGroup(bytes.NewReader(stream))
	require.NoError(t, err)
	var out bytes.Buffer
	n, err := g.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(stream)), n)
	assert.Equal(t, stream, out.Bytes())
}

func TestReadGroupChildExceedsBudget(t *testing.T) {
	// Inner group claims more bytes than the outer group has left; must
	// fail before reading past the outer container
	inner := test.EncodeGroup(test.U32(1), 2, 0)
	// Inflate the inner group's declared size
	badInner := append([]byte{}, inner...)
	copy(badInner[4:8], test.U32(10_000))
	stream := test.EncodeGroup([]byte("CELL"), 0, 0, badInner)
	_, _, err := wire.ReadGroup(bytes.NewReader(stream))
	var budgetErr wire.BudgetError
	require.True(t, errors.As(err, &budgetErr))
	assert.Equal(t, int64(10_000), budgetErr.Declared)
}

func TestReadGroupRecordExceedsBudget(t *testing.T) {
	rec := cellRecordBytes("Cell")
	badRec := append([]byte{}, rec...)
	copy(badRec[4:8], test.U32(50_000))
	stream := test.EncodeGroup([]byte("CELL"), 0, 0, badRec)
	_, _, err := wire.ReadGroup(bytes.NewReader(stream))
	var budgetErr wire.BudgetError
	require.True(t, errors.As(err, &budgetErr))
}

func TestReadGroupTruncatedTrailingChild(t *testing.T) {
	// Group declares 3 bytes of content: not enough for a child tag
	stream := test.Concat(
		[]byte("GRUP"),
		test.U32(23),
		[]byte("CELL"),
		test.U32(0),
		test.U32(0),
		[]byte{0x01, 0x02, 0x03},
	)
	_, _, err := wire.ReadGroup(bytes.NewReader(stream))
	require.Error(t, err)
}

func TestReadGroupSizeSmallerThanHeader(t *testing.T) {
	stream := test.Concat(
		[]byte("GRUP"),
		test.U32(10),
		[]byte("CELL"),
		test.U32(0),
		test.U32(0),
	)
	_, _, err := wire.ReadGroup(bytes.NewReader(stream))
	require.Error(t, err)
}

func TestGroupRecordCount(t *testing.T) {
	children := test.EncodeGroup(
		test.U32(100), 6, 0,
		test.EncodeRecord("REFR", test.EncodeField("EDID", test.ZString("Ref1"))),
		test.EncodeRecord("REFR", test.EncodeField("EDID", test.ZString("Ref2"))),
	)
	stream := test.EncodeGroup(
		[]byte("CELL"), 0, 0,
		cellRecordBytes("Cell"),
		children,
	)
	g, _, err := wire.ReadGroup(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, 3, g.RecordCount())
}
