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

package form_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/openmodkit/goesp/form"
	"github.com/openmodkit/goesp/internal/test"
	"github.com/openmodkit/goesp/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weapon struct {
	ID     string  `esp:"NAME,required"`
	Name   string  `esp:"FNAM"`
	Damage uint16  `esp:"WPDT"`
	Weight float32 `esp:"WGHT"`
	Extra  []byte  `esp:"XTRA"`
	Note   string
}

func (w *weapon) FormTag() wire.Tag {
	return wire.MakeTag("WEAP")
}

func (w *weapon) DecodeRecord(rec *wire.Record) error {
	if err := form.CheckTag(w, rec); err != nil {
		return err
	}
	return form.Unmarshal(rec, w)
}

func (w *weapon) EncodeRecord(rec *wire.Record) error {
	if err := form.CheckTag(w, rec); err != nil {
		return err
	}
	return form.Marshal(w, rec)
}

func weaponRecord(t *testing.T) *wire.Record {
	t.Helper()
	stream := test.EncodeRecord(
		"WEAP",
		test.EncodeField("NAME", test.ZString("iron_dagger")),
		test.EncodeField("FNAM", test.ZString("Iron Dagger")),
		test.EncodeField("WPDT", test.U16(12)),
		test.EncodeField("WGHT", test.F32(4.5)),
		test.EncodeField("XTRA", []byte{0xde, 0xad}),
	)
	rec, _, err := wire.ReadRecord(bytes.NewReader(stream))
	require.NoError(t, err)
	return rec
}

func TestUnmarshal(t *testing.T) {
	var w weapon
	w.Note = "untagged fields survive"
	require.NoError(t, form.Unmarshal(weaponRecord(t), &w))
	assert.Equal(t, "iron_dagger", w.ID)
	assert.Equal(t, "Iron Dagger", w.Name)
	assert.Equal(t, uint16(12), w.Damage)
	assert.Equal(t, float32(4.5), w.Weight)
	assert.Equal(t, []byte{0xde, 0xad}, w.Extra)
	assert.Equal(t, "untagged fields survive", w.Note)
}

func TestUnmarshalMissingRequired(t *testing.T) {
	stream := test.EncodeRecord(
		"WEAP",
		test.EncodeField("FNAM", test.ZString("Nameless")),
	)
	rec, _, err := wire.ReadRecord(bytes.NewReader(stream))
	require.NoError(t, err)
	var w weapon
	err = form.Unmarshal(rec, &w)
	var missingErr wire.MissingFieldError
	require.True(t, errors.As(err, &missingErr))
	assert.Equal(t, wire.TagNAME, missingErr.Field)
}

func TestUnmarshalOptionalAbsent(t *testing.T) {
	stream := test.EncodeRecord(
		"WEAP",
		test.EncodeField("NAME", test.ZString("club")),
	)
	rec, _, err := wire.ReadRecord(bytes.NewReader(stream))
	require.NoError(t, err)
	var w weapon
	require.NoError(t, form.Unmarshal(rec, &w))
	assert.Equal(t, "club", w.ID)
	assert.Zero(t, w.Damage)
	assert.Nil(t, w.Extra)
}

func TestMarshalRoundTrip(t *testing.T) {
	var w weapon
	require.NoError(t, form.Unmarshal(weaponRecord(t), &w))
	rec := wire.NewRecord(wire.MakeTag("WEAP"))
	require.NoError(t, form.Marshal(&w, rec))
	var back weapon
	require.NoError(t, form.Unmarshal(rec, &back))
	back.Note = w.Note
	assert.Equal(t, w, back)
}

func TestRegistry(t *testing.T) {
	r := form.NewRegistry()
	r.Register(&weapon{Note: "prototype default"})

	f, err := r.Decode(weaponRecord(t))
	require.NoError(t, err)
	w, ok := f.(*weapon)
	require.True(t, ok)
	assert.Equal(t, "iron_dagger", w.ID)
	// Prototype defaults carry over to new instances
	assert.Equal(t, "prototype default", w.Note)

	_, err = r.New(wire.MakeTag("BOOK"))
	require.Error(t, err)
}

func TestCheckTag(t *testing.T) {
	stream := test.EncodeRecord(
		"BOOK",
		test.EncodeField("NAME", test.ZString("x")),
	)
	rec, _, err := wire.ReadRecord(bytes.NewReader(stream))
	require.NoError(t, err)
	var w weapon
	err = w.DecodeRecord(rec)
	var tagErr form.TagMismatchError
	require.True(t, errors.As(err, &tagErr))
	assert.Equal(t, wire.MakeTag("WEAP"), tagErr.Expected)
	assert.Equal(t, wire.MakeTag("BOOK"), tagErr.Actual)
}
