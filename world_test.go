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

package goesp_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openmodkit/goesp"
	"github.com/openmodkit/goesp/form/tes3"
	"github.com/openmodkit/goesp/internal/test"
	"github.com/openmodkit/goesp/plugin"
	"github.com/openmodkit/goesp/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func flatHeader(count uint32, masters ...plugin.Master) []byte {
	fields := []byte{}
	for _, m := range masters {
		fields = test.Concat(
			fields,
			test.EncodeField("MAST", test.ZString(m.Name)),
			test.EncodeField("DATA", test.U64(m.Size)),
		)
	}
	block := test.Concat(
		test.F32(1.3),
		test.U32(0x1),
		test.FixedString("", 32),
		test.FixedString("", 256),
		test.U32(count),
	)
	return test.EncodeRecord("TES3", test.Concat(
		test.EncodeField("HEDR", block),
		fields,
	))
}

func gmstRecord(id string, value uint32) []byte {
	return test.EncodeRecord(
		"GMST",
		test.EncodeField("NAME", test.ZString(id)),
		test.EncodeField("INTV", test.U32(value)),
	)
}

// writePlugin writes a flat plugin file and stamps it with a modification
// time that increases with each call, so written order is load order
var pluginSeq int

func writePlugin(t *testing.T, dir, name string, records ...[]byte) string {
	t.Helper()
	stream := test.Concat(
		flatHeader(uint32(len(records))),
		test.Concat(records...),
	)
	return writeRaw(t, dir, name, stream)
}

func writeRaw(t *testing.T, dir, name string, stream []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, stream, 0o644))
	pluginSeq++
	mtime := time.Now().Add(time.Duration(pluginSeq) * time.Second)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func intvOf(t *testing.T, rec *wire.Record) uint32 {
	t.Helper()
	f, err := rec.Field(wire.MakeTag("INTV"))
	require.NoError(t, err)
	require.NotNil(t, f)
	v, err := f.Uint32()
	require.NoError(t, err)
	return v
}

func TestOverrideResolution(t *testing.T) {
	dir := t.TempDir()
	a := writePlugin(t, dir, "A.esm", gmstRecord("X", 1))
	b := writePlugin(t, dir, "B.esp", gmstRecord("X", 2))

	w := goesp.New()
	require.NoError(t, w.LoadPlugins(a, b))
	rec, err := w.GetRecord("X")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint32(2), intvOf(t, rec))

	// With only A loaded, A's version is active
	w = goesp.New()
	require.NoError(t, w.LoadPlugins(a))
	rec, err = w.GetRecord("X")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint32(1), intvOf(t, rec))
}

func TestAmbiguousWithinOnePlugin(t *testing.T) {
	dir := t.TempDir()
	a := writePlugin(t, dir, "A.esm", gmstRecord("X", 1), gmstRecord("X", 2))
	w := goesp.New()
	require.NoError(t, w.LoadPlugins(a))
	_, err := w.GetRecord("X")
	var ambErr plugin.AmbiguousIDError
	require.True(t, errors.As(err, &ambErr))
}

func TestGetRecordMissing(t *testing.T) {
	dir := t.TempDir()
	a := writePlugin(t, dir, "A.esm", gmstRecord("X", 1))
	w := goesp.New()
	require.NoError(t, w.LoadPlugins(a))

	rec, err := w.GetRecord("Y")
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = w.RequireRecord("Y")
	var notFound goesp.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "Y", notFound.ID)
}

func TestGetRecordWithType(t *testing.T) {
	dir := t.TempDir()
	book := test.EncodeRecord(
		"BOOK",
		test.EncodeField("NAME", test.ZString("shared")),
	)
	a := writePlugin(t, dir, "A.esm", gmstRecord("shared", 1))
	b := writePlugin(t, dir, "B.esp", book)
	w := goesp.New()
	require.NoError(t, w.LoadPlugins(a, b))

	// Untyped lookup resolves to the last-loaded definition
	rec, err := w.GetRecord("shared")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, wire.MakeTag("BOOK"), rec.Tag())

	// Typed lookup skips past plugins defining it under another type
	rec, err = w.GetRecordWithType("shared", wire.MakeTag("GMST"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, wire.MakeTag("GMST"), rec.Tag())
}

func TestLoadPluginsSortsByModTime(t *testing.T) {
	dir := t.TempDir()
	// Written later means newer mtime, so B must end up after A in the
	// load order no matter the argument order
	a := writePlugin(t, dir, "A.esm", gmstRecord("X", 1))
	b := writePlugin(t, dir, "B.esp", gmstRecord("X", 2))
	w := goesp.New()
	require.NoError(t, w.LoadPlugins(b, a))
	assert.Equal(t, []string{"A.esm", "B.esp"}, w.Plugins())
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "Base.esm", gmstRecord("X", 1))
	saveStream := test.Concat(
		flatHeader(1, plugin.Master{Name: "Base.esm", Size: 0}),
		gmstRecord("X", 99),
	)
	savePath := writeRaw(t, dir, "quicksave.ess", saveStream)

	w := goesp.New()
	require.NoError(t, w.LoadSave(savePath, dir))
	assert.Equal(t, []string{"Base.esm", "quicksave.ess"}, w.Plugins())
	assert.True(t, w.HasSave())
	require.NotNil(t, w.Save())

	// The save is logically last, so its definitions win
	rec, err := w.GetRecord("X")
	require.NoError(t, err)
	assert.Equal(t, uint32(99), intvOf(t, rec))

	// A second save is rejected
	assert.Error(t, w.LoadSave(savePath, dir))
}

func TestLoadFailureLeavesWorldUnchanged(t *testing.T) {
	dir := t.TempDir()
	good := writePlugin(t, dir, "Good.esm", gmstRecord("X", 1))
	bad := writeRaw(t, dir, "Bad.esp", []byte("not a plugin at all"))
	w := goesp.New()
	require.Error(t, w.LoadPlugins(good, bad))
	assert.Empty(t, w.Plugins())
}

func TestConcurrentLoad(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	paths := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("Plugin%d.esp", i)
		paths = append(paths, writePlugin(t, dir, name, gmstRecord("X", uint32(i))))
	}
	w := goesp.New(goesp.WithConcurrency(4))
	require.NoError(t, w.LoadPlugins(paths...))
	require.Len(t, w.Plugins(), 8)
	// Order is by mtime, so the last-written plugin wins
	rec, err := w.GetRecord("X")
	require.NoError(t, err)
	assert.Equal(t, uint32(7), intvOf(t, rec))
}

func TestGenericGetAndRequire(t *testing.T) {
	dir := t.TempDir()
	a := writePlugin(t, dir, "A.esm", gmstRecord("iLevelUpTotal", 10))
	w := goesp.New()
	require.NoError(t, w.LoadPlugins(a))

	g, found, err := goesp.Get[*tes3.GameSetting](w, "iLevelUpTotal")
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, g.Int)
	assert.Equal(t, int32(10), *g.Int)

	_, found, err = goesp.Get[*tes3.GameSetting](w, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = goesp.Require[*tes3.GameSetting](w, "missing")
	var notFound goesp.NotFoundError
	require.True(t, errors.As(err, &notFound))

	g2, err := goesp.Require[*tes3.GameSetting](w, "iLevelUpTotal")
	require.NoError(t, err)
	assert.Equal(t, "iLevelUpTotal", g2.ID)
}
