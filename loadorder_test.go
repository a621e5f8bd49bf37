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
	"strings"
	"testing"

	"github.com/openmodkit/goesp"
	"github.com/openmodkit/goesp/internal/test"
	"github.com/openmodkit/goesp/plugin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrderFromReader(t *testing.T) {
	manifest := strings.TrimSpace(`
dataDir: /data
plugins:
  - Base.esm
  - Patch.esp
save: quicksave.ess
`)
	lo, err := goesp.NewLoadOrderFromReader(strings.NewReader(manifest))
	require.NoError(t, err)
	assert.Equal(t, "/data", lo.DataDir)
	assert.Equal(t, []string{"Base.esm", "Patch.esp"}, lo.Plugins)
	assert.Equal(t, "quicksave.ess", lo.Save)
}

func TestLoadOrderApply(t *testing.T) {
	dir := t.TempDir()
	// Written in reverse of the manifest order to prove the manifest, not
	// the modification time, decides the load order
	writePlugin(t, dir, "Patch.esp", gmstRecord("X", 2))
	writePlugin(t, dir, "Base.esm", gmstRecord("X", 1))
	saveStream := test.Concat(
		flatHeader(1, plugin.Master{Name: "Base.esm", Size: 0}),
		gmstRecord("X", 9),
	)
	writeRaw(t, dir, "quicksave.ess", saveStream)

	lo := &goesp.LoadOrder{
		DataDir: dir,
		Plugins: []string{"Base.esm", "Patch.esp"},
		Save:    "quicksave.ess",
	}
	w, err := lo.Apply()
	require.NoError(t, err)
	assert.Equal(t, []string{"Base.esm", "Patch.esp", "quicksave.ess"}, w.Plugins())
	assert.True(t, w.HasSave())

	rec, err := w.GetRecord("X")
	require.NoError(t, err)
	assert.Equal(t, uint32(9), intvOf(t, rec))
}

func TestLoadOrderApplyMissingPlugin(t *testing.T) {
	dir := t.TempDir()
	lo := &goesp.LoadOrder{
		DataDir: dir,
		Plugins: []string{"Missing.esp"},
	}
	_, err := lo.Apply()
	require.Error(t, err)
}

func TestLoadOrderFromFile(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "Base.esm", gmstRecord("X", 1))
	manifest := "dataDir: " + dir + "\nplugins:\n  - Base.esm\n"
	path := writeRaw(t, dir, "order.yaml", []byte(manifest))

	lo, err := goesp.NewLoadOrderFromFile(path)
	require.NoError(t, err)
	w, err := lo.Apply()
	require.NoError(t, err)
	assert.Equal(t, []string{"Base.esm"}, w.Plugins())
}
