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

// Package goesp loads multiple game-data plugins as an ordered overlay
// and resolves which plugin's version of an object is active. Later
// plugins in the load order override earlier ones for the same
// identifier, the same layering model as stacked configuration files
package goesp

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"

	"github.com/openmodkit/goesp/form"
	"github.com/openmodkit/goesp/plugin"
	"github.com/openmodkit/goesp/wire"
)

// NotFoundError is returned by the Require lookups when no loaded plugin
// defines the identifier at all. A record that exists but fails to decode
// reports its own decode error instead
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("no record with identifier %q in any loaded plugin", e.ID)
}

// World is an ordered collection of loaded plugins. Master plugins are
// treated as read-only shared data; only a loaded save is meant to be
// mutated. Load failures abort the whole operation and leave the world
// unchanged, so a partially-loaded world is never observable
type World struct {
	logger      *slog.Logger
	concurrency int
	plugins     []worldPlugin
	hasSave     bool
}

type worldPlugin struct {
	name   string
	plugin *plugin.Plugin
}

// New creates an empty world
func New(options ...WorldOptionFunc) *World {
	w := &World{
		concurrency: 1,
	}
	for _, option := range options {
		option(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.concurrency < 1 {
		w.concurrency = 1
	}
	return w
}

// LoadPlugins loads the given plugin files in ascending
// modification-time order, the conventional load order. Masters are
// expected to sort before their dependents by that convention; the
// ordering is not enforced structurally
func (w *World) LoadPlugins(paths ...string) error {
	type statted struct {
		path    string
		modTime int64
	}
	entries := make([]statted, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		entries = append(entries, statted{path: path, modTime: info.ModTime().UnixNano()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].modTime < entries[j].modTime
	})
	sorted := make([]string, len(entries))
	for i, e := range entries {
		sorted[i] = e.path
	}
	return w.LoadPluginsOrdered(sorted...)
}

// LoadPluginsOrdered loads plugin files in exactly the order given,
// bypassing the modification-time sort
func (w *World) LoadPluginsOrdered(paths ...string) error {
	loaded, err := w.decodeAll(paths)
	if err != nil {
		return err
	}
	w.appendPlugins(loaded)
	return nil
}

// LoadSave loads a save archive: the save's declared masters are loaded
// first, in declaration order, resolved against masterDir, and the save
// itself is appended as the logically-last element. Masters already
// loaded under the same name are not loaded twice
func (w *World) LoadSave(savePath string, masterDir string) error {
	if w.hasSave {
		return fmt.Errorf("world already has a save loaded")
	}
	save, err := plugin.FromFile(savePath)
	if err != nil {
		return err
	}
	var masterPaths []string
	for _, m := range save.Masters() {
		if w.Plugin(m.Name) != nil {
			continue
		}
		masterPaths = append(masterPaths, filepath.Join(masterDir, m.Name))
	}
	masters, err := w.decodeAll(masterPaths)
	if err != nil {
		return err
	}
	w.appendPlugins(masters)
	w.plugins = append(w.plugins, worldPlugin{
		name:   filepath.Base(savePath),
		plugin: save,
	})
	w.hasSave = true
	w.logger.Debug("loaded save", "name", filepath.Base(savePath), "masters", len(save.Masters()))
	return nil
}

// decodeAll reads and decodes every file before anything is appended to
// the world. Each plugin tree is exclusively owned, so decoding is safe
// to parallelize; ordering is re-established from the input slice when
// the results are assembled
func (w *World) decodeAll(paths []string) ([]worldPlugin, error) {
	loaded := make([]*plugin.Plugin, len(paths))
	errs := make([]error, len(paths))
	if w.concurrency > 1 {
		sem := make(chan struct{}, w.concurrency)
		var wg sync.WaitGroup
		for i, path := range paths {
			wg.Add(1)
			go func(i int, path string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				loaded[i], errs[i] = plugin.FromFile(path)
			}(i, path)
		}
		wg.Wait()
	} else {
		for i, path := range paths {
			loaded[i], errs[i] = plugin.FromFile(path)
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	result := make([]worldPlugin, len(paths))
	for i, path := range paths {
		result[i] = worldPlugin{
			name:   filepath.Base(path),
			plugin: loaded[i],
		}
	}
	return result, nil
}

func (w *World) appendPlugins(loaded []worldPlugin) {
	for _, wp := range loaded {
		w.logger.Debug(
			"loaded plugin",
			"name", wp.name,
			"format", wp.plugin.Format().String(),
			"records", wp.plugin.RecordCount(),
		)
	}
	w.plugins = append(w.plugins, loaded...)
}

// Plugins returns the loaded plugin names in load order
func (w *World) Plugins() []string {
	names := make([]string, len(w.plugins))
	for i, wp := range w.plugins {
		names[i] = wp.name
	}
	return names
}

// Plugin returns the loaded plugin with the given name, or nil
func (w *World) Plugin(name string) *plugin.Plugin {
	for _, wp := range w.plugins {
		if wp.name == name {
			return wp.plugin
		}
	}
	return nil
}

func (w *World) HasSave() bool {
	return w.hasSave
}

// Save returns the loaded save plugin, the world's only mutable element,
// or nil if no save is loaded
func (w *World) Save() *plugin.Plugin {
	if !w.hasSave {
		return nil
	}
	return w.plugins[len(w.plugins)-1].plugin
}

// GetRecord resolves the active record for the identifier: plugins are
// scanned from most-recently-loaded to least and the first definition
// wins. Two plugins defining the same identifier is normal layering; a
// duplicate within one plugin surfaces as that plugin's ambiguity error.
// A missing identifier returns (nil, nil)
func (w *World) GetRecord(id string) (*wire.Record, error) {
	return w.resolve(id, func(p *plugin.Plugin) (*wire.Record, error) {
		return p.RecordByID(id)
	})
}

// GetRecordWithType is GetRecord additionally filtered by record type
func (w *World) GetRecordWithType(id string, tag wire.Tag) (*wire.Record, error) {
	return w.resolve(id, func(p *plugin.Plugin) (*wire.Record, error) {
		return p.RecordByIDWithType(id, tag)
	})
}

// RequireRecord is GetRecord that treats a missing identifier as an error
func (w *World) RequireRecord(id string) (*wire.Record, error) {
	rec, err := w.GetRecord(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, NotFoundError{ID: id}
	}
	return rec, nil
}

func (w *World) resolve(id string, lookup func(*plugin.Plugin) (*wire.Record, error)) (*wire.Record, error) {
	for i := len(w.plugins) - 1; i >= 0; i-- {
		wp := w.plugins[i]
		rec, err := lookup(wp.plugin)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", wp.name, err)
		}
		if rec != nil {
			if i < len(w.plugins)-1 {
				w.logger.Debug("resolved override", "id", id, "plugin", wp.name)
			}
			return rec, nil
		}
	}
	return nil, nil
}

// Get resolves the active record for the identifier and decodes it into
// the domain type T, which must be a pointer type implementing form.Form.
// The boolean reports whether the identifier was found at all
func Get[T form.Form](w *World, id string) (T, bool, error) {
	var zero T
	inst, err := newFormInstance[T]()
	if err != nil {
		return zero, false, err
	}
	rec, err := w.GetRecordWithType(id, inst.FormTag())
	if err != nil {
		return zero, false, err
	}
	if rec == nil {
		return zero, false, nil
	}
	if err := inst.DecodeRecord(rec); err != nil {
		return zero, true, err
	}
	return inst, true, nil
}

// Require is Get that treats a missing identifier as a NotFoundError,
// distinct from any decode error of a record that does exist
func Require[T form.Form](w *World, id string) (T, error) {
	var zero T
	inst, found, err := Get[T](w, id)
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, NotFoundError{ID: id}
	}
	return inst, nil
}

func newFormInstance[T form.Form]() (T, error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil || typ.Kind() != reflect.Pointer {
		return zero, fmt.Errorf("form type must be a pointer to a struct")
	}
	return reflect.New(typ.Elem()).Interface().(T), nil
}
