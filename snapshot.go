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

package goesp

import (
	"fmt"
	"io"

	"github.com/openmodkit/goesp/plugin"
	"github.com/openmodkit/goesp/wire"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/crypto/blake2b"
)

// WorldIndex is a serializable summary of a world: per plugin, every
// record identifier mapped to its record type, plus a content hash of the
// plugin's canonical encoding so a stale snapshot can be detected without
// re-reading whole archives
type WorldIndex struct {
	Plugins []PluginIndex `cbor:"plugins"`
}

type PluginIndex struct {
	Name    string            `cbor:"name"`
	Hash    []byte            `cbor:"hash"`
	Records map[string]string `cbor:"records"`
}

// BuildIndex walks every loaded plugin and collects its identifier index.
// A duplicate identifier within one plugin is the same ambiguity error a
// lookup would report
func (w *World) BuildIndex() (*WorldIndex, error) {
	idx := &WorldIndex{
		Plugins: make([]PluginIndex, 0, len(w.plugins)),
	}
	for _, wp := range w.plugins {
		records := make(map[string]string)
		err := wp.plugin.WalkRecords(func(rec *wire.Record) error {
			id, err := rec.ID()
			if err != nil {
				return err
			}
			if id == "" {
				return nil
			}
			if _, ok := records[id]; ok {
				return plugin.AmbiguousIDError{ID: id}
			}
			records[id] = rec.Tag().String()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", wp.name, err)
		}
		hash, err := pluginHash(wp.plugin)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", wp.name, err)
		}
		idx.Plugins = append(idx.Plugins, PluginIndex{
			Name:    wp.name,
			Hash:    hash,
			Records: records,
		})
	}
	return idx, nil
}

// pluginHash is the blake2b-256 digest of the plugin's canonical
// re-encoding
func pluginHash(p *plugin.Plugin) ([]byte, error) {
	// Fixed-size, keyless blake2b never errors
	h, _ := blake2b.New256(nil)
	if _, err := p.WriteTo(h); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// WriteIndexSnapshot serializes the world's index as gzip-compressed CBOR
func (w *World) WriteIndexSnapshot(out io.Writer) error {
	idx, err := w.BuildIndex()
	if err != nil {
		return err
	}
	data, err := cbor.Marshal(idx)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

// ReadIndexSnapshot deserializes an index snapshot written by
// WriteIndexSnapshot
func ReadIndexSnapshot(in io.Reader) (*WorldIndex, error) {
	zr, err := gzip.NewReader(in)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	idx := &WorldIndex{}
	if err := cbor.Unmarshal(data, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Lookup resolves an identifier against the index with the same
// last-loaded-wins rule as World.GetRecord, returning the winning plugin
// name and the record type
func (idx *WorldIndex) Lookup(id string) (pluginName string, recordType string, found bool) {
	for i := len(idx.Plugins) - 1; i >= 0; i-- {
		if recType, ok := idx.Plugins[i].Records[id]; ok {
			return idx.Plugins[i].Name, recType, true
		}
	}
	return "", "", false
}

// Stale reports whether the plugin's current content no longer matches
// the hash recorded in the index entry
func (pi *PluginIndex) Stale(p *plugin.Plugin) (bool, error) {
	hash, err := pluginHash(p)
	if err != nil {
		return false, err
	}
	if len(hash) != len(pi.Hash) {
		return true, nil
	}
	for i := range hash {
		if hash[i] != pi.Hash[i] {
			return true, nil
		}
	}
	return false, nil
}
