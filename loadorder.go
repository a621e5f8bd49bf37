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
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadOrder is an explicit load-order manifest: plugin file names applied
// in listed order, with an optional save applied last
type LoadOrder struct {
	DataDir string   `yaml:"dataDir"`
	Plugins []string `yaml:"plugins"`
	Save    string   `yaml:"save,omitempty"`
}

func NewLoadOrderFromFile(path string) (*LoadOrder, error) {
	dataFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer dataFile.Close()
	return NewLoadOrderFromReader(dataFile)
}

func NewLoadOrderFromReader(r io.Reader) (*LoadOrder, error) {
	lo := &LoadOrder{}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, lo); err != nil {
		return nil, err
	}
	return lo, nil
}

// Apply builds a world from the manifest: the listed plugins in listed
// order, then the save (with its masters resolved against DataDir) if one
// is named
func (lo *LoadOrder) Apply(options ...WorldOptionFunc) (*World, error) {
	w := New(options...)
	paths := make([]string, len(lo.Plugins))
	for i, name := range lo.Plugins {
		paths[i] = filepath.Join(lo.DataDir, name)
	}
	if err := w.LoadPluginsOrdered(paths...); err != nil {
		return nil, err
	}
	if lo.Save != "" {
		if err := w.LoadSave(filepath.Join(lo.DataDir, lo.Save), lo.DataDir); err != nil {
			return nil, err
		}
	}
	return w, nil
}
