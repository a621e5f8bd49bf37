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

package plugin

import (
	"bufio"
	"fmt"
	"os"

	"github.com/klauspost/compress/gzip"
)

// FromFile reads a plugin from disk. Files that start with the gzip magic
// are decompressed transparently
func FromFile(path string) (*Plugin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening compressed plugin %s: %w", path, err)
		}
		defer zr.Close()
		p, err := ReadPlugin(zr)
		if err != nil {
			return nil, fmt.Errorf("reading plugin %s: %w", path, err)
		}
		return p, nil
	}
	p, err := ReadPlugin(br)
	if err != nil {
		return nil, fmt.Errorf("reading plugin %s: %w", path, err)
	}
	return p, nil
}

// WriteFile re-encodes the plugin to disk
func (p *Plugin) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if _, err := p.WriteTo(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
