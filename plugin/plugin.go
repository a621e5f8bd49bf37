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

// Package plugin reads and writes game-data archives. An archive is a
// header record carrying metadata and master-dependency declarations,
// followed by either a flat record list (flat format, TES3 header) or a
// set of recursive size-accounted groups (nested format, TES4 header)
package plugin

import (
	"fmt"
	"io"

	"github.com/openmodkit/goesp/wire"
)

// Format discriminates the two archive layouts
type Format int

const (
	// FormatFlat is a TES3 header followed by a flat record list whose
	// length is declared in the header
	FormatFlat Format = iota
	// FormatNested is a TES4 header followed by top-level groups until
	// end of stream
	FormatNested
)

func (f Format) String() string {
	if f == FormatFlat {
		return "flat"
	}
	return "nested"
}

// Plugin is a decoded archive. It exclusively owns all of its records and
// groups
type Plugin struct {
	format         Format
	version        float32
	flags          uint32
	author         string
	description    string
	hasAuthor      bool
	hasDescription bool
	nextObjectID   uint32
	masters        []Master
	records        []*wire.Record
	groups         []*wire.Group
}

// New creates an empty plugin of the given format
func New(format Format) *Plugin {
	return &Plugin{format: format}
}

// ReadPlugin decodes a whole archive from the stream. The format is
// detected from the header record's tag. Any decode failure aborts the
// whole read; a partially-decoded plugin is never returned
func ReadPlugin(r io.Reader) (*Plugin, error) {
	hdr, _, err := wire.ReadRecord(r)
	if err != nil {
		return nil, fmt.Errorf("reading plugin header: %w", err)
	}
	p := &Plugin{}
	switch hdr.Tag() {
	case wire.TagTES3:
		p.format = FormatFlat
	case wire.TagTES4:
		p.format = FormatNested
	default:
		return nil, fmt.Errorf(
			"expected plugin header %s or %s, found %s",
			wire.TagTES3,
			wire.TagTES4,
			hdr.Tag(),
		)
	}
	count, err := p.readHeader(hdr)
	if err != nil {
		return nil, err
	}
	if p.format == FormatFlat {
		if err := p.readFlatRecords(r, count); err != nil {
			return nil, err
		}
	} else {
		if err := p.readGroups(r); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// readFlatRecords reads exactly the number of records the header declared.
// A stream that runs out early is an error, never a silently shorter
// plugin
func (p *Plugin) readFlatRecords(r io.Reader, count uint32) error {
	for i := uint32(0); i < count; i++ {
		rec, _, err := wire.ReadRecord(r)
		if err != nil {
			return RecordCountError{
				Declared: count,
				Read:     int(i),
				Err:      err,
			}
		}
		p.records = append(p.records, rec)
	}
	return nil
}

func (p *Plugin) readGroups(r io.Reader) error {
	for {
		g, _, err := wire.ReadGroup(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		p.groups = append(p.groups, g)
	}
}

func (p *Plugin) Format() Format {
	return p.format
}

func (p *Plugin) Version() float32 {
	return p.version
}

func (p *Plugin) SetVersion(v float32) {
	p.version = v
}

// IsMaster reports the master flag from the header. This is independent of
// any file naming convention
func (p *Plugin) IsMaster() bool {
	return p.flags&flagMaster != 0
}

func (p *Plugin) SetIsMaster(master bool) {
	if master {
		p.flags |= flagMaster
	} else {
		p.flags &^= flagMaster
	}
}

func (p *Plugin) Author() string {
	return p.author
}

func (p *Plugin) SetAuthor(author string) {
	p.author = author
	p.hasAuthor = true
}

func (p *Plugin) Description() string {
	return p.description
}

func (p *Plugin) SetDescription(description string) {
	p.description = description
	p.hasDescription = true
}

// Masters returns the master-dependency declarations in header order
func (p *Plugin) Masters() []Master {
	return p.masters
}

func (p *Plugin) AddMaster(name string, size uint64) {
	p.masters = append(p.masters, Master{Name: name, Size: size})
}

// Records returns the flat record list. Empty for nested-format plugins
func (p *Plugin) Records() []*wire.Record {
	return p.records
}

func (p *Plugin) AddRecord(rec *wire.Record) {
	p.records = append(p.records, rec)
}

// Groups returns the top-level groups in stream order. Empty for
// flat-format plugins
func (p *Plugin) Groups() []*wire.Group {
	return p.groups
}

func (p *Plugin) AddGroup(g *wire.Group) {
	p.groups = append(p.groups, g)
}

// GroupByType returns the top-level group holding records of the given
// type, or nil
func (p *Plugin) GroupByType(tag wire.Tag) *wire.Group {
	for _, g := range p.groups {
		if g.Kind().Type() == wire.GroupTop && g.Kind().RecordType() == tag {
			return g
		}
	}
	return nil
}

// RecordCount returns the total number of records in the plugin, groups
// included, header excluded
func (p *Plugin) RecordCount() int {
	if p.format == FormatFlat {
		return len(p.records)
	}
	count := 0
	for _, g := range p.groups {
		count += g.RecordCount()
	}
	return count
}

// RecordByID finds the record with the given identifier, or nil. More than
// one record with the same identifier inside a single plugin is an
// AmbiguousIDError
func (p *Plugin) RecordByID(id string) (*wire.Record, error) {
	return p.findRecord(id, func(*wire.Record) bool { return true })
}

// RecordByIDWithType is RecordByID additionally filtered by record type
func (p *Plugin) RecordByIDWithType(id string, tag wire.Tag) (*wire.Record, error) {
	return p.findRecord(id, func(rec *wire.Record) bool { return rec.Tag() == tag })
}

func (p *Plugin) findRecord(id string, match func(*wire.Record) bool) (*wire.Record, error) {
	var found *wire.Record
	check := func(rec *wire.Record) error {
		if !match(rec) {
			return nil
		}
		recID, err := rec.ID()
		if err != nil {
			return err
		}
		if recID != id || recID == "" {
			return nil
		}
		if found != nil {
			return AmbiguousIDError{ID: id}
		}
		found = rec
		return nil
	}
	if p.format == FormatFlat {
		for _, rec := range p.records {
			if err := check(rec); err != nil {
				return nil, err
			}
		}
		return found, nil
	}
	for _, g := range p.groups {
		if err := walkGroup(g, check); err != nil {
			return nil, err
		}
	}
	return found, nil
}

// walkGroup visits every record in the group and all nested groups,
// including groups attached to records
func walkGroup(g *wire.Group, visit func(*wire.Record) error) error {
	for _, sub := range g.Groups() {
		if err := walkGroup(sub, visit); err != nil {
			return err
		}
	}
	for _, rec := range g.Records() {
		if err := visit(rec); err != nil {
			return err
		}
		for _, sub := range rec.Groups() {
			if err := walkGroup(sub, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// WalkRecords visits every record in the plugin in stream order
func (p *Plugin) WalkRecords(visit func(*wire.Record) error) error {
	if p.format == FormatFlat {
		for _, rec := range p.records {
			if err := visit(rec); err != nil {
				return err
			}
		}
		return nil
	}
	for _, g := range p.groups {
		if err := walkGroup(g, visit); err != nil {
			return err
		}
	}
	return nil
}

// WriteTo re-encodes the whole archive. The header is rebuilt from live
// state (record count and master list included) and every size prefix
// below it is derived from actual encoded content
func (p *Plugin) WriteTo(w io.Writer) (int64, error) {
	hdr, err := p.buildHeader()
	if err != nil {
		return 0, err
	}
	written, err := hdr.WriteTo(w)
	if err != nil {
		return written, err
	}
	if p.format == FormatFlat {
		for _, rec := range p.records {
			n, err := rec.WriteTo(w)
			written += n
			if err != nil {
				return written, err
			}
		}
		return written, nil
	}
	for _, g := range p.groups {
		n, err := g.WriteTo(w)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
