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
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/openmodkit/goesp/wire"
)

const (
	// FlatHeaderBlockLen is the fixed size of the flat-format HEDR
	// metadata block
	FlatHeaderBlockLen = 300
	// NestedHeaderBlockLen is the fixed size of the nested-format HEDR
	// metadata block
	NestedHeaderBlockLen = 16

	flatAuthorLen      = 32
	flatDescriptionLen = 256

	// Bit 0 of the header flags marks the plugin as a master
	flagMaster uint32 = 0x1
)

// Master is one master-archive dependency declaration: the master's file
// name and the size hint recorded alongside it
type Master struct {
	Name string
	Size uint64
}

// flatHeaderBlock is the 300-byte little-endian metadata block carried in
// the flat-format HEDR field
type flatHeaderBlock struct {
	Version     float32
	Flags       uint32
	Author      [flatAuthorLen]byte
	Description [flatDescriptionLen]byte
	RecordCount uint32
}

// nestedHeaderBlock is the 16-byte metadata block carried in the
// nested-format HEDR field. Author and description live in separate CNAM
// and SNAM fields in this format
type nestedHeaderBlock struct {
	Version      float32
	Flags        uint32
	RecordCount  uint32
	NextObjectID uint32
}

// readHeader decodes the header record into the plugin and returns the
// declared record count
func (p *Plugin) readHeader(rec *wire.Record) (uint32, error) {
	fields, err := rec.Fields()
	if err != nil {
		return 0, err
	}
	if len(fields) == 0 || fields[0].Tag() != wire.TagHEDR {
		return 0, wire.MissingFieldError{Record: rec.Tag(), Field: wire.TagHEDR}
	}
	var count uint32
	if p.format == FormatFlat {
		count, err = p.readFlatHeaderBlock(fields[0])
	} else {
		count, err = p.readNestedHeaderBlock(fields[0])
	}
	if err != nil {
		return 0, err
	}
	if err := p.readHeaderFields(rec.Tag(), fields[1:]); err != nil {
		return 0, err
	}
	return count, nil
}

func (p *Plugin) readFlatHeaderBlock(f *wire.Field) (uint32, error) {
	if len(f.Data()) != FlatHeaderBlockLen {
		return 0, wire.PayloadSizeError{
			Tag:      f.Tag(),
			Expected: FlatHeaderBlockLen,
			Actual:   len(f.Data()),
		}
	}
	var block flatHeaderBlock
	if err := binary.Read(bytes.NewReader(f.Data()), binary.LittleEndian, &block); err != nil {
		return 0, fmt.Errorf("decoding header block: %w", err)
	}
	author, err := wire.FixedText(block.Author[:])
	if err != nil {
		return 0, fmt.Errorf("header author: %w", err)
	}
	description, err := wire.FixedText(block.Description[:])
	if err != nil {
		return 0, fmt.Errorf("header description: %w", err)
	}
	p.version = block.Version
	p.flags = block.Flags
	p.author = author
	p.description = description
	return block.RecordCount, nil
}

func (p *Plugin) readNestedHeaderBlock(f *wire.Field) (uint32, error) {
	if len(f.Data()) != NestedHeaderBlockLen {
		return 0, wire.PayloadSizeError{
			Tag:      f.Tag(),
			Expected: NestedHeaderBlockLen,
			Actual:   len(f.Data()),
		}
	}
	var block nestedHeaderBlock
	if err := binary.Read(bytes.NewReader(f.Data()), binary.LittleEndian, &block); err != nil {
		return 0, fmt.Errorf("decoding header block: %w", err)
	}
	p.version = block.Version
	p.flags = block.Flags
	p.nextObjectID = block.NextObjectID
	return block.RecordCount, nil
}

// readHeaderFields walks the header fields after HEDR. Every MAST must be
// immediately followed by its DATA size hint; the nested format may also
// carry CNAM (author) and SNAM (description) outside a MAST/DATA pair
func (p *Plugin) readHeaderFields(recTag wire.Tag, fields []*wire.Field) error {
	var pendingMaster *Master
	for _, f := range fields {
		switch f.Tag() {
		case wire.TagMAST:
			if pendingMaster != nil {
				return MasterPairError{Field: wire.TagMAST}
			}
			name, err := f.Text()
			if err != nil {
				return err
			}
			pendingMaster = &Master{Name: name}
		case wire.TagDATA:
			if pendingMaster == nil {
				return MasterPairError{Field: wire.TagDATA}
			}
			size, err := f.Uint64()
			if err != nil {
				return err
			}
			pendingMaster.Size = size
			p.masters = append(p.masters, *pendingMaster)
			pendingMaster = nil
		case wire.TagCNAM:
			if p.format != FormatNested || pendingMaster != nil {
				return p.headerFieldError(recTag, f.Tag(), pendingMaster)
			}
			author, err := f.Text()
			if err != nil {
				return err
			}
			p.author = author
			p.hasAuthor = true
		case wire.TagSNAM:
			if p.format != FormatNested || pendingMaster != nil {
				return p.headerFieldError(recTag, f.Tag(), pendingMaster)
			}
			description, err := f.Text()
			if err != nil {
				return err
			}
			p.description = description
			p.hasDescription = true
		default:
			return p.headerFieldError(recTag, f.Tag(), pendingMaster)
		}
	}
	if pendingMaster != nil {
		// MAST at the end of the header with no DATA
		return MasterPairError{Field: recTag}
	}
	return nil
}

func (p *Plugin) headerFieldError(recTag wire.Tag, tag wire.Tag, pending *Master) error {
	if pending != nil {
		return MasterPairError{Field: tag}
	}
	return wire.UnexpectedFieldError{Record: recTag, Field: tag}
}

// buildHeader re-encodes the header record. The record count and master
// declarations are always derived from the plugin's live state rather than
// whatever was read from the stream, so an edited plugin stays
// self-consistent
func (p *Plugin) buildHeader() (*wire.Record, error) {
	rec := wire.NewRecord(p.headerTag())
	hedr := wire.NewField(wire.TagHEDR, nil)
	var block bytes.Buffer
	if p.format == FormatFlat {
		out := flatHeaderBlock{
			Version:     p.version,
			Flags:       p.flags,
			RecordCount: uint32(len(p.records)),
		}
		if err := wire.PutFixedText(out.Author[:], p.author); err != nil {
			return nil, err
		}
		if err := wire.PutFixedText(out.Description[:], p.description); err != nil {
			return nil, err
		}
		if err := binary.Write(&block, binary.LittleEndian, out); err != nil {
			return nil, err
		}
	} else {
		out := nestedHeaderBlock{
			Version:      p.version,
			Flags:        p.flags,
			RecordCount:  uint32(p.RecordCount()),
			NextObjectID: p.nextObjectID,
		}
		if err := binary.Write(&block, binary.LittleEndian, out); err != nil {
			return nil, err
		}
	}
	hedr.Set(block.Bytes())
	if err := rec.AddField(hedr); err != nil {
		return nil, err
	}
	if p.format == FormatNested {
		if p.hasAuthor {
			author := wire.NewField(wire.TagCNAM, nil)
			author.SetText(p.author)
			if err := rec.AddField(author); err != nil {
				return nil, err
			}
		}
		if p.hasDescription {
			description := wire.NewField(wire.TagSNAM, nil)
			description.SetText(p.description)
			if err := rec.AddField(description); err != nil {
				return nil, err
			}
		}
	}
	for _, m := range p.masters {
		name := wire.NewField(wire.TagMAST, nil)
		name.SetText(m.Name)
		if err := rec.AddField(name); err != nil {
			return nil, err
		}
		size := wire.NewField(wire.TagDATA, nil)
		size.SetUint64(m.Size)
		if err := rec.AddField(size); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (p *Plugin) headerTag() wire.Tag {
	if p.format == FormatFlat {
		return wire.TagTES3
	}
	return wire.TagTES4
}
