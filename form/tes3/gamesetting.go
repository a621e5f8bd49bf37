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

package tes3

import (
	"fmt"

	"github.com/openmodkit/goesp/form"
	"github.com/openmodkit/goesp/wire"
)

var (
	tagSTRV = wire.MakeTag("STRV")
	tagINTV = wire.MakeTag("INTV")
	tagFLTV = wire.MakeTag("FLTV")
)

// GameSetting is a single engine tunable. The value field carries exactly
// one of a string, integer, or float value, so this form decodes by hand
// instead of through struct tags
type GameSetting struct {
	ID    string
	Str   *string
	Int   *int32
	Float *float32
}

func (g *GameSetting) FormTag() wire.Tag {
	return wire.MakeTag("GMST")
}

func (g *GameSetting) DecodeRecord(rec *wire.Record) error {
	if err := form.CheckTag(g, rec); err != nil {
		return err
	}
	fields, err := rec.Fields()
	if err != nil {
		return err
	}
	g.Str, g.Int, g.Float = nil, nil, nil
	seenValue := false
	for _, f := range fields {
		switch f.Tag() {
		case wire.TagNAME:
			id, err := f.Text()
			if err != nil {
				return err
			}
			g.ID = id
		case tagSTRV:
			s, err := f.Text()
			if err != nil {
				return err
			}
			g.Str = &s
			seenValue = true
		case tagINTV:
			v, err := f.Int32()
			if err != nil {
				return err
			}
			g.Int = &v
			seenValue = true
		case tagFLTV:
			v, err := f.Float32()
			if err != nil {
				return err
			}
			g.Float = &v
			seenValue = true
		default:
			return wire.UnexpectedFieldError{Record: rec.Tag(), Field: f.Tag()}
		}
	}
	if g.ID == "" {
		return wire.MissingFieldError{Record: rec.Tag(), Field: wire.TagNAME}
	}
	if !seenValue {
		return fmt.Errorf("game setting %q has no STRV, INTV, or FLTV value", g.ID)
	}
	return nil
}

func (g *GameSetting) EncodeRecord(rec *wire.Record) error {
	if err := form.CheckTag(g, rec); err != nil {
		return err
	}
	if err := rec.SetField(wire.TagNAME, zstring(g.ID)); err != nil {
		return err
	}
	switch {
	case g.Str != nil:
		return rec.SetField(tagSTRV, zstring(*g.Str))
	case g.Int != nil:
		f := wire.NewField(tagINTV, nil)
		f.SetInt32(*g.Int)
		return rec.SetField(tagINTV, f.Data())
	case g.Float != nil:
		f := wire.NewField(tagFLTV, nil)
		f.SetFloat32(*g.Float)
		return rec.SetField(tagFLTV, f.Data())
	}
	return fmt.Errorf("game setting %q has no value to encode", g.ID)
}

func zstring(s string) []byte {
	return append([]byte(s), 0)
}
