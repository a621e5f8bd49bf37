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

// Package tes4 is the nested-format form catalog. Record-type tags are
// shared with the flat format but the field layouts differ, so the two
// catalogs are separate registries
package tes4

import (
	"github.com/openmodkit/goesp/form"
	"github.com/openmodkit/goesp/wire"
)

// Registry returns a fresh registry of the nested-format forms
func Registry() *form.Registry {
	r := form.NewRegistry()
	r.Register(&Book{})
	r.Register(&GameSetting{})
	return r
}

// Book is a readable in-game book
type Book struct {
	ID     string  `esp:"EDID,required"`
	Name   string  `esp:"FULL"`
	Model  string  `esp:"MODL"`
	Text   string  `esp:"DESC"`
	Weight float32 `esp:"DATA"`
}

func (b *Book) FormTag() wire.Tag {
	return wire.MakeTag("BOOK")
}

func (b *Book) DecodeRecord(rec *wire.Record) error {
	if err := form.CheckTag(b, rec); err != nil {
		return err
	}
	return form.Unmarshal(rec, b)
}

func (b *Book) EncodeRecord(rec *wire.Record) error {
	if err := form.CheckTag(b, rec); err != nil {
		return err
	}
	return form.Marshal(b, rec)
}

// GameSetting is a single engine tunable; the value payload's
// interpretation follows the identifier's first letter, so it is kept raw
type GameSetting struct {
	ID   string `esp:"EDID,required"`
	Data []byte `esp:"DATA"`
}

func (g *GameSetting) FormTag() wire.Tag {
	return wire.MakeTag("GMST")
}

func (g *GameSetting) DecodeRecord(rec *wire.Record) error {
	if err := form.CheckTag(g, rec); err != nil {
		return err
	}
	return form.Unmarshal(rec, g)
}

func (g *GameSetting) EncodeRecord(rec *wire.Record) error {
	if err := form.CheckTag(g, rec); err != nil {
		return err
	}
	return form.Marshal(g, rec)
}
