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
	"github.com/openmodkit/goesp/form"
	"github.com/openmodkit/goesp/wire"
)

// Book is a readable in-game book or scroll
type Book struct {
	ID     string `esp:"NAME,required"`
	Model  string `esp:"MODL"`
	Name   string `esp:"FNAM"`
	Script string `esp:"SCRI"`
	Icon   string `esp:"ITEX"`
	Text   string `esp:"TEXT"`
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
