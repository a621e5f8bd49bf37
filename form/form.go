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

// Package form maps records to strongly-typed domain objects. Each domain
// type implements the Form interface and is selected by record-type tag
// through a Registry, one registry per game format
package form

import (
	"fmt"
	"reflect"

	"github.com/openmodkit/goesp/wire"

	"github.com/jinzhu/copier"
)

// Form is the contract between the codec core and a per-game catalog of
// domain types: decode populates the object from a record's fields, encode
// writes them back
type Form interface {
	// FormTag returns the record-type tag the form decodes
	FormTag() wire.Tag
	// DecodeRecord populates the form from the record's fields
	DecodeRecord(rec *wire.Record) error
	// EncodeRecord writes the form's state into the record's fields
	EncodeRecord(rec *wire.Record) error
}

// TagMismatchError is returned when a form is asked to decode a record of
// the wrong type
type TagMismatchError struct {
	Expected wire.Tag
	Actual   wire.Tag
}

func (e TagMismatchError) Error() string {
	return fmt.Sprintf(
		"expected record type %s, found %s",
		e.Expected,
		e.Actual,
	)
}

// CheckTag is the precondition gate every DecodeRecord implementation
// starts with
func CheckTag(f Form, rec *wire.Record) error {
	if rec.Tag() != f.FormTag() {
		return TagMismatchError{Expected: f.FormTag(), Actual: rec.Tag()}
	}
	return nil
}

// Registry maps record-type tags to form prototypes. The two game formats
// reuse tags with different layouts, so each format carries its own
// registry
type Registry struct {
	prototypes map[wire.Tag]Form
}

func NewRegistry() *Registry {
	return &Registry{
		prototypes: make(map[wire.Tag]Form),
	}
}

// Register adds a prototype instance for its record-type tag. New clones
// the prototype, so any defaults preset on it carry over to every
// instance
func (r *Registry) Register(proto Form) {
	r.prototypes[proto.FormTag()] = proto
}

// New returns a fresh instance of the form registered for the tag
func (r *Registry) New(tag wire.Tag) (Form, error) {
	proto, ok := r.prototypes[tag]
	if !ok {
		return nil, fmt.Errorf("no form registered for record type %s", tag)
	}
	value := reflect.ValueOf(proto)
	if value.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("form prototype for %s must be a pointer", tag)
	}
	inst := reflect.New(value.Elem().Type()).Interface().(Form)
	if err := copier.Copy(inst, proto); err != nil {
		return nil, err
	}
	return inst, nil
}

// Decode resolves the record's type tag against the registry and decodes
// a fresh form instance from it
func (r *Registry) Decode(rec *wire.Record) (Form, error) {
	f, err := r.New(rec.Tag())
	if err != nil {
		return nil, err
	}
	if err := f.DecodeRecord(rec); err != nil {
		return nil, err
	}
	return f, nil
}
