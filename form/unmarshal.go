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

package form

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/openmodkit/goesp/wire"

	"github.com/jinzhu/copier"
)

// Unmarshal fills the destination struct from a record's fields using
// `esp` struct tags. Each tagged field names the 4-byte field tag that
// carries its value, optionally with a ",required" option:
//
//	type Book struct {
//		ID   string `esp:"NAME,required"`
//		Name string `esp:"FNAM"`
//	}
//
// Supported field types: string (NUL-terminated text), uint8, uint16,
// uint32, uint64, int32, float32, and []byte (raw payload copy). The
// record's first field with the named tag wins; untagged struct fields are
// ignored. The decode happens on a reflection-built temporary struct that
// is copied into the destination afterwards, so embedded base types on the
// destination are preserved untouched
func Unmarshal(rec *wire.Record, dest any) error {
	valueDest := reflect.ValueOf(dest)
	if valueDest.Kind() != reflect.Pointer || valueDest.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("destination must be a pointer to a struct")
	}
	typeDestElem := valueDest.Elem().Type()
	var tmpFields []reflect.StructField
	for i := 0; i < typeDestElem.NumField(); i++ {
		tmpField := typeDestElem.Field(i)
		if tmpField.IsExported() && tmpField.Tag.Get("esp") != "" {
			tmpFields = append(tmpFields, tmpField)
		}
	}
	tmpDest := reflect.New(reflect.StructOf(tmpFields))
	for i, tmpField := range tmpFields {
		tagName, opts, _ := strings.Cut(tmpField.Tag.Get("esp"), ",")
		required := opts == "required"
		f, err := rec.Field(wire.MakeTag(tagName))
		if err != nil {
			return err
		}
		if f == nil {
			if required {
				return wire.MissingFieldError{
					Record: rec.Tag(),
					Field:  wire.MakeTag(tagName),
				}
			}
			continue
		}
		if err := setFromField(tmpDest.Elem().Field(i), f); err != nil {
			return err
		}
	}
	return copier.Copy(dest, tmpDest.Interface())
}

func setFromField(v reflect.Value, f *wire.Field) error {
	switch v.Kind() {
	case reflect.String:
		s, err := f.Text()
		if err != nil {
			return err
		}
		v.SetString(s)
	case reflect.Uint8:
		n, err := f.Uint8()
		if err != nil {
			return err
		}
		v.SetUint(uint64(n))
	case reflect.Uint16:
		n, err := f.Uint16()
		if err != nil {
			return err
		}
		v.SetUint(uint64(n))
	case reflect.Uint32:
		n, err := f.Uint32()
		if err != nil {
			return err
		}
		v.SetUint(uint64(n))
	case reflect.Uint64:
		n, err := f.Uint64()
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Int32:
		n, err := f.Int32()
		if err != nil {
			return err
		}
		v.SetInt(int64(n))
	case reflect.Float32:
		n, err := f.Float32()
		if err != nil {
			return err
		}
		v.SetFloat(float64(n))
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.Uint8 {
			return fmt.Errorf("unsupported slice type %s for field %s", v.Type(), f.Tag())
		}
		data := make([]byte, len(f.Data()))
		copy(data, f.Data())
		v.SetBytes(data)
	default:
		return fmt.Errorf("unsupported type %s for field %s", v.Type(), f.Tag())
	}
	return nil
}

// Marshal writes the source struct's `esp`-tagged fields into the record
// in struct declaration order, replacing existing fields with the same tag
// and appending the rest. Zero-valued optional fields are skipped so a
// sparse object doesn't emit empty fields
func Marshal(src any, rec *wire.Record) error {
	valueSrc := reflect.ValueOf(src)
	if valueSrc.Kind() == reflect.Pointer {
		valueSrc = valueSrc.Elem()
	}
	if valueSrc.Kind() != reflect.Struct {
		return fmt.Errorf("source must be a struct or pointer to one")
	}
	typeSrc := valueSrc.Type()
	for i := 0; i < typeSrc.NumField(); i++ {
		fieldType := typeSrc.Field(i)
		espTag := fieldType.Tag.Get("esp")
		if !fieldType.IsExported() || espTag == "" {
			continue
		}
		tagName, opts, _ := strings.Cut(espTag, ",")
		required := opts == "required"
		v := valueSrc.Field(i)
		if !required && v.IsZero() {
			continue
		}
		f := wire.NewField(wire.MakeTag(tagName), nil)
		if err := setFieldValue(f, v); err != nil {
			return err
		}
		if err := rec.SetField(f.Tag(), f.Data()); err != nil {
			return err
		}
	}
	return nil
}

func setFieldValue(f *wire.Field, v reflect.Value) error {
	switch v.Kind() {
	case reflect.String:
		f.SetText(v.String())
	case reflect.Uint8:
		f.Set([]byte{uint8(v.Uint())})
	case reflect.Uint16:
		data := make([]byte, 2)
		data[0] = byte(v.Uint())
		data[1] = byte(v.Uint() >> 8)
		f.Set(data)
	case reflect.Uint32:
		f.SetUint32(uint32(v.Uint()))
	case reflect.Uint64:
		f.SetUint64(v.Uint())
	case reflect.Int32:
		f.SetInt32(int32(v.Int()))
	case reflect.Float32:
		f.SetFloat32(float32(v.Float()))
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.Uint8 {
			return fmt.Errorf("unsupported slice type %s for field %s", v.Type(), f.Tag())
		}
		f.Set(append([]byte(nil), v.Bytes()...))
	default:
		return fmt.Errorf("unsupported type %s for field %s", v.Type(), f.Tag())
	}
	return nil
}
