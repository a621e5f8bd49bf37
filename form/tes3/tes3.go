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

// Package tes3 is the flat-format form catalog. The full per-object-type
// catalog lives with each consuming application; the forms here cover the
// types the tooling in this repository needs
package tes3

import (
	"github.com/openmodkit/goesp/form"
)

// Registry returns a fresh registry of the flat-format forms
func Registry() *form.Registry {
	r := form.NewRegistry()
	r.Register(&Book{})
	r.Register(&GameSetting{})
	return r
}
