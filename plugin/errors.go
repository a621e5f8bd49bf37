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
	"fmt"

	"github.com/openmodkit/goesp/wire"
)

// MasterPairError is returned when the header's master declarations
// violate the MAST/DATA pairing rule: every MAST must be immediately
// followed by its DATA size hint, and DATA may never appear on its own
type MasterPairError struct {
	Field wire.Tag
}

func (e MasterPairError) Error() string {
	if e.Field == wire.TagDATA {
		return "DATA size hint with no preceding MAST"
	}
	return fmt.Sprintf("MAST not followed by DATA (found %s)", e.Field)
}

// RecordCountError is returned when the stream ends before the number of
// records declared in the header could be read
type RecordCountError struct {
	Declared uint32
	Read     int
	Err      error
}

func (e RecordCountError) Error() string {
	return fmt.Sprintf(
		"header declares %d records, stream ended after %d: %s",
		e.Declared,
		e.Read,
		e.Err,
	)
}

func (e RecordCountError) Unwrap() error {
	return e.Err
}

// AmbiguousIDError is returned when a single plugin contains more than one
// record with the same identifier. Two different plugins defining the same
// identifier is normal override layering; a duplicate within one archive
// has no well-defined meaning
type AmbiguousIDError struct {
	ID string
}

func (e AmbiguousIDError) Error() string {
	return fmt.Sprintf("plugin defines identifier %q more than once", e.ID)
}
