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

package wire

import (
	"fmt"
	"unicode"
)

// Tag is the 4-byte identifier that prefixes every field, record, and
// group on the wire
type Tag [4]byte

// Well-known tags shared by both plugin formats
var (
	TagGRUP = MakeTag("GRUP")
	TagTES3 = MakeTag("TES3")
	TagTES4 = MakeTag("TES4")
	TagHEDR = MakeTag("HEDR")
	TagMAST = MakeTag("MAST")
	TagDATA = MakeTag("DATA")
	TagCNAM = MakeTag("CNAM")
	TagSNAM = MakeTag("SNAM")
	TagNAME = MakeTag("NAME")
	TagEDID = MakeTag("EDID")
)

// MakeTag builds a Tag from a string. Strings shorter than 4 bytes are
// padded with NUL; longer strings are truncated
func MakeTag(s string) Tag {
	var t Tag
	copy(t[:], s)
	return t
}

func (t Tag) String() string {
	for _, c := range t {
		if c > unicode.MaxASCII || !unicode.IsPrint(rune(c)) {
			// Fall back to a hex rendering for non-printable tags
			return fmt.Sprintf("0x%02x%02x%02x%02x", t[0], t[1], t[2], t[3])
		}
	}
	return string(t[:])
}
