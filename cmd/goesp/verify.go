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

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/openmodkit/goesp/plugin"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <plugin>",
	Short: "Decode a plugin and check that re-encoding reproduces it byte for byte",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
			zr, err := gzip.NewReader(bytes.NewReader(raw))
			if err != nil {
				return err
			}
			raw, err = io.ReadAll(zr)
			if err != nil {
				return err
			}
			if err := zr.Close(); err != nil {
				return err
			}
		}
		p, err := plugin.ReadPlugin(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("decoding %s: %w", args[0], err)
		}
		var out bytes.Buffer
		if _, err := p.WriteTo(&out); err != nil {
			return fmt.Errorf("re-encoding %s: %w", args[0], err)
		}
		if !bytes.Equal(raw, out.Bytes()) {
			return fmt.Errorf(
				"%s: re-encoded output differs from input (%d bytes in, %d bytes out)",
				args[0], len(raw), out.Len(),
			)
		}
		fmt.Printf("%s: ok (%d records, %d bytes)\n",
			args[0], p.RecordCount(), len(raw))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
