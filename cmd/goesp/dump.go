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
	"fmt"
	"strings"

	"github.com/openmodkit/goesp/plugin"
	"github.com/openmodkit/goesp/wire"

	"github.com/spf13/cobra"
)

var dumpFields bool

var dumpCmd = &cobra.Command{
	Use:   "dump <plugin>",
	Short: "Print a plugin's header, masters, and record tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plugin.FromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("format:      %s\n", p.Format())
		fmt.Printf("version:     %g\n", p.Version())
		fmt.Printf("master flag: %t\n", p.IsMaster())
		if p.Author() != "" {
			fmt.Printf("author:      %s\n", p.Author())
		}
		if p.Description() != "" {
			fmt.Printf("description: %s\n", p.Description())
		}
		fmt.Printf("records:     %d\n", p.RecordCount())
		for _, m := range p.Masters() {
			fmt.Printf("master:      %s (%d bytes)\n", m.Name, m.Size)
		}
		for _, g := range p.Groups() {
			dumpGroup(g, 0)
		}
		for _, rec := range p.Records() {
			dumpRecord(rec, 0)
		}
		return nil
	},
}

func dumpGroup(g *wire.Group, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%sGRUP %s (stamp %d, %d records)\n",
		indent, g.Kind(), g.Stamp(), g.RecordCount())
	for _, sub := range g.Groups() {
		dumpGroup(sub, depth+1)
	}
	for _, rec := range g.Records() {
		dumpRecord(rec, depth+1)
	}
}

func dumpRecord(rec *wire.Record, depth int) {
	indent := strings.Repeat("  ", depth)
	id, err := rec.ID()
	if err != nil {
		fmt.Printf("%s%s <undecodable: %v>\n", indent, rec.Tag(), err)
		return
	}
	if id != "" {
		fmt.Printf("%s%s %q\n", indent, rec.Tag(), id)
	} else {
		fmt.Printf("%s%s\n", indent, rec.Tag())
	}
	if dumpFields {
		fields, err := rec.Fields()
		if err == nil {
			for _, f := range fields {
				fmt.Printf("%s  %s (%d bytes)\n", indent, f.Tag(), len(f.Data()))
			}
		}
	}
	for _, sub := range rec.Groups() {
		dumpGroup(sub, depth+1)
	}
}

func init() {
	dumpCmd.Flags().BoolVar(
		&dumpFields, "fields", false, "also list each record's fields",
	)
	rootCmd.AddCommand(dumpCmd)
}
