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

	"github.com/openmodkit/goesp/plugin"

	"github.com/spf13/cobra"
)

var mastersCmd = &cobra.Command{
	Use:   "masters <plugin>",
	Short: "List a plugin's master dependencies in declaration order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plugin.FromFile(args[0])
		if err != nil {
			return err
		}
		for _, m := range p.Masters() {
			fmt.Printf("%s\t%d\n", m.Name, m.Size)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mastersCmd)
}
