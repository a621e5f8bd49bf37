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
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "goesp",
	Short: "Inspect and verify game-data plugin archives",
	Long: `goesp reads flat and nested game-data plugin archives and prints
their headers, master dependencies, and record trees.`,
	SilenceUsage: true,
}

var verbose bool

func main() {
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)
	cobra.OnInitialize(func() {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		)
		slog.SetDefault(logger)
	})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
