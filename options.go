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

package goesp

import (
	"log/slog"
)

// WorldOptionFunc is a type that represents functions that modify the World config
type WorldOptionFunc func(*World)

// WithLogger specifies the logger to use. If none is provided, slog.Default() is used
func WithLogger(logger *slog.Logger) WorldOptionFunc {
	return func(w *World) {
		w.logger = logger
	}
}

// WithConcurrency specifies how many plugin files may be decoded in
// parallel during a load. Decoding is parallelized per file only; the
// assembled load order is always the requested order. The default is 1
// (fully sequential)
func WithConcurrency(n int) WorldOptionFunc {
	return func(w *World) {
		w.concurrency = n
	}
}
