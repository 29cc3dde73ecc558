// Copyright 2025 Poiesic Systems
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


package idf

import "errors"

var (
	// ErrBuilderRequired is returned when a corpus builder is not provided.
	ErrBuilderRequired = errors.New("corpus builder required")

	// ErrNoSnapshot is returned when the durable store holds no table.
	ErrNoSnapshot = errors.New("no idf snapshot")

	// ErrCorruptSnapshot is returned when a stored table cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt idf snapshot")

	// ErrUnsupportedVersion is returned for snapshots written by another format version.
	ErrUnsupportedVersion = errors.New("unsupported idf snapshot version")

	// ErrMarkerHeld is returned when another worker holds a live build marker.
	ErrMarkerHeld = errors.New("idf build marker held by another worker")

	// ErrInvalidConfig is returned for non-positive durations.
	ErrInvalidConfig = errors.New("invalid idf cache config")
)
