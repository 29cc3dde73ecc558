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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidProject indicates a Project failed validation.
	ErrInvalidProject = errors.New("invalid project")

	// ErrInvalidField indicates a Field failed validation.
	ErrInvalidField = errors.New("invalid field")

	// ErrInvalidClassification indicates a Classification failed validation.
	ErrInvalidClassification = errors.New("invalid classification")

	// ErrEmptyURL indicates the project URL is empty.
	ErrEmptyURL = errors.New("project url cannot be empty")

	// ErrEmptyName indicates a Name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrInvalidDomain indicates an unknown field domain.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrNoKeywords indicates a field carries no keywords.
	ErrNoKeywords = errors.New("field must have keywords")

	// ErrConfidenceOutOfRange indicates a confidence outside [0,1].
	ErrConfidenceOutOfRange = errors.New("confidence must be between 0 and 1")
)
