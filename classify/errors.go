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


package classify

import "errors"

var (
	// ErrFieldRepositoryRequired is returned when a field repository is not provided.
	ErrFieldRepositoryRequired = errors.New("field repository required")

	// ErrClassificationRepositoryRequired is returned when a classification repository is not provided.
	ErrClassificationRepositoryRequired = errors.New("classification repository required")

	// ErrProjectRequired is returned when classifying a nil project or one without an ID.
	ErrProjectRequired = errors.New("project with an ID required")
)
