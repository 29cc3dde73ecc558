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


package badger

// Repositories bundles the catalog repositories sharing one backend.
type Repositories struct {
	Backend         *Backend
	Projects        *ProjectRepository
	Fields          *FieldRepository
	Classifications *ClassificationRepository
}

// NewRepositories creates every catalog repository on top of backend.
func NewRepositories(backend *Backend) (*Repositories, error) {
	projects, err := NewProjectRepository(backend)
	if err != nil {
		return nil, err
	}

	fields, err := NewFieldRepository(backend)
	if err != nil {
		projects.Close()
		return nil, err
	}

	classifications, err := NewClassificationRepository(backend)
	if err != nil {
		fields.Close()
		projects.Close()
		return nil, err
	}

	return &Repositories{
		Backend:         backend,
		Projects:        projects,
		Fields:          fields,
		Classifications: classifications,
	}, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must call Close when done.
func NewMemoryRepositories() (*Repositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	repos, err := NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return repos, nil
}

// Close closes the repositories and then the backend.
func (r *Repositories) Close() error {
	r.Classifications.Close()
	r.Fields.Close()
	r.Projects.Close()
	return r.Backend.Close()
}
