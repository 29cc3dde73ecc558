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

import (
	"fmt"
	"math"
	"strings"
)

// ValidateProject validates a Project according to domain rules.
//
// Validation rules:
//   - URL must not be empty
//   - Name must not be empty
//
// NOT validated (computed elsewhere):
//   - ScienceScore, Score and RelevanceScore
//   - ID (derived from the URL on write)
func ValidateProject(project *Project) error {
	if project == nil {
		return fmt.Errorf("%w: project is nil", ErrInvalidProject)
	}

	if strings.TrimSpace(project.URL) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProject, ErrEmptyURL)
	}

	if strings.TrimSpace(project.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProject, ErrEmptyName)
	}

	return nil
}

// ValidateField validates a Field according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Domain must be one of the known domains
//   - Keywords must not be empty
func ValidateField(field *Field) error {
	if field == nil {
		return fmt.Errorf("%w: field is nil", ErrInvalidField)
	}

	if strings.TrimSpace(field.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidField, ErrEmptyName)
	}

	if err := ValidateDomain(field.Domain); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidField, err)
	}

	if len(field.Keywords) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidField, ErrNoKeywords)
	}

	return nil
}

// ValidateDomain validates that a Domain has a known value.
func ValidateDomain(domain Domain) error {
	switch domain {
	case DomainPhysicalSciences, DomainLifeSciences, DomainSocialSciences, DomainComputerScience:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidDomain, domain)
}

// ValidateClassification validates a Classification according to domain rules.
func ValidateClassification(c *Classification) error {
	if c == nil {
		return fmt.Errorf("%w: classification is nil", ErrInvalidClassification)
	}

	if math.IsNaN(c.Confidence) || c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("%w: %w: %v", ErrInvalidClassification, ErrConfidenceOutOfRange, c.Confidence)
	}

	return nil
}
