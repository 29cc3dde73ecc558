package core

import (
	"errors"
	"math"
	"testing"
)

func TestValidateProject(t *testing.T) {
	tests := []struct {
		name    string
		project *Project
		wantErr error
	}{
		{
			name:    "valid project",
			project: &Project{Name: "scipy", URL: "https://github.com/scipy/scipy"},
			wantErr: nil,
		},
		{
			name:    "valid project with no text",
			project: &Project{Name: "x", URL: "https://example.org/x"},
			wantErr: nil,
		},
		{
			name:    "nil project",
			project: nil,
			wantErr: ErrInvalidProject,
		},
		{
			name:    "empty url",
			project: &Project{Name: "scipy"},
			wantErr: ErrEmptyURL,
		},
		{
			name:    "blank name",
			project: &Project{Name: "  ", URL: "https://github.com/scipy/scipy"},
			wantErr: ErrEmptyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProject(tt.project)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateProject() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateProject() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateField(t *testing.T) {
	tests := []struct {
		name    string
		field   *Field
		wantErr error
	}{
		{
			name:    "valid field",
			field:   &Field{Name: "Physics", Domain: DomainPhysicalSciences, Keywords: []string{"quantum"}},
			wantErr: nil,
		},
		{
			name:    "nil field",
			field:   nil,
			wantErr: ErrInvalidField,
		},
		{
			name:    "empty name",
			field:   &Field{Domain: DomainPhysicalSciences, Keywords: []string{"quantum"}},
			wantErr: ErrEmptyName,
		},
		{
			name:    "unknown domain",
			field:   &Field{Name: "Alchemy", Domain: "occult", Keywords: []string{"lead"}},
			wantErr: ErrInvalidDomain,
		},
		{
			name:    "no keywords",
			field:   &Field{Name: "Physics", Domain: DomainPhysicalSciences},
			wantErr: ErrNoKeywords,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateField(tt.field)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateField() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateField() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateClassification(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		wantErr    error
	}{
		{"zero", 0, nil},
		{"one", 1, nil},
		{"middle", 0.42, nil},
		{"negative", -0.1, ErrConfidenceOutOfRange},
		{"above one", 1.01, ErrConfidenceOutOfRange},
		{"nan", math.NaN(), ErrConfidenceOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClassification(&Classification{Confidence: tt.confidence})
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateClassification() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateClassification() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := ValidateClassification(nil); !errors.Is(err, ErrInvalidClassification) {
		t.Errorf("ValidateClassification(nil) error = %v", err)
	}
}
