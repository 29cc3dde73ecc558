package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ProjectIDFromURL returns the content ID of a project's repository URL.
// URLs are compared case-insensitively.
func ProjectIDFromURL(url string) ID {
	return IDFromContent("project:" + strings.ToLower(strings.TrimSpace(url)))
}

// FieldIDFromName returns the content ID of a field name.
func FieldIDFromName(name string) ID {
	return IDFromContent("field:" + strings.TrimSpace(name))
}

// Domain groups scientific fields.
type Domain string

const (
	DomainPhysicalSciences Domain = "physical_sciences"
	DomainLifeSciences     Domain = "life_sciences"
	DomainSocialSciences   Domain = "social_sciences"
	DomainComputerScience  Domain = "computer_science"
)

// Package is a published package built from a project.
type Package struct {
	Name      string
	Ecosystem string
	Downloads int64
	Licenses  []string
}

// Dependency is a single entry of a dependency manifest.
type Dependency struct {
	PackageName string
	Kind        string // e.g. "runtime", "development"
}

// Manifest is a dependency file found in a project's repository.
type Manifest struct {
	Path         string
	Dependencies []Dependency
}

// Project is a cataloged software project.
type Project struct {
	Id             ID
	Name           string
	Description    string
	Readme         string
	URL            string
	Keywords       []string
	Packages       []Package
	Manifests      []Manifest
	Fork           bool
	ScienceScore   float64 // Prior relevance score, computed outside the catalog
	Score          float64 // Secondary ranking score (popularity); may be NaN
	Reference      bool    // Has peer-reviewed metadata; member of the reference corpus
	RelevanceScore float64 // Last IDF relevance score, 0-100
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// RepoName returns the last path segment of the project URL.
func (p *Project) RepoName() string {
	return LastPathSegment(p.URL)
}

// HasReadme reports whether the project carries readme text.
func (p *Project) HasReadme() bool {
	return strings.TrimSpace(p.Readme) != ""
}

// InCorpus reports whether the project belongs to the reference corpus.
func (p *Project) InCorpus() bool {
	return p.Reference && p.HasReadme()
}

// LastPathSegment returns the text after the last slash, ignoring trailing slashes.
func LastPathSegment(s string) string {
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Field is a scientific field used for classification.
type Field struct {
	Id         ID
	Name       string
	Domain     Domain
	Keywords   []string
	Packages   []string
	Indicators []string // Jargon phrases typical of the field
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Classification links a project to a field with a confidence score.
type Classification struct {
	ProjectId    ID
	FieldId      ID
	Confidence   float64            // 0.0-1.0
	Signals      map[string]float64 // Per-signal sub-scores
	ClassifiedAt time.Time
}

// FieldScore is the result of scoring a project against one field.
type FieldScore struct {
	Field   *Field
	Score   float64
	Signals map[string]float64
}

// MatchTier tags the search strategy that produced a result.
type MatchTier string

const (
	MatchExactPackageName   MatchTier = "exact_package_name"
	MatchExactName          MatchTier = "exact_name"
	MatchExactRepoName      MatchTier = "exact_repo_name"
	MatchNameStartsWith     MatchTier = "name_starts_with"
	MatchRepoNameStartsWith MatchTier = "repo_name_starts_with"
	MatchNameContains       MatchTier = "name_contains"
)

// ForkTier returns the tier tag used for forked projects.
func (t MatchTier) ForkTier() MatchTier {
	return "fork_" + t
}

// SearchResult is a project matched by a search query.
type SearchResult struct {
	Project    *Project
	Confidence int
	Tier       MatchTier
	MatchValue string
}
