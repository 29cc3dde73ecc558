package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/scicat/core"
)

// Signal names as stored in classification records.
const (
	SignalKeywords   = "keywords"
	SignalReadme     = "readme"
	SignalPackages   = "packages"
	SignalIndicators = "indicators"
)

// Signal weights.
const (
	KeywordWeight   = 0.4
	ReadmeWeight    = 0.3
	PackageWeight   = 0.2
	IndicatorWeight = 0.1
)

const (
	minPartialLength = 4
	packageFloor     = 0.8
)

var keywordSeparator = regexp.MustCompile(`[-_]`)

// signalResult is the outcome of one signal. ok is false when the project
// lacks the signal's input, which removes the signal from the weighting.
type signalResult struct {
	score float64
	ok    bool
}

func computed(score float64) signalResult {
	return signalResult{score: score, ok: true}
}

// projectFeatures holds the per-project inputs shared by every field.
type projectFeatures struct {
	keywords    []string
	keywordSet  map[string]struct{}
	readmeTerms map[string]struct{}
	hasReadme   bool
	packages    map[string]struct{}
	indicators  map[string]struct{} // matched indicator phrases
	hasContent  bool
}

func extractFeatures(project *core.Project, m *model) *projectFeatures {
	f := &projectFeatures{}

	if len(project.Keywords) > 0 {
		f.keywords, f.keywordSet = splitKeywords(project.Keywords)
	}

	if project.HasReadme() {
		f.hasReadme = true
		f.readmeTerms = readmeTerms(project.Readme)
	}

	f.packages = packageNames(project)

	if project.HasReadme() || strings.TrimSpace(project.Description) != "" {
		f.hasContent = true
		content := strings.ToLower(project.Readme + " " + project.Description)
		f.indicators = m.matchIndicators(content)
	}
	return f
}

// splitKeywords lowercases keywords, splits them on hyphens and
// underscores and removes duplicates, keeping first-seen order.
func splitKeywords(keywords []string) ([]string, map[string]struct{}) {
	set := make(map[string]struct{})
	out := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		for _, part := range keywordSeparator.Split(strings.ToLower(keyword), -1) {
			if part == "" {
				continue
			}
			if _, seen := set[part]; seen {
				continue
			}
			set[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out, set
}

// packageNames collects lowercase names of a project's packages and the
// dependencies listed in its manifests.
func packageNames(project *core.Project) map[string]struct{} {
	names := make(map[string]struct{})
	for _, pkg := range project.Packages {
		if name := strings.ToLower(strings.TrimSpace(pkg.Name)); name != "" {
			names[name] = struct{}{}
		}
	}
	for _, manifest := range project.Manifests {
		for _, dep := range manifest.Dependencies {
			if name := strings.ToLower(strings.TrimSpace(dep.PackageName)); name != "" {
				names[name] = struct{}{}
			}
		}
	}
	return names
}

// keywordSignal scores keyword overlap. Exact matches count fully; a
// substring relation between words of four or more characters that match
// nothing exactly counts a quarter.
func keywordSignal(f *projectFeatures, field *fieldModel) signalResult {
	if len(f.keywords) == 0 {
		return signalResult{}
	}
	if len(field.keywords) == 0 {
		return computed(0)
	}

	direct := 0
	for keyword := range field.keywordSet {
		if _, ok := f.keywordSet[keyword]; ok {
			direct++
		}
	}

	partial := 0.0
	for _, pk := range f.keywords {
		if utf8.RuneCountInString(pk) < minPartialLength {
			continue
		}
		if _, ok := field.keywordSet[pk]; ok {
			continue
		}
		for _, fk := range field.keywords {
			if utf8.RuneCountInString(fk) < minPartialLength {
				continue
			}
			if _, ok := f.keywordSet[fk]; ok {
				continue
			}
			if strings.Contains(pk, fk) || strings.Contains(fk, pk) {
				partial += 0.5
			}
		}
	}

	matches := float64(direct) + partial*0.5
	return computed(min(1, matches/float64(len(field.keywords))))
}

// readmeSignal is the share of field keywords found among readme terms.
func readmeSignal(f *projectFeatures, field *fieldModel) signalResult {
	if !f.hasReadme {
		return signalResult{}
	}
	if len(field.keywords) == 0 || len(f.readmeTerms) == 0 {
		return computed(0)
	}

	matches := 0
	for _, keyword := range field.keywords {
		if _, ok := f.readmeTerms[keyword]; ok {
			matches++
		}
	}
	return computed(float64(matches) / float64(len(field.keywords)))
}

// packageSignal starts at 0.8 as soon as one field package is used.
func packageSignal(f *projectFeatures, field *fieldModel) signalResult {
	if len(f.packages) == 0 {
		return signalResult{}
	}
	if len(field.packages) == 0 {
		return computed(0)
	}

	matches := 0
	for name := range field.packageSet {
		if _, ok := f.packages[name]; ok {
			matches++
		}
	}
	if matches == 0 {
		return computed(0)
	}
	return computed(min(1, packageFloor+(1-packageFloor)*float64(matches)/float64(len(field.packages))))
}

// indicatorSignal is the share of field jargon found in readme and description.
func indicatorSignal(f *projectFeatures, field *fieldModel) signalResult {
	if !f.hasContent {
		return signalResult{}
	}
	if len(field.indicators) == 0 {
		return computed(0)
	}

	matches := 0
	for _, phrase := range field.indicators {
		if _, ok := f.indicators[phrase]; ok || phrase == "" {
			matches++
		}
	}
	return computed(float64(matches) / float64(len(field.indicators)))
}

// scoreField combines the signals, renormalizing over those that were computed.
func scoreField(f *projectFeatures, field *fieldModel) core.FieldScore {
	results := []struct {
		name   string
		weight float64
		result signalResult
	}{
		{SignalKeywords, KeywordWeight, keywordSignal(f, field)},
		{SignalReadme, ReadmeWeight, readmeSignal(f, field)},
		{SignalPackages, PackageWeight, packageSignal(f, field)},
		{SignalIndicators, IndicatorWeight, indicatorSignal(f, field)},
	}

	signals := make(map[string]float64, len(results))
	total, weights := 0.0, 0.0
	for _, r := range results {
		if !r.result.ok {
			continue
		}
		signals[r.name] = r.result.score
		total += r.result.score * r.weight
		weights += r.weight
	}

	score := 0.0
	if weights > 0 {
		score = total / weights
	}
	return core.FieldScore{
		Field:   field.field,
		Score:   max(0, min(1, score)),
		Signals: signals,
	}
}
