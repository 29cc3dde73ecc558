package ingestion

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/scicat/core"
)

// maxLineSize bounds one import line; readmes can be long.
const maxLineSize = 16 * 1024 * 1024

// DefaultReadBatchSize is the number of projects handed to the callback at once.
const DefaultReadBatchSize = 100

// projectRecord is the JSON Lines shape of an imported project.
type projectRecord struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Readme       string           `json:"readme"`
	URL          string           `json:"url"`
	Keywords     []string         `json:"keywords"`
	Packages     []packageRecord  `json:"packages"`
	Manifests    []manifestRecord `json:"dependencies"`
	Fork         bool             `json:"fork"`
	ScienceScore float64          `json:"science_score"`
	Score        *float64         `json:"score"`
	Reference    bool             `json:"reference"`
}

type packageRecord struct {
	Name      string   `json:"name"`
	Ecosystem string   `json:"ecosystem"`
	Downloads int64    `json:"downloads"`
	Licenses  []string `json:"licenses"`
}

type manifestRecord struct {
	Path         string             `json:"filepath"`
	Dependencies []dependencyRecord `json:"dependencies"`
}

type dependencyRecord struct {
	PackageName string `json:"package_name"`
	Kind        string `json:"kind"`
}

// ReadProjects decodes one project per line from r and calls fn with
// batches of up to batchSize projects. Blank lines are skipped.
// Keywords are lowercased, trimmed and deduplicated in order.
func ReadProjects(r io.Reader, batchSize int, fn func([]*core.Project) error) error {
	if batchSize < 1 {
		batchSize = DefaultReadBatchSize
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	batch := make([]*core.Project, 0, batchSize)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var record projectRecord
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrInvalidRecord, line, err)
		}
		batch = append(batch, record.toProject())

		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]*core.Project, 0, batchSize)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

func (r projectRecord) toProject() *core.Project {
	project := &core.Project{
		Name:         r.Name,
		Description:  r.Description,
		Readme:       r.Readme,
		URL:          r.URL,
		Keywords:     normalizeKeywords(r.Keywords),
		Fork:         r.Fork,
		ScienceScore: r.ScienceScore,
		Reference:    r.Reference,
	}
	if r.Score != nil {
		project.Score = *r.Score
	}

	for _, pkg := range r.Packages {
		project.Packages = append(project.Packages, core.Package{
			Name:      pkg.Name,
			Ecosystem: pkg.Ecosystem,
			Downloads: pkg.Downloads,
			Licenses:  pkg.Licenses,
		})
	}
	for _, m := range r.Manifests {
		manifest := core.Manifest{Path: m.Path}
		for _, dep := range m.Dependencies {
			manifest.Dependencies = append(manifest.Dependencies, core.Dependency{
				PackageName: dep.PackageName,
				Kind:        dep.Kind,
			})
		}
		project.Manifests = append(project.Manifests, manifest)
	}
	return project
}

func normalizeKeywords(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
