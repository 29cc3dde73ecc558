package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadmeText(t *testing.T) {
	readme := "# Title\n\nSome *emphasized* prose\nacross lines.\n\n" +
		"    indented code\n\n" +
		"<div>raw html</div>\n\n" +
		"Inline `code span` and <https://auto.link>.\n"

	got := readmeText(readme)
	assert.Contains(t, got, "Title")
	assert.Contains(t, got, "emphasized")
	assert.Contains(t, got, "prose across")
	assert.NotContains(t, got, "indented")
	assert.NotContains(t, got, "raw html")
	assert.NotContains(t, got, "code span")
	assert.NotContains(t, got, "auto.link")
}

func TestReadmeTerms(t *testing.T) {
	readme := "This toolkit simulates Protein-Folding, with GPU support. Visit http://x.org/tools\n\n" +
		"| Method | Accuracy |\n|---|---|\n| Monte-Carlo | high |\n"

	got := readmeTerms(readme)

	for _, want := range []string{"toolkit", "simulates", "protein-folding", "support", "visit", "method", "accuracy", "monte-carlo", "high"} {
		assert.Contains(t, got, want)
	}
	for _, absent := range []string{"this", "with", "gpu", "tools"} {
		assert.NotContains(t, got, absent)
	}
}
