package relevance

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/scicat/idf"
)

// DefaultPercentile is the share of lowest-idf terms considered as indicators.
const DefaultPercentile = 0.05

const (
	minIndicatorLength = 3
	minIndicatorIDF    = 1.0
	maxIndicatorIDF    = 4.0
)

// denylist drops hosting, badge and markup tokens.
var denylist = []string{
	"joss", "published", "https", "githubcom", "badge", "statussvg",
	"svg", "png", "jpg", "gif", "http", "www", "com", "org", "net",
}

// Indicators maps scientific indicator terms to their corpus idf.
type Indicators map[string]float64

// TotalWeight returns the sum of every indicator's weight.
func (in Indicators) TotalWeight() float64 {
	total := 0.0
	for _, value := range in {
		total += weight(value)
	}
	return total
}

// SelectIndicators picks the scientific indicator terms of a table.
//
// Terms are sorted by ascending idf and the lowest percentile share is kept.
// From that band only terms longer than two characters, with idf strictly
// between 1 and 4 and free of denylisted substrings survive.
func SelectIndicators(table idf.Table, percentile float64) Indicators {
	if len(table) == 0 || percentile <= 0 {
		return Indicators{}
	}
	percentile = min(percentile, 1)

	entries := table.Sorted()
	cutoff := int(float64(len(entries)) * percentile)

	indicators := make(Indicators)
	for _, entry := range entries[:cutoff] {
		if utf8.RuneCountInString(entry.Term) < minIndicatorLength {
			continue
		}
		if entry.IDF <= minIndicatorIDF || entry.IDF >= maxIndicatorIDF {
			continue
		}
		if denied(entry.Term) {
			continue
		}
		indicators[entry.Term] = entry.IDF
	}
	return indicators
}

func denied(term string) bool {
	for _, pattern := range denylist {
		if strings.Contains(term, pattern) {
			return true
		}
	}
	return false
}

func weight(value float64) float64 {
	return 1 / (1 + value)
}
