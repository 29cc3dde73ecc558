package relevance

import (
	"math"

	"github.com/poiesic/scicat/corpus"
)

// MaxScore is the highest relevance score.
const MaxScore = 100.0

// Score rates a document against the indicators on a 0-100 scale.
//
// Half of the score is coverage, the share of indicators present in the
// document. The other half is importance: each present indicator adds
// 1/(1+idf), relative to the sum over all indicators. The result is
// rounded to two decimals.
func Score(doc corpus.Document, indicators Indicators) float64 {
	if len(doc) == 0 || len(indicators) == 0 {
		return 0
	}

	counts := doc.Counts()
	found := 0
	weighted := 0.0
	for term, value := range indicators {
		if counts[term] > 0 {
			found++
			weighted += weight(value)
		}
	}

	coverage := float64(found) / float64(len(indicators)) * 50
	importance := 0.0
	if total := indicators.TotalWeight(); total > 0 {
		importance = weighted / total * 50
	}

	score := math.Round((coverage+importance)*100) / 100
	return max(0, min(score, MaxScore))
}
