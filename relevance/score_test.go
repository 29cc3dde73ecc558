package relevance

import (
	"math/rand/v2"
	"testing"

	"github.com/poiesic/scicat/corpus"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	indicators := Indicators{"simulation": 1, "solver": 3}

	tests := []struct {
		name string
		doc  corpus.Document
		want float64
	}{
		{"empty document", corpus.Document{}, 0},
		{"no indicators present", corpus.Document{"web", "server"}, 0},
		{"every indicator present", corpus.Document{"solver", "simulation"}, 100},
		{"repetition counts once", corpus.Document{"simulation", "simulation", "simulation"}, 58.33},
		{"rarer indicator weighs less", corpus.Document{"solver"}, 41.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.doc, indicators))
		})
	}
}

func TestScore_EmptyIndicators(t *testing.T) {
	assert.Equal(t, 0.0, Score(corpus.Document{"simulation"}, Indicators{}))
	assert.Equal(t, 0.0, Score(corpus.Document{"simulation"}, nil))
}

func TestScore_WithinBounds(t *testing.T) {
	vocabulary := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}
	rng := rand.New(rand.NewPCG(1, 2))

	for range 200 {
		indicators := Indicators{}
		for _, term := range vocabulary {
			if rng.IntN(2) == 0 {
				indicators[term] = 1 + rng.Float64()*3
			}
		}
		doc := corpus.Document{}
		for range rng.IntN(10) {
			doc = append(doc, vocabulary[rng.IntN(len(vocabulary))])
		}

		score := Score(doc, indicators)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, MaxScore)
	}
}
