package relevance

import (
	"fmt"
	"testing"

	"github.com/poiesic/scicat/idf"
	"github.com/stretchr/testify/assert"
)

func indicatorTable() idf.Table {
	table := idf.Table{
		"data":    0.9, // too common
		"physics": 1.2,
		"https":   1.3, // denylisted
		"ab":      1.5, // too short
		"model":   1.8,
		"rare":    3.9, // outside the percentile band
	}
	for i := range 44 {
		table[fmt.Sprintf("filler%02d", i)] = 4.5
	}
	return table
}

func TestSelectIndicators(t *testing.T) {
	got := SelectIndicators(indicatorTable(), 0.1)
	assert.Equal(t, Indicators{"physics": 1.2, "model": 1.8}, got)
}

func TestSelectIndicators_Bounds(t *testing.T) {
	tests := []struct {
		name  string
		table idf.Table
		want  Indicators
	}{
		{"empty table", idf.Table{}, Indicators{}},
		{"idf of exactly one", idf.Table{"theory": 1.0}, Indicators{}},
		{"idf of exactly four", idf.Table{"theory": 4.0}, Indicators{}},
		{"three characters", idf.Table{"dna": 2.0}, Indicators{"dna": 2.0}},
		{"denylist substring", idf.Table{"shieldsbadge": 2.0, "network": 2.0}, Indicators{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectIndicators(tt.table, 1))
		})
	}
}

func TestSelectIndicators_SmallTable(t *testing.T) {
	// 5% of ten terms rounds down to nothing
	table := idf.Table{}
	for i := range 10 {
		table[fmt.Sprintf("term%d", i)] = 2.0
	}
	assert.Empty(t, SelectIndicators(table, DefaultPercentile))
}

func TestIndicators_TotalWeight(t *testing.T) {
	in := Indicators{"a": 1, "b": 3}
	assert.InDelta(t, 0.75, in.TotalWeight(), 1e-12)
}
