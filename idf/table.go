package idf

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/scicat/corpus"
)

// Table maps a term to its inverse document frequency.
// Tables returned by the cache are shared and must not be modified.
type Table map[string]float64

// Entry is one term of a table.
type Entry struct {
	Term string
	IDF  float64
}

// Sorted returns the entries ordered by ascending idf, then term.
func (t Table) Sorted() []Entry {
	entries := make([]Entry, 0, len(t))
	for term, value := range t {
		entries = append(entries, Entry{Term: term, IDF: value})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		switch {
		case a.IDF < b.IDF:
			return -1
		case a.IDF > b.IDF:
			return 1
		}
		return strings.Compare(a.Term, b.Term)
	})
	return entries
}

// Compute returns the idf of every term found in docs:
//
//	idf(t) = 1 + ln(N / (df(t) + 1))
//
// where N counts every document, empty ones included, and df(t) counts the
// documents containing t. Values are clamped at zero.
func Compute(docs []corpus.Document) Table {
	if len(docs) == 0 {
		return Table{}
	}

	df := make(map[string]int)
	for _, doc := range docs {
		for _, term := range doc.Terms() {
			df[term]++
		}
	}

	n := float64(len(docs))
	table := make(Table, len(df))
	for term, count := range df {
		table[term] = max(0, 1+math.Log(n/float64(count+1)))
	}
	return table
}

// Info describes the table currently held by a cache.
type Info struct {
	BuiltAt            time.Time
	SourceProjectCount int
	TermCount          int
	Sampled            bool
}
