// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package corpus

import (
	"strings"
	"unicode"

	"github.com/poiesic/scicat/core"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ReadmeLimit is the number of readme characters included in a document.
const ReadmeLimit = 3000

// Document is the ordered term sequence of one project.
// Terms repeat as often as they occur in the source text.
type Document []string

// Terms returns the distinct terms of the document in first-seen order.
func (d Document) Terms() []string {
	seen := make(map[string]struct{}, len(d))
	terms := make([]string, 0, len(d))
	for _, t := range d {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// Counts returns the frequency of every term.
func (d Document) Counts() map[string]int {
	counts := make(map[string]int, len(d))
	for _, t := range d {
		counts[t]++
	}
	return counts
}

// Tokenize builds the document of a project from its name, description,
// the head of its readme and its keywords.
// A nil project or one without text yields an empty document.
func Tokenize(p *core.Project) Document {
	if p == nil {
		return Document{}
	}

	parts := make([]string, 0, 4)
	if p.Name != "" {
		parts = append(parts, p.Name)
	}
	if p.Description != "" {
		parts = append(parts, p.Description)
	}
	if p.Readme != "" {
		parts = append(parts, truncate(p.Readme, ReadmeLimit))
	}
	if len(p.Keywords) > 0 {
		parts = append(parts, strings.Join(p.Keywords, " "))
	}
	return TokenizeText(strings.Join(parts, " "))
}

// TokenizeText lowercases and folds text, splits it on whitespace, drops
// stopwords and strips everything but letters and digits from each token.
func TokenizeText(text string) Document {
	text = Fold(strings.ToLower(text))
	fields := strings.Fields(text)
	doc := make(Document, 0, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimFunc(field, notAlphanumeric)
		if trimmed == "" || IsStopword(trimmed) {
			continue
		}
		term := strings.Map(func(r rune) rune {
			if notAlphanumeric(r) {
				return -1
			}
			return r
		}, trimmed)
		if term == "" || IsStopword(term) {
			continue
		}
		doc = append(doc, term)
	}
	return doc
}

func notAlphanumeric(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Fold removes diacritics so "schrödinger" and "schrodinger" collapse.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// truncate returns the first n runes of s.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
