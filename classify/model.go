package classify

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/poiesic/scicat/core"
)

// fieldModel is a field with lowercased, precomputed match inputs.
type fieldModel struct {
	field      *core.Field
	keywords   []string
	keywordSet map[string]struct{}
	packages   []string
	packageSet map[string]struct{}
	indicators []string
}

// model is the compiled set of fields. A single Aho-Corasick automaton
// covers the indicator phrases of every field.
type model struct {
	fields  []*fieldModel
	phrases []string
	matcher *ahocorasick.Matcher
}

func compile(fields []*core.Field) *model {
	m := &model{fields: make([]*fieldModel, 0, len(fields))}
	phraseIndex := make(map[string]struct{})

	for _, field := range fields {
		if field == nil {
			continue
		}
		fm := &fieldModel{
			field:      field,
			keywords:   lowerAll(field.Keywords),
			packages:   lowerAll(field.Packages),
			indicators: lowerAll(field.Indicators),
		}
		fm.keywordSet = toSet(fm.keywords)
		fm.packageSet = toSet(fm.packages)

		for _, phrase := range fm.indicators {
			if phrase == "" {
				continue
			}
			if _, ok := phraseIndex[phrase]; !ok {
				phraseIndex[phrase] = struct{}{}
				m.phrases = append(m.phrases, phrase)
			}
		}
		m.fields = append(m.fields, fm)
	}

	if len(m.phrases) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(m.phrases)
	}
	return m
}

// matchIndicators returns the indicator phrases occurring in content.
func (m *model) matchIndicators(content string) map[string]struct{} {
	found := make(map[string]struct{})
	if m.matcher == nil || content == "" {
		return found
	}
	for _, hit := range m.matcher.MatchThreadSafe([]byte(content)) {
		if hit < len(m.phrases) {
			found[m.phrases[hit]] = struct{}{}
		}
	}
	return found
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
