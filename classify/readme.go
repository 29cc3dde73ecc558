package classify

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/poiesic/scicat/corpus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const minReadmeTermLength = 4

var (
	markdownParser     goldmark.Markdown
	markdownParserOnce sync.Once

	urlPattern     = regexp.MustCompile(`https?://\S+`)
	nonWordPattern = regexp.MustCompile(`[^a-z\s-]`)
)

// readmeStopwords are common words long enough to pass the length filter.
var readmeStopwords = map[string]struct{}{
	"this": {}, "that": {}, "these": {}, "those": {}, "have": {}, "been": {},
	"were": {}, "what": {}, "when": {}, "where": {}, "which": {}, "while": {},
	"with": {}, "from": {}, "into": {}, "onto": {}, "upon": {}, "about": {},
	"after": {}, "before": {}, "during": {}, "under": {}, "above": {}, "below": {},
	"between": {}, "through": {}, "against": {}, "toward": {}, "towards": {},
	"beneath": {}, "beside": {}, "besides": {},
}

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// readmeText returns the prose of a markdown readme.
// Code blocks, code spans, raw HTML and autolinks are dropped; every block
// and line break becomes a space.
func readmeText(readme string) string {
	source := []byte(readme)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	var b strings.Builder
	ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch node.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindCodeSpan,
			ast.KindHTMLBlock, ast.KindRawHTML, ast.KindAutoLink:
			return ast.WalkSkipChildren, nil
		case ast.KindText:
			t := node.(*ast.Text)
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case ast.KindString:
			b.Write(node.(*ast.String).Value)
		}
		if node.Type() == ast.TypeBlock {
			b.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// readmeTerms returns the distinct significant words of a readme:
// lowercase letters and hyphens only, longer than three characters,
// stopwords removed.
func readmeTerms(readme string) map[string]struct{} {
	content := corpus.Fold(strings.ToLower(readmeText(readme)))
	content = urlPattern.ReplaceAllString(content, "")
	content = nonWordPattern.ReplaceAllString(content, " ")

	terms := make(map[string]struct{})
	for _, word := range strings.Fields(content) {
		if utf8.RuneCountInString(word) < minReadmeTermLength {
			continue
		}
		if _, stop := readmeStopwords[word]; stop {
			continue
		}
		terms[word] = struct{}{}
	}
	return terms
}
