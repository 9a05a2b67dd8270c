// Package visual detects non-prose elements in markdown chunks so that
// retrieval metadata can flag images, tables, formulas and lists.
package visual

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	imagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`),
		regexp.MustCompile(`(?i)<img\b[^>]*>`),
		regexp.MustCompile(`(?i)\b(?:figure|figura|fig\.)\s*\d+`),
	}

	tableRowRe       = regexp.MustCompile(`(?m)^\s*\|.*\|\s*$`)
	tableSeparatorRe = regexp.MustCompile(`(?m)^\s*\|?\s*:?-{2,}.*\|`)
	htmlTableRe      = regexp.MustCompile(`(?i)<table\b`)

	formulaPatterns = []*regexp.Regexp{
		// Display form first so $$...$$ is not also counted as two inline spans.
		regexp.MustCompile(`\$\$[^$]+\$\$|\$[^$\n]+\$`),
		regexp.MustCompile(`\\\[|\\\(`),
		regexp.MustCompile(`\\begin\{(?:equation|align|gather|matrix)`),
	}

	listItemRe = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+\S`)
)

// Elements holds per-category counts for one chunk of text.
type Elements struct {
	Images   int
	Tables   int
	Formulas int
	Lists    int
}

// Detect counts visual elements in text. Each category is detected
// independently; a chunk can carry any combination.
func Detect(text string) Elements {
	var e Elements
	for _, re := range imagePatterns {
		e.Images += len(re.FindAllString(text, -1))
	}
	e.Tables = countTables(text)
	for _, re := range formulaPatterns {
		e.Formulas += len(re.FindAllString(text, -1))
	}
	e.Lists = len(listItemRe.FindAllString(text, -1))
	return e
}

// countTables counts one table per markdown separator row, so a multi-row
// table is a single element. Pipe rows without a separator still count as
// one table. HTML tables are counted per opening tag.
func countTables(text string) int {
	n := len(tableSeparatorRe.FindAllString(text, -1))
	if n == 0 && len(tableRowRe.FindAllString(text, -1)) > 0 {
		n = 1
	}
	return n + len(htmlTableRe.FindAllString(text, -1))
}

func (e Elements) Any() bool {
	return e.Images > 0 || e.Tables > 0 || e.Formulas > 0 || e.Lists > 0
}

// Summary renders a short English description used as enrichment context
// and stored in chunk metadata.
func (e Elements) Summary() string {
	if !e.Any() {
		return "Text only"
	}
	var parts []string
	if e.Images > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", e.Images, plural(e.Images, "image/figure", "images/figures")))
	}
	if e.Tables > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", e.Tables, plural(e.Tables, "table", "tables")))
	}
	if e.Formulas > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", e.Formulas, plural(e.Formulas, "formula", "formulas")))
	}
	if e.Lists > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", e.Lists, plural(e.Lists, "list item", "list items")))
	}
	return "Contains " + strings.Join(parts, "; ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
