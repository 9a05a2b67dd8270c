// Package splitter turns OCR'd, page-marked markdown into ordered sections
// that carry page provenance and header lineage.
package splitter

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"github.com/jmorales/normrag/internal/document"
)

// Page markers are emitted by the extraction layer before each page's
// content. The canonical form is English; older Spanish-marked corpora
// must be re-extracted.
var pageMarkerRe = regexp.MustCompile(`(?m)^--- Page (\d+) ---[ \t]*$`)

const maxHeaderLevel = 6

// Page is one page's worth of markdown.
type Page struct {
	Number int
	Text   string
}

// SplitPages splits page-marked markdown into per-page text. Content
// before the first marker is attributed to page 1; input without any
// markers is treated as a single page.
func SplitPages(markdown string) []Page {
	matches := pageMarkerRe.FindAllStringSubmatchIndex(markdown, -1)
	if len(matches) == 0 {
		if strings.TrimSpace(markdown) == "" {
			return nil
		}
		return []Page{{Number: 1, Text: markdown}}
	}

	var pages []Page
	if pre := markdown[:matches[0][0]]; strings.TrimSpace(pre) != "" {
		pages = append(pages, Page{Number: 1, Text: pre})
	}
	for i, m := range matches {
		num, err := strconv.Atoi(markdown[m[2]:m[3]])
		if err != nil || num < 1 {
			num = i + 1
		}
		end := len(markdown)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		text := markdown[m[1]:end]
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: num, Text: text})
	}
	return pages
}

// Splitter scans pages in order and tracks the most recently seen heading
// at each level, so every emitted section inherits the correct lineage
// until a new heading supersedes it.
type Splitter struct {
	headers map[string]string
}

func New() *Splitter {
	return &Splitter{headers: make(map[string]string)}
}

// Split produces the ordered section sequence for a whole document.
func (s *Splitter) Split(markdown string) []document.Section {
	var sections []document.Section
	for _, page := range SplitPages(markdown) {
		sections = append(sections, s.SplitPage(page)...)
	}
	return sections
}

// SplitPage emits the sections of a single page, updating header state as
// headings are encountered. No content is dropped or duplicated: every
// non-blank span of the page lands in exactly one section.
func (s *Splitter) SplitPage(page Page) []document.Section {
	headings := findHeadings(page.Text)

	var sections []document.Section
	emit := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		sections = append(sections, document.Section{
			PageNumber: page.Number,
			Text:       text,
			Headers:    copyHeaders(s.headers),
		})
	}

	if len(headings) == 0 {
		emit(page.Text)
		return sections
	}

	// Text before the first heading belongs to the lineage carried over
	// from previous pages.
	emit(page.Text[:headings[0].lineStart])

	for i, h := range headings {
		s.apply(h)
		end := len(page.Text)
		if i+1 < len(headings) {
			end = headings[i+1].lineStart
		}
		emit(page.Text[h.contentStart:end])
	}
	return sections
}

// apply records a heading and clears any deeper levels, since a new
// higher-level heading supersedes the subtree beneath it.
func (s *Splitter) apply(h heading) {
	s.headers[headerKey(h.level)] = h.title
	for lvl := h.level + 1; lvl <= maxHeaderLevel; lvl++ {
		delete(s.headers, headerKey(lvl))
	}
}

func headerKey(level int) string {
	return "Header " + strconv.Itoa(level)
}

func copyHeaders(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

type heading struct {
	level        int
	title        string
	lineStart    int // byte offset of the heading line in the page text
	contentStart int // byte offset just past the heading text
}

// findHeadings locates markdown headings via the goldmark AST, keeping the
// byte offsets needed to slice the page text into sections.
func findHeadings(src string) []heading {
	raw := []byte(src)
	doc := goldmark.New().Parser().Parse(gtext.NewReader(raw))

	var headings []heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		seg := h.Lines().At(0)
		lineStart := bytes.LastIndexByte(raw[:seg.Start], '\n') + 1
		title := strings.TrimSpace(string(h.Text(raw)))
		if title == "" {
			return ast.WalkContinue, nil
		}
		headings = append(headings, heading{
			level:        h.Level,
			title:        title,
			lineStart:    lineStart,
			contentStart: skipSetextUnderline(raw, seg.Stop),
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

var setextUnderlineRe = regexp.MustCompile(`^\n[=-]+[ \t]*\n`)

// skipSetextUnderline moves the content offset past a setext heading's
// underline line, which sits after the title text rather than before it.
func skipSetextUnderline(src []byte, pos int) int {
	if m := setextUnderlineRe.Find(src[pos:]); m != nil {
		return pos + len(m)
	}
	return pos
}
