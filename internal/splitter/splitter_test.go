package splitter

import (
	"strings"
	"testing"
)

func TestSplitPages(t *testing.T) {
	md := "--- Page 1 ---\n\nFirst page text.\n\n--- Page 2 ---\n\nSecond page text.\n"
	pages := SplitPages(md)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].Number != 1 || !strings.Contains(pages[0].Text, "First page") {
		t.Errorf("page 1 wrong: %+v", pages[0])
	}
	if pages[1].Number != 2 || !strings.Contains(pages[1].Text, "Second page") {
		t.Errorf("page 2 wrong: %+v", pages[1])
	}
}

func TestSplitPagesPreamble(t *testing.T) {
	md := "Cover sheet text.\n\n--- Page 1 ---\n\nBody.\n"
	pages := SplitPages(md)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].Number != 1 || !strings.Contains(pages[0].Text, "Cover sheet") {
		t.Errorf("preamble not attributed to page 1: %+v", pages[0])
	}
	if pages[1].Number != 1 {
		t.Errorf("marked page should keep its declared number, got %d", pages[1].Number)
	}
}

func TestSplitPagesNoMarkers(t *testing.T) {
	pages := SplitPages("Just some plain text without any markers.")
	if len(pages) != 1 || pages[0].Number != 1 {
		t.Fatalf("markerless input should be a single page 1, got %+v", pages)
	}
}

func TestSplitPagesBlankInput(t *testing.T) {
	if pages := SplitPages("  \n\n "); pages != nil {
		t.Errorf("blank input should yield no pages, got %+v", pages)
	}
}

func TestSplitPagesSkipsEmptyPages(t *testing.T) {
	md := "--- Page 1 ---\n\n--- Page 2 ---\n\nOnly this page has content.\n"
	pages := SplitPages(md)
	if len(pages) != 1 || pages[0].Number != 2 {
		t.Fatalf("empty page should be dropped, got %+v", pages)
	}
}

func TestSplitPagesNonArabicNumber(t *testing.T) {
	// Marker-like lines with non-numeric pages are not markers at all.
	md := "--- Page one ---\nText here."
	pages := SplitPages(md)
	if len(pages) != 1 || pages[0].Number != 1 {
		t.Fatalf("got %+v", pages)
	}
	if !strings.Contains(pages[0].Text, "--- Page one ---") {
		t.Error("non-matching marker line should stay in the text")
	}
}

func TestSplitSections(t *testing.T) {
	md := "--- Page 1 ---\n\n# Chapter One\n\nIntro paragraph.\n\n## Basics\n\nBasics text.\n"
	sections := New().Split(md)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2: %+v", len(sections), sections)
	}

	if sections[0].Text != "Intro paragraph." {
		t.Errorf("section 0 text = %q", sections[0].Text)
	}
	if got := sections[0].Headers["Header 1"]; got != "Chapter One" {
		t.Errorf("section 0 Header 1 = %q", got)
	}
	if _, ok := sections[0].Headers["Header 2"]; ok {
		t.Error("section 0 should not carry a Header 2 yet")
	}

	if sections[1].Text != "Basics text." {
		t.Errorf("section 1 text = %q", sections[1].Text)
	}
	if got := sections[1].Headers["Header 2"]; got != "Basics" {
		t.Errorf("section 1 Header 2 = %q", got)
	}
	if got := sections[1].Headers["Header 1"]; got != "Chapter One" {
		t.Errorf("section 1 should inherit Header 1, got %q", got)
	}
}

func TestHeaderLineageAcrossPages(t *testing.T) {
	md := "--- Page 1 ---\n\n# Chapter One\n\n## Setup\n\nSetup text.\n\n--- Page 2 ---\n\nContinuation without headings.\n"
	sections := New().Split(md)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	cont := sections[1]
	if cont.PageNumber != 2 {
		t.Errorf("continuation page = %d, want 2", cont.PageNumber)
	}
	if cont.Headers["Header 1"] != "Chapter One" || cont.Headers["Header 2"] != "Setup" {
		t.Errorf("continuation did not inherit lineage: %v", cont.Headers)
	}
}

func TestHigherHeadingClearsDeeperLevels(t *testing.T) {
	md := "# One\n\n## Sub\n\nSub text.\n\n# Two\n\nTwo text.\n"
	sections := New().Split(md)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	last := sections[1]
	if last.Headers["Header 1"] != "Two" {
		t.Errorf("Header 1 = %q, want Two", last.Headers["Header 1"])
	}
	if _, ok := last.Headers["Header 2"]; ok {
		t.Errorf("stale Header 2 survived a new Header 1: %v", last.Headers)
	}
}

func TestTextBeforeFirstHeading(t *testing.T) {
	md := "Leading paragraph before any heading.\n\n# Title\n\nBody.\n"
	sections := New().Split(md)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if len(sections[0].Headers) != 0 {
		t.Errorf("leading section should have no headers, got %v", sections[0].Headers)
	}
	if !strings.Contains(sections[0].Text, "Leading paragraph") {
		t.Errorf("leading text lost: %q", sections[0].Text)
	}
}

func TestHeadingLineExcludedFromBody(t *testing.T) {
	md := "# Alpha\n\nBody text only.\n"
	sections := New().Split(md)
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(sections))
	}
	if strings.Contains(sections[0].Text, "# Alpha") {
		t.Errorf("heading line leaked into body: %q", sections[0].Text)
	}
}

func TestHeadingWithoutBodyEmitsNothing(t *testing.T) {
	md := "# Empty Chapter\n\n# Full Chapter\n\nSome content.\n"
	sections := New().Split(md)
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1: %+v", len(sections), sections)
	}
	if sections[0].Headers["Header 1"] != "Full Chapter" {
		t.Errorf("headers = %v", sections[0].Headers)
	}
}

func TestSectionsAreIndependentCopies(t *testing.T) {
	md := "# A\n\nFirst.\n\n## B\n\nSecond.\n"
	sections := New().Split(md)
	if len(sections) != 2 {
		t.Fatalf("got %d sections", len(sections))
	}
	sections[1].Headers["Header 1"] = "mutated"
	if sections[0].Headers["Header 1"] != "A" {
		t.Error("sections share a headers map")
	}
}
